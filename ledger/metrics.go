// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	round        prometheus.Gauge
	calls        *prometheus.CounterVec
	callDuration prometheus.Histogram
	apps         prometheus.Gauge
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.round = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "delegato_ledger_round",
		Help: "last committed ledger round",
	})
	m.calls = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delegato_ledger_calls_total",
			Help: "total top-level application calls, by kind, method and result",
		},
		[]string{"kind", "method", "result"},
	)
	m.callDuration = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delegato_ledger_call_duration_seconds",
			Help:    "duration of top-level application calls including commit",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
	)
	m.apps = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "delegato_ledger_apps_created",
		Help: "applications created since the ledger was opened",
	})
}
