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

package registry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type registryMetrics struct {
	votesLeft       *prometheus.GaugeVec
	triggerFund     *prometheus.GaugeVec
	voters          *prometheus.GaugeVec
	representatives *prometheus.GaugeVec
	paused          *prometheus.GaugeVec
}

func (m *registryMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	labels := []string{"registry_app_id"}
	m.votesLeft = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "delegato_registry_votes_left",
			Help: "paid votes not yet cast",
		},
		labels,
	)
	m.triggerFund = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "delegato_registry_trigger_fund_microalgos",
			Help: "balance reserved for trigger awards",
		},
		labels,
	)
	m.voters = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "delegato_registry_voters",
			Help: "registered voters",
		},
		labels,
	)
	m.representatives = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "delegato_registry_representatives",
			Help: "registered representatives",
		},
		labels,
	)
	m.paused = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "delegato_registry_paused",
			Help: "1 if the registry is paused",
		},
		labels,
	)
}

func (m *registryMetrics) observe(status Status) {
	if m.votesLeft == nil {
		return
	}
	id := strconv.FormatUint(uint64(status.App), 10)
	m.votesLeft.WithLabelValues(id).Set(float64(status.State.VotesLeft))
	m.triggerFund.WithLabelValues(id).Set(float64(status.State.TriggerFund))
	m.voters.WithLabelValues(id).Set(float64(status.Voters))
	m.representatives.WithLabelValues(id).Set(float64(status.Representatives))
	paused := 0.0
	if status.State.Paused {
		paused = 1
	}
	m.paused.WithLabelValues(id).Set(paused)
}
