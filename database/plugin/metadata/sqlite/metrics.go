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

package sqlite

import (
	"github.com/blinklabs-io/delegato/database/models"
	"github.com/prometheus/client_golang/prometheus"
)

const sqliteMetricNamePrefix = "database_metadata_"

func (d *MetadataStoreSqlite) registerMetadataMetrics() {
	callRecords := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: sqliteMetricNamePrefix + "call_records",
			Help: "Number of call receipts in the metadata store",
		},
		func() float64 {
			var count int64
			d.DB().Model(&models.CallRecord{}).Count(&count)
			return float64(count)
		},
	)
	voteCasts := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: sqliteMetricNamePrefix + "vote_casts",
			Help: "Number of cast votes in the metadata store",
		},
		func() float64 {
			var count int64
			d.DB().Model(&models.VoteCast{}).Count(&count)
			return float64(count)
		},
	)
	d.promRegistry.MustRegister(callRecords, voteCasts)
}
