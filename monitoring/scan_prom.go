// Copyright (C) 2026 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "imagecatalog_scan_duration_minutes",
	Help:    "Duration of scanner invocations in minutes",
	Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15},
})

var ScanOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "imagecatalog_scan_outcomes_total",
	Help: "Scanner invocations by outcome",
}, []string{"outcome"})

var JobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "imagecatalog_jobs_enqueued_total",
	Help: "Jobs added to the queue by kind",
}, []string{"kind"})

var JobsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "imagecatalog_jobs_dropped_total",
	Help: "Jobs not enqueued because the entity is already in flight",
}, []string{"kind"})

var JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "imagecatalog_jobs_processed_total",
	Help: "Jobs processed by kind and result",
}, []string{"kind", "result"})
