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

var DaemonTickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "imagecatalog_daemon_tick_duration_minutes",
	Help:    "Duration of periodic daemon steps in minutes",
	Buckets: prometheus.DefBuckets,
}, []string{"daemon"})

var CatalogSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "imagecatalog_catalog_sync_duration_minutes",
	Help:    "Duration of a full catalog sync pass in minutes",
	Buckets: prometheus.DefBuckets,
})

var CatalogEntriesPruned = promauto.NewCounter(prometheus.CounterOpts{
	Name: "imagecatalog_catalog_entries_pruned_total",
	Help: "The total number of catalog entries removed because the source no longer contains them",
})
