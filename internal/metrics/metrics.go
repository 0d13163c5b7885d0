// Package metrics holds the catalog service's domain-level Prometheus
// collectors. HTTP-level metrics live in pkg/middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrphanedFiles counts asset files that were scheduled for deletion but
	// could not be removed. Each one is a leak an offline sweep must reclaim.
	OrphanedFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_orphaned_files_total",
			Help: "Total number of asset files left orphaned by failed best-effort deletes",
		},
	)

	// AssetDeletes counts best-effort asset delete attempts by outcome.
	AssetDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_asset_deletes_total",
			Help: "Total number of asset delete attempts",
		},
		[]string{"outcome"},
	)

	// TranscodeDuration observes how long a single image transcode takes.
	TranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_transcode_duration_seconds",
			Help:    "Image transcode duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Asset delete outcomes.
const (
	OutcomeDeleted = "deleted"
	OutcomeFailed  = "failed"
)
