// Package metrics provides Prometheus metrics for sync runs and draft generation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SyncSourcesTotal counts synchronized sources by outcome.
	SyncSourcesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "sync_sources_total",
			Help:      "Total number of sources synchronized",
		},
		[]string{"status"},
	)

	// SyncItemsTotal counts extracted items by persistence outcome.
	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "sync_items_total",
			Help:      "Total number of extracted feed items",
		},
		[]string{"outcome"},
	)

	// SyncDuration measures full sync runs.
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newsroom",
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// DraftsTotal counts draft generations by brief kind and status.
	DraftsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "drafts_total",
			Help:      "Total number of draft generations",
		},
		[]string{"kind", "status"},
	)

	// DraftStageFailures counts non-fatal stage degradations.
	DraftStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsroom",
			Name:      "draft_stage_failures_total",
			Help:      "Total number of degraded draft stages",
		},
		[]string{"stage"},
	)
)

// RecordSource records one source outcome ("ok" or "error").
func RecordSource(status string) {
	SyncSourcesTotal.WithLabelValues(status).Inc()
}

// RecordItems adds n items with the given outcome (new, duplicate, failed).
func RecordItems(outcome string, n int) {
	if n > 0 {
		SyncItemsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// ObserveSync records the duration of a sync run.
func ObserveSync(d time.Duration) {
	SyncDuration.Observe(d.Seconds())
}

// RecordDraft records a draft generation outcome.
func RecordDraft(kind, status string) {
	DraftsTotal.WithLabelValues(kind, status).Inc()
}

// RecordStageFailure records a degraded draft stage.
func RecordStageFailure(stage string) {
	DraftStageFailures.WithLabelValues(stage).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
