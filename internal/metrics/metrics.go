// Package metrics holds the run metrics of an indexing job and pushes them to
// a Prometheus Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds every indexing collector. It is kept apart from the default
// registry so that a push carries run metrics only.
var Registry = prometheus.NewRegistry()

var (
	DocumentsBuiltTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "igsrindex",
			Name:      "documents_built_total",
			Help:      "Documents built from source rows",
		},
		[]string{"kind"},
	)

	RowsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "igsrindex",
			Name:      "rows_skipped_total",
			Help:      "Root rows skipped for a missing identifying key",
		},
		[]string{"kind"},
	)

	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "igsrindex",
			Name:      "actions_total",
			Help:      "Bulk actions sent to the document store",
		},
		[]string{"kind", "status"}, // "ok" / "failed"
	)

	BulkRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "igsrindex",
			Name:      "bulk_request_duration_seconds",
			Help:      "Bulk request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "igsrindex",
			Name:      "runs_total",
			Help:      "Indexing runs by outcome",
		},
		[]string{"kind", "mode", "status"}, // "ok" / "partial" / "failed"
	)

	RunDurationSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "igsrindex",
			Name:      "run_duration_seconds",
			Help:      "Duration of the last indexing run",
		},
		[]string{"kind", "mode"},
	)

	LastSuccessTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "igsrindex",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that published without failures",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		DocumentsBuiltTotal,
		RowsSkippedTotal,
		ActionsTotal,
		BulkRequestDuration,
		RunsTotal,
		RunDurationSeconds,
		LastSuccessTimestamp,
	)
}

// Run outcome labels.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// RecordBuild counts built documents and skipped rows.
func RecordBuild(kind string, built, skipped int) {
	DocumentsBuiltTotal.WithLabelValues(kind).Add(float64(built))
	RowsSkippedTotal.WithLabelValues(kind).Add(float64(skipped))
}

// RecordPublish counts per-item bulk outcomes.
func RecordPublish(kind string, succeeded, failed int) {
	ActionsTotal.WithLabelValues(kind, StatusOK).Add(float64(succeeded))
	ActionsTotal.WithLabelValues(kind, StatusFailed).Add(float64(failed))
}

// RecordRun records the outcome and duration of one run.
func RecordRun(kind, mode, status string, d time.Duration) {
	RunsTotal.WithLabelValues(kind, mode, status).Inc()
	RunDurationSeconds.WithLabelValues(kind, mode).Set(d.Seconds())
	if status == StatusOK {
		LastSuccessTimestamp.WithLabelValues(kind).SetToCurrentTime()
	}
}

// Push sends the registry to a Pushgateway, grouped by kind.
func Push(ctx context.Context, url, job, kind string) error {
	err := push.New(url, job).
		Gatherer(Registry).
		Grouping("kind", kind).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
