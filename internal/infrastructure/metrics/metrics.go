// Package metrics exposes Prometheus metrics for finished import jobs.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

var (
	// JobsTotal counts finished import jobs by item type, process and status.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dataimport",
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Total number of finished import jobs",
		},
		[]string{"item_type", "process", "status"},
	)

	// RowsTotal counts rows handed to finished jobs.
	RowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dataimport",
			Subsystem: "jobs",
			Name:      "rows_total",
			Help:      "Total number of rows in finished import jobs",
		},
		[]string{"item_type", "process", "status"},
	)

	// JobDuration tracks how long import jobs take in seconds.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dataimport",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Duration of import jobs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		},
		[]string{"item_type", "process"},
	)
)

// JobObserver records every finished job.
type JobObserver struct{}

func NewJobObserver() JobObserver {
	return JobObserver{}
}

func (JobObserver) JobFinished(ctx context.Context, job domain.ImportJob) {
	process := string(job.Process)
	status := string(job.Status)

	JobsTotal.WithLabelValues(job.ItemType, process, status).Inc()
	RowsTotal.WithLabelValues(job.ItemType, process, status).Add(float64(job.RowCount))
	if job.FinishedAt != nil {
		JobDuration.WithLabelValues(job.ItemType, process).Observe(job.FinishedAt.Sub(job.StartedAt).Seconds())
	}
}
