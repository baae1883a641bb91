package dataimport

import (
	"context"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

// JobObserver is notified once a job reached SUCCESS or FAIL.
type JobObserver interface {
	JobFinished(ctx context.Context, job domain.ImportJob)
}

// JobObservers fans a notification out to every observer.
type JobObservers []JobObserver

func (o JobObservers) JobFinished(ctx context.Context, job domain.ImportJob) {
	for _, observer := range o {
		observer.JobFinished(ctx, job)
	}
}
