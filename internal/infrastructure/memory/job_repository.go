package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]domain.ImportJob
}

func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[string]domain.ImportJob)}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.Code]; exists {
		return fmt.Errorf("import job %s already exists", job.Code)
	}
	r.jobs[job.Code] = *job
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *domain.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.Code]; !exists {
		return fmt.Errorf("%w: %s", domain.ErrJobNotFound, job.Code)
	}
	r.jobs[job.Code] = *job
	return nil
}

func (r *JobRepository) GetByCode(ctx context.Context, code string) (*domain.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, code)
	}
	return &job, nil
}

// List returns all recorded jobs in no particular order.
func (r *JobRepository) List() []domain.ImportJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ImportJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	return out
}
