package dataimport_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	app "github.com/mohammadpnp/data-import/internal/application/dataimport"
	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

type fakeJobReader struct {
	job       *domain.ImportJob
	returnErr error
}

func (f *fakeJobReader) GetByCode(ctx context.Context, code string) (*domain.ImportJob, error) {
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	return f.job, nil
}

const jobCode = "a3f91a91-7fdd-43bf-bfd2-00bc02f6c53e"

func TestGetImportJobSuccess(t *testing.T) {
	t.Parallel()

	finished := time.Date(2024, 3, 15, 10, 0, 5, 0, time.UTC)
	repo := &fakeJobReader{job: &domain.ImportJob{
		Code:        jobCode,
		ItemType:    "Product",
		RowCount:    12,
		Site:        "ACME",
		Process:     domain.ProcessSave,
		Status:      domain.JobSuccess,
		StartedAt:   finished.Add(-5 * time.Second),
		FinishedAt:  &finished,
		Description: "12 of Product data has been imported successfully",
	}}

	out, err := app.NewGetImportJob(repo).Execute(context.Background(), app.GetImportJobInput{Code: jobCode})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Code != jobCode || out.Status != "SUCCESS" || out.Process != "SAVE" || out.RowCount != 12 {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.FinishedAt == nil || !out.FinishedAt.Equal(finished) {
		t.Fatalf("unexpected finished_at: %v", out.FinishedAt)
	}
}

func TestGetImportJobInvalidCode(t *testing.T) {
	t.Parallel()

	_, err := app.NewGetImportJob(&fakeJobReader{}).Execute(context.Background(), app.GetImportJobInput{Code: "not-a-uuid"})
	if !errors.Is(err, app.ErrInvalidJobCode) {
		t.Fatalf("expected ErrInvalidJobCode, got %v", err)
	}
}

func TestGetImportJobNotFound(t *testing.T) {
	t.Parallel()

	repo := &fakeJobReader{returnErr: fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobCode)}
	_, err := app.NewGetImportJob(repo).Execute(context.Background(), app.GetImportJobInput{Code: jobCode})
	if !errors.Is(err, app.ErrImportJobNotFound) {
		t.Fatalf("expected ErrImportJobNotFound, got %v", err)
	}
}

func TestGetImportJobRepositoryError(t *testing.T) {
	t.Parallel()

	_, err := app.NewGetImportJob(&fakeJobReader{returnErr: errBoom}).Execute(context.Background(), app.GetImportJobInput{Code: jobCode})
	if !errors.Is(err, app.ErrGetImportJob) {
		t.Fatalf("expected ErrGetImportJob, got %v", err)
	}
}
