package dataimport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

type GetImportJobInput struct {
	Code string
}

type GetImportJobOutput struct {
	Code        string     `json:"code"`
	ItemType    string     `json:"item_type"`
	RowCount    int        `json:"row_count"`
	Site        string     `json:"site,omitempty"`
	Process     string     `json:"process"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Description string     `json:"description,omitempty"`
	LogFile     string     `json:"log_file,omitempty"`
}

type GetImportJob interface {
	Execute(ctx context.Context, in GetImportJobInput) (GetImportJobOutput, error)
}

type importJobReader interface {
	GetByCode(ctx context.Context, code string) (*domain.ImportJob, error)
}

type getImportJob struct {
	repo importJobReader
}

func NewGetImportJob(repo importJobReader) GetImportJob {
	return &getImportJob{repo: repo}
}

func (uc *getImportJob) Execute(ctx context.Context, in GetImportJobInput) (GetImportJobOutput, error) {
	if _, err := uuid.Parse(in.Code); err != nil {
		return GetImportJobOutput{}, ErrInvalidJobCode
	}

	job, err := uc.repo.GetByCode(ctx, in.Code)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return GetImportJobOutput{}, ErrImportJobNotFound
		}
		return GetImportJobOutput{}, fmt.Errorf("%w: %v", ErrGetImportJob, err)
	}

	return GetImportJobOutput{
		Code:        job.Code,
		ItemType:    job.ItemType,
		RowCount:    job.RowCount,
		Site:        job.Site,
		Process:     string(job.Process),
		Status:      string(job.Status),
		StartedAt:   job.StartedAt,
		FinishedAt:  job.FinishedAt,
		Description: job.Description,
		LogFile:     job.LogFile,
	}, nil
}
