package repository

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
	"github.com/mohammadpnp/data-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	row := toJobModel(job)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	return nil
}

func (r *ImportJobRepository) Update(ctx context.Context, job *domain.ImportJob) error {
	row := toJobModel(job)
	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("code = ?", job.Code).
		Updates(map[string]any{
			"row_count":   row.RowCount,
			"site":        row.Site,
			"status":      row.Status,
			"finished_at": row.FinishedAt,
			"description": row.Description,
			"log_file":    row.LogFile,
		})
	if res.Error != nil {
		return fmt.Errorf("update import job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrJobNotFound, job.Code)
	}
	return nil
}

func (r *ImportJobRepository) GetByCode(ctx context.Context, code string) (*domain.ImportJob, error) {
	var row models.ImportJob

	err := r.db.WithContext(ctx).First(&row, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, code)
		}
		return nil, fmt.Errorf("get import job by code: %w", err)
	}

	return &domain.ImportJob{
		Code:        row.Code,
		ItemType:    row.ItemType,
		RowCount:    row.RowCount,
		Site:        derefText(row.Site),
		Process:     domain.ProcessKind(row.Process),
		Status:      domain.JobStatus(row.Status),
		StartedAt:   row.StartedAt.UTC(),
		FinishedAt:  row.FinishedAt,
		Description: derefText(row.Description),
		LogFile:     derefText(row.LogFile),
		Request:     derefText(row.Request),
	}, nil
}

func toJobModel(job *domain.ImportJob) models.ImportJob {
	return models.ImportJob{
		Code:        job.Code,
		ItemType:    job.ItemType,
		RowCount:    job.RowCount,
		Site:        nullableText(job.Site),
		Process:     string(job.Process),
		Status:      string(job.Status),
		StartedAt:   job.StartedAt,
		FinishedAt:  job.FinishedAt,
		Description: nullableText(job.Description),
		LogFile:     nullableText(job.LogFile),
		Request:     nullableText(job.Request),
	}
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func derefText(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
