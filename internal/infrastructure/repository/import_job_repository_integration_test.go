package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
	"github.com/mohammadpnp/data-import/internal/infrastructure/db/models"
	"github.com/mohammadpnp/data-import/internal/infrastructure/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestImportJobRepositoryLifecycleIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	if err := db.AutoMigrate(&models.ImportJob{}); err != nil {
		t.Fatalf("failed to migrate import_jobs: %v", err)
	}

	repo := repository.NewImportJobRepository(db)
	ctx := context.Background()

	job := &domain.ImportJob{
		Code:      uuid.NewString(),
		ItemType:  "Category",
		RowCount:  2,
		Process:   domain.ProcessSave,
		Status:    domain.JobPending,
		StartedAt: time.Now().UTC(),
		Request:   `[{"code[unique]":"shoes"}]`,
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	finished := time.Now().UTC()
	job.Site = "ACME"
	job.Status = domain.JobFail
	job.FinishedAt = &finished
	job.Description = domain.SiteMismatchMessage
	job.LogFile = "/data/error/Save_Category.log"
	if err := repo.Update(ctx, job); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := repo.GetByCode(ctx, job.Code)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.JobFail || got.Site != "ACME" || got.Description != domain.SiteMismatchMessage {
		t.Fatalf("unexpected job: %+v", got)
	}
	if got.FinishedAt == nil || got.Request != job.Request || got.LogFile != job.LogFile {
		t.Fatalf("unexpected job: %+v", got)
	}

	if _, err := repo.GetByCode(ctx, uuid.NewString()); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	missing := &domain.ImportJob{Code: uuid.NewString(), Status: domain.JobSuccess}
	if err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound on update, got %v", err)
	}
}
