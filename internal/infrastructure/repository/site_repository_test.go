package repository_test

import (
	"context"
	"errors"
	"testing"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
	"github.com/mohammadpnp/data-import/internal/infrastructure/memory"
	"github.com/mohammadpnp/data-import/internal/infrastructure/repository"
)

func lookupRegistry(t *testing.T) *domain.Registry {
	t.Helper()
	site, err := domain.NewEntityType("Site",
		domain.Field{Name: "code", Kind: domain.KindString},
		domain.Field{Name: "domain", Kind: domain.KindString},
	)
	if err != nil {
		t.Fatalf("site type: %v", err)
	}
	category, err := domain.NewEntityType("CmsCategory",
		domain.Field{Name: "code", Kind: domain.KindString},
		domain.Field{Name: "site", Kind: domain.KindRelation, Target: "Site"},
	)
	if err != nil {
		t.Fatalf("category type: %v", err)
	}
	reg, err := domain.NewRegistry(site, category)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func save(t *testing.T, store *memory.EntityStore, typeName string, values map[string]any) *domain.Entity {
	t.Helper()
	e := domain.NewEntity(typeName)
	for k, v := range values {
		e.Set(k, v)
	}
	if err := store.SaveAll(context.Background(), []*domain.Entity{e}); err != nil {
		t.Fatalf("save %s: %v", typeName, err)
	}
	return e
}

func TestSiteRepositoryLookups(t *testing.T) {
	t.Parallel()

	reg := lookupRegistry(t)
	store := memory.NewEntityStore(reg)
	acme := save(t, store, "Site", map[string]any{"code": "ACME", "domain": "shop.acme.test"})
	repo := repository.NewSiteRepository(store, reg)
	ctx := context.Background()

	got, err := repo.GetByCode(ctx, " ACME ")
	if err != nil || got.ID != acme.ID {
		t.Fatalf("get by code: %v %v", got, err)
	}
	got, err = repo.GetByDomain(ctx, "Shop.Acme.Test:8080")
	if err != nil || got.ID != acme.ID {
		t.Fatalf("get by domain: %v %v", got, err)
	}
	if _, err := repo.GetByCode(ctx, "OTHER"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryRepositoryScopesToSite(t *testing.T) {
	t.Parallel()

	reg := lookupRegistry(t)
	store := memory.NewEntityStore(reg)
	acme := save(t, store, "Site", map[string]any{"code": "ACME"})
	other := save(t, store, "Site", map[string]any{"code": "OTHER"})
	want := save(t, store, "CmsCategory", map[string]any{"code": "OTHER", "site": acme})
	save(t, store, "CmsCategory", map[string]any{"code": "OTHER", "site": other})

	repo := repository.NewCategoryRepository(store, reg, "cms-category")
	got, err := repo.GetByCode(context.Background(), "OTHER", acme)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("expected category of ACME, got %s", got.ID)
	}

	if _, err := repo.GetByCode(context.Background(), "OTHER", nil); !errors.Is(err, domain.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous without site, got %v", err)
	}
}
