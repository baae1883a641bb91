package repository

import (
	"context"
	"strings"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

const (
	siteCodeField   = "code"
	siteDomainField = "domain"
)

// SiteRepository finds sites through the entity store.
type SiteRepository struct {
	store    domain.EntityStore
	registry *domain.Registry
}

func NewSiteRepository(store domain.EntityStore, registry *domain.Registry) *SiteRepository {
	return &SiteRepository{store: store, registry: registry}
}

func (r *SiteRepository) GetByCode(ctx context.Context, code string) (*domain.Entity, error) {
	return r.find(ctx, siteCodeField, strings.TrimSpace(code))
}

// GetByDomain matches the request host without its port.
func (r *SiteRepository) GetByDomain(ctx context.Context, host string) (*domain.Entity, error) {
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return r.find(ctx, siteDomainField, strings.ToLower(host))
}

func (r *SiteRepository) find(ctx context.Context, field, value string) (*domain.Entity, error) {
	t, err := r.registry.Lookup(domain.SiteTypeName)
	if err != nil {
		return nil, err
	}
	return r.store.SearchOne(ctx, t, domain.Criteria{field: value})
}

// CategoryRepository finds media categories of the configured type by code,
// within the given site when the type is site scoped.
type CategoryRepository struct {
	store    domain.EntityStore
	registry *domain.Registry
	typeName string
}

func NewCategoryRepository(store domain.EntityStore, registry *domain.Registry, typeName string) *CategoryRepository {
	return &CategoryRepository{store: store, registry: registry, typeName: typeName}
}

func (r *CategoryRepository) GetByCode(ctx context.Context, code string, site *domain.Entity) (*domain.Entity, error) {
	t, err := r.registry.Lookup(r.typeName)
	if err != nil {
		return nil, err
	}
	criteria := domain.Criteria{siteCodeField: strings.TrimSpace(code)}
	if t.SiteScoped() && site != nil {
		criteria[domain.SiteFieldName] = site
	}
	return r.store.SearchOne(ctx, t, criteria)
}
