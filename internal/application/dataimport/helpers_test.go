package dataimport_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	app "github.com/mohammadpnp/data-import/internal/application/dataimport"
	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
	"github.com/mohammadpnp/data-import/internal/infrastructure/memory"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func mustType(t *testing.T, name string, fields ...domain.Field) *domain.EntityType {
	t.Helper()
	et, err := domain.NewEntityType(name, fields...)
	if err != nil {
		t.Fatalf("type %s: %v", name, err)
	}
	return et
}

func testRegistry(t *testing.T) *domain.Registry {
	t.Helper()

	siteRel := domain.Field{Name: "site", Kind: domain.KindRelation, Target: "Site"}
	reg, err := domain.NewRegistry(
		mustType(t, "Site",
			domain.Field{Name: "code", Kind: domain.KindString},
			domain.Field{Name: "domain", Kind: domain.KindString},
			domain.Field{Name: "language", Kind: domain.KindString},
		),
		mustType(t, "CmsCategory",
			domain.Field{Name: "code", Kind: domain.KindString},
			siteRel,
		),
		mustType(t, "Media",
			domain.Field{Name: "code", Kind: domain.KindString},
			domain.Field{Name: "url", Kind: domain.KindString},
			siteRel,
		),
		mustType(t, "Category",
			domain.Field{Name: "code", Kind: domain.KindString},
			domain.Field{Name: "name", Kind: domain.KindLocalized},
			domain.Field{Name: "parent", Kind: domain.KindRelation, Target: "Category"},
			siteRel,
		),
		mustType(t, "Product",
			domain.Field{Name: "code", Kind: domain.KindString},
			domain.Field{Name: "price", Kind: domain.KindDecimal},
			domain.Field{Name: "stock", Kind: domain.KindInt},
			domain.Field{Name: "tags", Kind: domain.KindList, Elem: domain.KindString},
			domain.Field{Name: "status", Kind: domain.KindEnum, EnumValues: []string{"ACTIVE", "INACTIVE"}},
			domain.Field{Name: "categories", Kind: domain.KindRelationSet, Target: "Category"},
			domain.Field{Name: "images", Kind: domain.KindRelationList, Target: "Media"},
			domain.Field{Name: "thumbnail", Kind: domain.KindRelation, Target: "Media"},
			siteRel,
		),
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := reg.Validate(); err != nil {
		t.Fatalf("validate registry: %v", err)
	}
	return reg
}

// seed saves an entity built from values and returns it.
func seed(t *testing.T, store *memory.EntityStore, typeName string, values map[string]any) *domain.Entity {
	t.Helper()
	e := domain.NewEntity(typeName)
	for k, v := range values {
		e.Set(k, v)
	}
	if err := store.SaveAll(context.Background(), []*domain.Entity{e}); err != nil {
		t.Fatalf("seed %s: %v", typeName, err)
	}
	return e
}

func findByCode(t *testing.T, store *memory.EntityStore, typeName, code string) *domain.Entity {
	t.Helper()
	for _, e := range store.All(typeName) {
		if v, _ := e.Get("code"); v == code {
			return e
		}
	}
	t.Fatalf("%s %s not found", typeName, code)
	return nil
}

type siteLookup struct {
	store *memory.EntityStore
	reg   *domain.Registry
}

func (s siteLookup) GetByCode(ctx context.Context, code string) (*domain.Entity, error) {
	t, _ := s.reg.Lookup(domain.SiteTypeName)
	return s.store.SearchOne(ctx, t, domain.Criteria{"code": code})
}

func (s siteLookup) GetByDomain(ctx context.Context, host string) (*domain.Entity, error) {
	t, _ := s.reg.Lookup(domain.SiteTypeName)
	return s.store.SearchOne(ctx, t, domain.Criteria{"domain": host})
}

// failingStore fails SaveAll with err and delegates everything else.
type failingStore struct {
	*memory.EntityStore
	err error
}

func (f failingStore) SaveAll(ctx context.Context, entities []*domain.Entity) error {
	return f.err
}

var errBoom = errors.New("boom")

type fixture struct {
	reg   *domain.Registry
	store *memory.EntityStore
	jobs  *memory.JobRepository
	rows  *app.RowImporter
	site  *domain.Entity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := testRegistry(t)
	store := memory.NewEntityStore(reg)
	site := seed(t, store, "Site", map[string]any{"code": "ACME", "domain": "acme.test", "language": "de"})
	return &fixture{
		reg:   reg,
		store: store,
		jobs:  memory.NewJobRepository(),
		rows:  app.NewRowImporter(store, reg, language.English, testLogger()),
		site:  site,
	}
}
