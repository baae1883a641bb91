package dataimport

import (
	"context"
	"errors"

	"golang.org/x/text/language"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

// relationKeyField is the lookup key used when a relation key is itself a relation.
const relationKeyField = "code"

// resolver finds or creates entities for one batch. Entities it hands out are
// cached by type and criteria so later rows see earlier, unsaved rows.
type resolver struct {
	store    domain.EntityStore
	registry *domain.Registry
	site     *domain.Entity
	locale   language.Tag

	byCriteria map[string]*domain.Entity
	byID       map[string]*domain.Entity
	existing   map[string]bool
}

func newResolver(store domain.EntityStore, registry *domain.Registry, site *domain.Entity, locale language.Tag) *resolver {
	return &resolver{
		store:      store,
		registry:   registry,
		site:       site,
		locale:     locale,
		byCriteria: make(map[string]*domain.Entity),
		byID:       make(map[string]*domain.Entity),
		existing:   make(map[string]bool),
	}
}

// resolveRow builds the unique criteria of a row and returns the matching
// entity. existed is false when a new instance was created.
func (r *resolver) resolveRow(ctx context.Context, t *domain.EntityType, columns []column) (*domain.Entity, bool, error) {
	criteria := domain.Criteria{}
	for _, col := range columns {
		if !col.desc.Unique {
			continue
		}
		f, err := t.Field(col.desc.BaseName)
		if err != nil {
			return nil, false, err
		}

		if col.desc.IsRelation() {
			if !f.Kind.IsRelation() {
				return nil, false, &domain.FormatError{Header: col.desc.Header, Reason: "field " + f.Name + " is not a relation"}
			}
			tuples, err := domain.ParseReferences(col.desc, col.value)
			if err != nil {
				return nil, false, err
			}
			if len(tuples) > 1 {
				return nil, false, &domain.FormatError{Header: col.desc.Header, Value: col.value, Reason: "unique relation must reference exactly one entity"}
			}
			if len(tuples) == 0 || tuples[0].IsNull() {
				criteria[f.Name] = nil
				continue
			}
			target, err := r.registry.Lookup(f.Target)
			if err != nil {
				return nil, false, err
			}
			related, err := r.findRelated(ctx, target, tuples[0])
			if err != nil {
				return nil, false, err
			}
			criteria[f.Name] = related
			continue
		}

		v, err := domain.Coerce(f, col.value, domain.ModeMerge, nil, r.localeFor(col.desc))
		if err != nil {
			return nil, false, err
		}
		criteria[f.Name] = v
	}

	r.scopeToSite(t, criteria)
	return r.lookup(ctx, t, criteria)
}

// lookup returns the cached or stored entity for criteria, creating one when none exists.
func (r *resolver) lookup(ctx context.Context, t *domain.EntityType, criteria domain.Criteria) (*domain.Entity, bool, error) {
	e, existed, err := r.lookupExisting(ctx, t, criteria)
	if err != nil || e != nil {
		return e, existed, err
	}

	e = r.store.Create(t)
	for name, v := range criteria {
		e.Set(name, v)
	}
	r.remember(cacheKey(t, criteria), e, false)
	return e, false, nil
}

// findRelated resolves a key tuple to an entity that must already exist,
// either in the store or earlier in this batch.
func (r *resolver) findRelated(ctx context.Context, target *domain.EntityType, tuple domain.KeyTuple) (*domain.Entity, error) {
	criteria := domain.Criteria{}
	for name, raw := range tuple {
		f, err := target.Field(name)
		if err != nil {
			return nil, err
		}
		if f.Kind == domain.KindRelation {
			nested, err := r.registry.Lookup(f.Target)
			if err != nil {
				return nil, err
			}
			ref, err := r.findRelated(ctx, nested, domain.KeyTuple{relationKeyField: raw})
			if err != nil {
				return nil, err
			}
			criteria[name] = ref
			continue
		}
		v, err := domain.Coerce(f, raw, domain.ModeMerge, nil, r.locale)
		if err != nil {
			return nil, err
		}
		criteria[name] = v
	}
	r.scopeToSite(target, criteria)

	e, _, err := r.lookupExisting(ctx, target, criteria)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &domain.ResolutionError{Type: target.Name, Criteria: criteria.String(), Err: domain.ErrNotFound}
	}
	return e, nil
}

// lookupExisting is lookup without the create fallback.
func (r *resolver) lookupExisting(ctx context.Context, t *domain.EntityType, criteria domain.Criteria) (*domain.Entity, bool, error) {
	key := cacheKey(t, criteria)
	if e, ok := r.byCriteria[key]; ok {
		return e, r.existing[e.ID], nil
	}

	found, err := r.store.SearchOne(ctx, t, criteria)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &domain.ResolutionError{Type: t.Name, Criteria: criteria.String(), Err: err}
	}
	if cached, ok := r.byID[found.ID]; ok {
		found = cached
	}
	r.remember(key, found, true)
	return found, true, nil
}

func (r *resolver) remember(key string, e *domain.Entity, existed bool) {
	r.byCriteria[key] = e
	r.byID[e.ID] = e
	if existed {
		r.existing[e.ID] = true
	}
}

func cacheKey(t *domain.EntityType, criteria domain.Criteria) string {
	return t.Name + "|" + criteria.Key()
}

func (r *resolver) scopeToSite(t *domain.EntityType, criteria domain.Criteria) {
	if r.site == nil || !t.SiteScoped() {
		return
	}
	if _, ok := criteria[domain.SiteFieldName]; ok {
		return
	}
	criteria[domain.SiteFieldName] = r.site
}

func (r *resolver) localeFor(desc domain.FieldDescriptor) language.Tag {
	if desc.Locale != nil {
		return *desc.Locale
	}
	return r.locale
}
