package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

// EntityStore keeps entities in memory. It hands out copies, so changes made
// by a caller are only visible after SaveAll.
type EntityStore struct {
	registry *domain.Registry

	mu      sync.RWMutex
	records map[string]*domain.Entity
}

func NewEntityStore(registry *domain.Registry) *EntityStore {
	return &EntityStore{
		registry: registry,
		records:  make(map[string]*domain.Entity),
	}
}

func (s *EntityStore) Create(t *domain.EntityType) *domain.Entity {
	return domain.NewEntity(t.Name)
}

func (s *EntityStore) SearchOne(ctx context.Context, t *domain.EntityType, criteria domain.Criteria) (*domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields := make(map[string]domain.Field, len(criteria))
	for name := range criteria {
		f, err := t.Field(name)
		if err != nil {
			return nil, err
		}
		fields[name] = f
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *domain.Entity
	for _, rec := range s.records {
		if rec.Type != t.Name || !matches(rec, fields, criteria) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s %s", domain.ErrAmbiguous, t.Name, criteria)
		}
		match = rec
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, t.Name, criteria)
	}
	return match.Clone(), nil
}

func matches(rec *domain.Entity, fields map[string]domain.Field, criteria domain.Criteria) bool {
	for name, want := range criteria {
		got, _ := rec.Get(name)
		if !domain.MatchValue(fields[name], got, want) {
			return false
		}
	}
	return true
}

func (s *EntityStore) FetchRelations(ctx context.Context, e *domain.Entity, names []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := s.registry.Lookup(e.Type)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range names {
		f, err := t.Field(name)
		if err != nil {
			return err
		}
		if !f.Kind.IsRelation() {
			continue
		}
		switch v := e.Values[name].(type) {
		case *domain.Entity:
			e.Set(name, s.hydrate(v))
		case []*domain.Entity:
			out := make([]*domain.Entity, len(v))
			for i, rel := range v {
				out[i] = s.hydrate(rel)
			}
			e.Set(name, out)
		}
	}
	return nil
}

// hydrate swaps a stub for a copy of the stored entity. Unknown ids stay stubs.
func (s *EntityStore) hydrate(rel *domain.Entity) *domain.Entity {
	if !rel.IsStub() {
		return rel
	}
	if rec, ok := s.records[rel.ID]; ok {
		return rec.Clone()
	}
	return rel
}

// SaveAll validates every entity before storing any of them.
func (s *EntityStore) SaveAll(ctx context.Context, entities []*domain.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, e := range entities {
		t, err := s.registry.Lookup(e.Type)
		if err != nil {
			return err
		}
		if _, err := domain.EncodeEntity(t, e); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		s.records[e.ID] = e.Clone()
	}
	return nil
}

func (s *EntityStore) RemoveAll(ctx context.Context, entities []*domain.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		delete(s.records, e.ID)
	}
	return nil
}

// All returns copies of the stored entities of one type, ordered by id.
func (s *EntityStore) All(typeName string) []*domain.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Entity
	for _, rec := range s.records {
		if rec.Type == typeName {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *EntityStore) Get(id string) (*domain.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}
