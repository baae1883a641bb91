package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

// EntitySchemaSQL creates the document table used by EntityRepository.
const EntitySchemaSQL = `
CREATE TABLE IF NOT EXISTS entities (
  id UUID PRIMARY KEY,
  type_name TEXT NOT NULL,
  document JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_entities_type_name ON entities (type_name);
CREATE INDEX IF NOT EXISTS idx_entities_document ON entities USING GIN (document jsonb_path_ops);
`

// EntityRepository stores entities as JSONB documents keyed by id.
type EntityRepository struct {
	pool     *pgxpool.Pool
	registry *domain.Registry
}

func NewEntityRepository(pool *pgxpool.Pool, registry *domain.Registry) *EntityRepository {
	return &EntityRepository{pool: pool, registry: registry}
}

func (r *EntityRepository) Create(t *domain.EntityType) *domain.Entity {
	return domain.NewEntity(t.Name)
}

// SearchOne matches present criteria by document containment and nil criteria
// by key absence.
func (r *EntityRepository) SearchOne(ctx context.Context, t *domain.EntityType, criteria domain.Criteria) (*domain.Entity, error) {
	contains := make(map[string]any, len(criteria))
	args := []any{t.Name}
	where := []string{"type_name = $1"}

	for name, value := range criteria {
		f, err := t.Field(name)
		if err != nil {
			return nil, err
		}
		enc, err := domain.EncodeValue(f, value)
		if err != nil {
			return nil, err
		}
		if enc == nil {
			args = append(args, name)
			where = append(where, fmt.Sprintf("NOT (document ? $%d)", len(args)))
			continue
		}
		contains[name] = enc
	}
	if len(contains) > 0 {
		doc, err := json.Marshal(contains)
		if err != nil {
			return nil, fmt.Errorf("encode criteria: %w", err)
		}
		args = append(args, string(doc))
		where = append(where, fmt.Sprintf("document @> $%d::jsonb", len(args)))
	}

	rows, err := r.pool.Query(ctx,
		"SELECT id::text, document FROM entities WHERE "+strings.Join(where, " AND ")+" LIMIT 2",
		args...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", t.Name, err)
	}
	defer rows.Close()

	var found []*domain.Entity
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		e, err := decodeDocument(t, id, raw)
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search %s: %w", t.Name, err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, t.Name, criteria)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("%w: %s %s", domain.ErrAmbiguous, t.Name, criteria)
}

func (r *EntityRepository) FetchRelations(ctx context.Context, e *domain.Entity, names []string) error {
	t, err := r.registry.Lookup(e.Type)
	if err != nil {
		return err
	}

	var ids []string
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
			if v.IsStub() {
				ids = append(ids, v.ID)
			}
		case []*domain.Entity:
			for _, rel := range v {
				if rel.IsStub() {
					ids = append(ids, rel.ID)
				}
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	loaded, err := r.loadByIDs(ctx, ids)
	if err != nil {
		return err
	}
	hydrate := func(rel *domain.Entity) *domain.Entity {
		if full, ok := loaded[rel.ID]; ok && rel.IsStub() {
			return full
		}
		return rel
	}
	for _, name := range names {
		switch v := e.Values[name].(type) {
		case *domain.Entity:
			e.Set(name, hydrate(v))
		case []*domain.Entity:
			out := make([]*domain.Entity, len(v))
			for i, rel := range v {
				out[i] = hydrate(rel)
			}
			e.Set(name, out)
		}
	}
	return nil
}

func (r *EntityRepository) loadByIDs(ctx context.Context, ids []string) (map[string]*domain.Entity, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id::text, type_name, document FROM entities WHERE id = ANY($1::text[]::uuid[])",
		ids)
	if err != nil {
		return nil, fmt.Errorf("load related entities: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*domain.Entity, len(ids))
	for rows.Next() {
		var (
			id, typeName string
			raw          []byte
		)
		if err := rows.Scan(&id, &typeName, &raw); err != nil {
			return nil, fmt.Errorf("scan related entity: %w", err)
		}
		t, err := r.registry.Lookup(typeName)
		if err != nil {
			return nil, err
		}
		e, err := decodeDocument(t, id, raw)
		if err != nil {
			return nil, err
		}
		out[id] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load related entities: %w", err)
	}
	return out, nil
}

// SaveAll stages every document with COPY and upserts them in one transaction.
func (r *EntityRepository) SaveAll(ctx context.Context, entities []*domain.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	docRows := make([][]any, 0, len(entities))
	for i, e := range entities {
		t, err := r.registry.Lookup(e.Type)
		if err != nil {
			return err
		}
		doc, err := domain.EncodeEntity(t, e)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", e.Type, e.ID, err)
		}
		docRows = append(docRows, []any{int64(i), e.ID, t.Name, string(raw)})
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
CREATE TEMP TABLE stg_entities (
    row_index BIGINT NOT NULL,
    id TEXT NOT NULL,
    type_name TEXT NOT NULL,
    document TEXT NOT NULL
) ON COMMIT DROP
`); err != nil {
		return fmt.Errorf("create stg_entities: %w", err)
	}

	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"stg_entities"},
		[]string{"row_index", "id", "type_name", "document"},
		pgx.CopyFromRows(docRows),
	); err != nil {
		return fmt.Errorf("copy entities staging: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO entities (id, type_name, document, created_at, updated_at)
SELECT DISTINCT ON (id) id::uuid, type_name, document::jsonb, NOW(), NOW()
FROM stg_entities
ORDER BY id, row_index DESC
ON CONFLICT (id) DO UPDATE
  SET document = EXCLUDED.document,
      updated_at = NOW()
`); err != nil {
		return fmt.Errorf("upsert entities: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit entities: %w", err)
	}
	return nil
}

func (r *EntityRepository) RemoveAll(ctx context.Context, entities []*domain.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	if _, err := r.pool.Exec(ctx, "DELETE FROM entities WHERE id = ANY($1::text[]::uuid[])", ids); err != nil {
		return fmt.Errorf("remove entities: %w", err)
	}
	return nil
}

func decodeDocument(t *domain.EntityType, id string, raw []byte) (*domain.Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc domain.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", t.Name, id, err)
	}
	return domain.DecodeEntity(t, id, doc)
}
