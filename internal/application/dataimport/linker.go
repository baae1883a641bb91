package dataimport

import (
	"context"
	"sort"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

// column is one header of a row with its parsed descriptor and trimmed cell.
type column struct {
	desc  domain.FieldDescriptor
	value string
}

// parseColumns parses the headers of a row in a stable order. Parsed
// descriptors are shared through cache across the rows of a batch.
func parseColumns(row domain.Row, cache map[string]domain.FieldDescriptor) ([]column, error) {
	headers := make([]string, 0, len(row))
	for h := range row {
		if h == domain.CommentColumn {
			continue
		}
		headers = append(headers, h)
	}
	sort.Strings(headers)

	columns := make([]column, 0, len(headers))
	for _, h := range headers {
		desc, ok := cache[h]
		if !ok {
			var err error
			desc, err = domain.ParseColumn(h)
			if err != nil {
				return nil, err
			}
			cache[h] = desc
		}
		columns = append(columns, column{desc: desc, value: row[h]})
	}
	return columns, nil
}

type linker struct {
	res   *resolver
	store domain.EntityStore
}

// link applies the non-unique columns of a row to e: relations first, then plain fields.
func (l *linker) link(ctx context.Context, t *domain.EntityType, e *domain.Entity, existed bool, columns []column) error {
	var relations, plain []column
	for _, col := range columns {
		if col.desc.Unique {
			continue
		}
		if col.desc.IsRelation() {
			relations = append(relations, col)
		} else {
			plain = append(plain, col)
		}
	}

	if existed && len(relations) > 0 {
		names := make([]string, 0, len(relations))
		for _, col := range relations {
			names = append(names, col.desc.BaseName)
		}
		if err := l.store.FetchRelations(ctx, e, names); err != nil {
			return &domain.ResolutionError{Type: t.Name, Criteria: e.ID, Err: err}
		}
	}

	for _, col := range relations {
		if err := l.linkRelation(ctx, t, e, col); err != nil {
			return err
		}
	}

	for _, col := range plain {
		f, err := t.Field(col.desc.BaseName)
		if err != nil {
			return err
		}
		if f.Kind.IsRelation() {
			return &domain.FormatError{Header: col.desc.Header, Reason: "relation field " + f.Name + " needs key columns"}
		}
		current, _ := e.Get(f.Name)
		v, err := domain.Coerce(f, col.value, col.desc.Mode, current, l.res.localeFor(col.desc))
		if err != nil {
			return err
		}
		e.Set(f.Name, v)
	}
	return nil
}

func (l *linker) linkRelation(ctx context.Context, t *domain.EntityType, e *domain.Entity, col column) error {
	f, err := t.Field(col.desc.BaseName)
	if err != nil {
		return err
	}
	if !f.Kind.IsRelation() {
		return &domain.FormatError{Header: col.desc.Header, Reason: "field " + f.Name + " is not a relation"}
	}

	tuples, err := domain.ParseReferences(col.desc, col.value)
	if err != nil {
		return err
	}
	refs := tuples[:0]
	for _, tuple := range tuples {
		if !tuple.IsNull() {
			refs = append(refs, tuple)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	target, err := l.res.registry.Lookup(f.Target)
	if err != nil {
		return err
	}

	if f.Kind == domain.KindRelation {
		if len(refs) > 1 {
			return &domain.FormatError{Header: col.desc.Header, Value: col.value, Reason: "single relation accepts one reference"}
		}
		related, err := l.res.findRelated(ctx, target, refs[0])
		if err != nil {
			return err
		}
		e.Set(f.Name, related)
		return nil
	}

	var collection []*domain.Entity
	if col.desc.Mode != domain.ModeOverride {
		current, _ := e.Get(f.Name)
		existing, _ := current.([]*domain.Entity)
		collection = append(collection, existing...)
	}
	for _, tuple := range refs {
		related, err := l.res.findRelated(ctx, target, tuple)
		if err != nil {
			return err
		}
		collection = appendRelated(collection, related, f.Kind.IsSetLike() || col.desc.Mode != domain.ModeOverride)
	}
	e.Set(f.Name, collection)
	return nil
}

// appendRelated adds rel to the collection. With unique set, an entity with
// the same identity already present is not added again.
func appendRelated(collection []*domain.Entity, rel *domain.Entity, unique bool) []*domain.Entity {
	if unique {
		for _, existing := range collection {
			if existing.ID == rel.ID {
				return collection
			}
		}
	}
	return append(collection, rel)
}
