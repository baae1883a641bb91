package dataimport

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Row is one input record: column header to raw cell value.
type Row map[string]string

// Trimmed returns a copy with every cell trimmed.
func (r Row) Trimmed() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// JSON renders the row with sorted keys for log and error messages.
func (r Row) JSON() string {
	if r == nil {
		return ""
	}
	b, err := json.Marshal(map[string]string(r))
	if err != nil {
		return ""
	}
	return string(b)
}

// Entity is an addressable record with typed values keyed by field name.
// A stub carries only its identity and is hydrated by EntityStore.FetchRelations.
type Entity struct {
	ID     string
	Type   string
	Values map[string]any

	stub bool
}

func NewEntity(typeName string) *Entity {
	return &Entity{
		ID:     uuid.NewString(),
		Type:   typeName,
		Values: make(map[string]any),
	}
}

// Ref builds a stub reference to a stored entity.
func Ref(typeName, id string) *Entity {
	return &Entity{ID: id, Type: typeName, stub: true}
}

func (e *Entity) IsStub() bool {
	return e.stub
}

func (e *Entity) Get(field string) (any, bool) {
	if e.Values == nil {
		return nil, false
	}
	v, ok := e.Values[field]
	return v, ok
}

// Set stores v; a nil value clears the field.
func (e *Entity) Set(field string, v any) {
	if e.Values == nil {
		e.Values = make(map[string]any)
	}
	if v == nil {
		delete(e.Values, field)
		return
	}
	e.Values[field] = v
}

// String returns the entity's code when it has one, otherwise its id.
func (e *Entity) String() string {
	if code, ok := e.Values["code"].(string); ok && code != "" {
		return code
	}
	return e.ID
}

// Clone copies the entity. Related entities are reduced to stubs so the copy
// never shares mutable state with the original.
func (e *Entity) Clone() *Entity {
	out := &Entity{ID: e.ID, Type: e.Type, stub: e.stub}
	if e.Values == nil {
		return out
	}
	out.Values = make(map[string]any, len(e.Values))
	for k, v := range e.Values {
		out.Values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Entity:
		return Ref(t.Type, t.ID)
	case []*Entity:
		refs := make([]*Entity, len(t))
		for i, rel := range t {
			refs[i] = Ref(rel.Type, rel.ID)
		}
		return refs
	case []any:
		return append([]any(nil), t...)
	case Localized:
		return t.clone()
	default:
		return v
	}
}

// Localized holds one string per language tag.
type Localized map[string]string

// With returns a copy of l with the value for tag replaced.
func (l Localized) With(tag language.Tag, value string) Localized {
	out := l.clone()
	out[tag.String()] = value
	return out
}

func (l Localized) Value(tag language.Tag) string {
	return l[tag.String()]
}

func (l Localized) clone() Localized {
	out := make(Localized, len(l)+1)
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Criteria is a set of field matches combined with AND. A nil value matches an absent field.
type Criteria map[string]any

// Key renders the criteria deterministically; it identifies a lookup inside one batch.
func (c Criteria) Key() string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(criterionString(c[name]))
	}
	return b.String()
}

func (c Criteria) String() string {
	return "{" + c.Key() + "}"
}

func criterionString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case *Entity:
		return t.Type + "#" + t.ID
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case decimal.Decimal:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
