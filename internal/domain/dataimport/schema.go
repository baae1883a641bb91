package dataimport

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// SiteTypeName is the tenant type. Its rows carry their own code instead of a site scope.
const (
	SiteTypeName  = "Site"
	SiteFieldName = "site"
)

type Kind string

const (
	KindString       Kind = "string"
	KindInt          Kind = "int"
	KindLong         Kind = "long"
	KindFloat        Kind = "float"
	KindDouble       Kind = "double"
	KindDecimal      Kind = "decimal"
	KindBool         Kind = "boolean"
	KindEnum         Kind = "enum"
	KindDate         Kind = "date"
	KindDuration     Kind = "duration"
	KindLocalized    Kind = "localized"
	KindList         Kind = "list"
	KindSet          Kind = "set"
	KindRelation     Kind = "relation"
	KindRelationList Kind = "relation-list"
	KindRelationSet  Kind = "relation-set"
)

func (k Kind) IsRelation() bool {
	return k == KindRelation || k == KindRelationList || k == KindRelationSet
}

func (k Kind) IsCollection() bool {
	return k == KindList || k == KindSet || k == KindRelationList || k == KindRelationSet
}

// IsSetLike reports whether the collection keeps unique elements.
func (k Kind) IsSetLike() bool {
	return k == KindSet || k == KindRelationSet
}

func (k Kind) isElement() bool {
	switch k {
	case KindString, KindInt, KindLong, KindFloat, KindDouble, KindDecimal:
		return true
	}
	return false
}

func (k Kind) valid() bool {
	switch k {
	case KindString, KindInt, KindLong, KindFloat, KindDouble, KindDecimal, KindBool, KindEnum,
		KindDate, KindDuration, KindLocalized, KindList, KindSet, KindRelation, KindRelationList, KindRelationSet:
		return true
	}
	return false
}

// Field is one entry of a type's field registry.
type Field struct {
	Name       string
	Kind       Kind
	Elem       Kind
	EnumValues []string
	Target     string
}

type EntityType struct {
	Name   string
	fields map[string]Field
}

func NewEntityType(name string, fields ...Field) (*EntityType, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("entity type name is required")
	}
	et := &EntityType{Name: name, fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if err := validateField(name, f); err != nil {
			return nil, err
		}
		if f.Kind == KindList || f.Kind == KindSet {
			if f.Elem == "" {
				f.Elem = KindString
			}
		}
		if _, dup := et.fields[f.Name]; dup {
			return nil, fmt.Errorf("type %s declares field %s twice", name, f.Name)
		}
		et.fields[f.Name] = f
	}
	return et, nil
}

func validateField(typeName string, f Field) error {
	if f.Name == "" {
		return fmt.Errorf("type %s has a field without name", typeName)
	}
	if !f.Kind.valid() {
		return fmt.Errorf("type %s field %s: unknown kind %q", typeName, f.Name, f.Kind)
	}
	if f.Kind.IsRelation() && f.Target == "" {
		return fmt.Errorf("type %s field %s: relation without target", typeName, f.Name)
	}
	if f.Kind == KindEnum && len(f.EnumValues) == 0 {
		return fmt.Errorf("type %s field %s: enum without values", typeName, f.Name)
	}
	if (f.Kind == KindList || f.Kind == KindSet) && f.Elem != "" && !f.Elem.isElement() {
		return fmt.Errorf("type %s field %s: unsupported element kind %q", typeName, f.Name, f.Elem)
	}
	return nil
}

func (t *EntityType) Field(name string) (Field, error) {
	f, ok := t.fields[name]
	if !ok {
		return Field{}, &UnknownFieldError{Type: t.Name, Field: name}
	}
	return f, nil
}

func (t *EntityType) HasField(name string) bool {
	_, ok := t.fields[name]
	return ok
}

func (t *EntityType) Fields() []Field {
	out := make([]Field, 0, len(t.fields))
	for _, f := range t.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (t *EntityType) IsSite() bool {
	return registryKey(t.Name) == registryKey(SiteTypeName)
}

// SiteScoped reports whether lookups of this type are restricted to the current site.
func (t *EntityType) SiteScoped() bool {
	if t.IsSite() {
		return false
	}
	f, ok := t.fields[SiteFieldName]
	return ok && f.Kind == KindRelation
}

// Registry maps canonical type names to entity types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*EntityType
}

func NewRegistry(types ...*EntityType) (*Registry, error) {
	r := &Registry{types: make(map[string]*EntityType)}
	for _, t := range types {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t *EntityType) error {
	key := registryKey(t.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[key]; dup {
		return fmt.Errorf("entity type %s registered twice", t.Name)
	}
	r.types[key] = t
	return nil
}

// Lookup accepts "Category", "category" and hyphenated names such as "cms-category".
func (r *Registry) Lookup(name string) (*EntityType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[registryKey(name)]
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	return t, nil
}

// Validate checks that every relation targets a registered type.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.types {
		for _, f := range t.fields {
			if !f.Kind.IsRelation() {
				continue
			}
			if _, ok := r.types[registryKey(f.Target)]; !ok {
				return fmt.Errorf("type %s field %s targets unknown type %s", t.Name, f.Name, f.Target)
			}
		}
	}
	return nil
}

// CanonicalTypeName turns "cms-category" into "CmsCategory".
func CanonicalTypeName(name string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == ' ' }) {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

func registryKey(name string) string {
	return strings.ToLower(CanonicalTypeName(strings.TrimSpace(name)))
}
