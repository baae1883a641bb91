package dataimport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Document is the JSON form of an entity's values as stored by persistent adapters.
type Document map[string]any

// EncodeValue converts a typed value into its document form. Relations are
// stored by id; decimals and dates as strings so they compare exactly.
func EncodeValue(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Kind {
	case KindRelation:
		rel, ok := v.(*Entity)
		if !ok {
			return nil, encodeErr(f, v)
		}
		return rel.ID, nil
	case KindRelationList, KindRelationSet:
		rels, ok := v.([]*Entity)
		if !ok {
			return nil, encodeErr(f, v)
		}
		ids := make([]any, len(rels))
		for i, rel := range rels {
			ids[i] = rel.ID
		}
		return ids, nil
	case KindList, KindSet:
		elems, ok := v.([]any)
		if !ok {
			return nil, encodeErr(f, v)
		}
		out := make([]any, len(elems))
		for i, elem := range elems {
			enc, err := encodeScalar(Field{Name: f.Name, Kind: f.Elem}, elem)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case KindLocalized:
		l, ok := v.(Localized)
		if !ok {
			return nil, encodeErr(f, v)
		}
		out := make(map[string]any, len(l))
		for tag, s := range l {
			out[tag] = s
		}
		return out, nil
	}
	return encodeScalar(f, v)
}

func encodeScalar(f Field, v any) (any, error) {
	switch t := v.(type) {
	case string, bool, int32, int64, float32, float64:
		return t, nil
	case decimal.Decimal:
		return t.String(), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case time.Duration:
		return int64(t), nil
	}
	return nil, encodeErr(f, v)
}

func encodeErr(f Field, v any) error {
	return fmt.Errorf("field %s of kind %s can not hold %T", f.Name, f.Kind, v)
}

// DecodeValue reverses EncodeValue. Numbers may arrive as float64 or json.Number.
// Relations come back as stubs.
func DecodeValue(f Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch f.Kind {
	case KindRelation:
		id, ok := raw.(string)
		if !ok {
			return nil, decodeErr(f, raw)
		}
		return Ref(f.Target, id), nil
	case KindRelationList, KindRelationSet:
		items, ok := raw.([]any)
		if !ok {
			return nil, decodeErr(f, raw)
		}
		rels := make([]*Entity, 0, len(items))
		for _, item := range items {
			id, ok := item.(string)
			if !ok {
				return nil, decodeErr(f, raw)
			}
			rels = append(rels, Ref(f.Target, id))
		}
		return rels, nil
	case KindList, KindSet:
		items, ok := raw.([]any)
		if !ok {
			return nil, decodeErr(f, raw)
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := decodeScalar(Field{Name: f.Name, Kind: f.Elem}, item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case KindLocalized:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, decodeErr(f, raw)
		}
		out := make(Localized, len(m))
		for tag, v := range m {
			s, ok := v.(string)
			if !ok {
				return nil, decodeErr(f, raw)
			}
			out[tag] = s
		}
		return out, nil
	}
	return decodeScalar(f, raw)
}

func decodeScalar(f Field, raw any) (any, error) {
	switch f.Kind {
	case KindString, KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, decodeErr(f, raw)
		}
		return s, nil
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, decodeErr(f, raw)
		}
		return b, nil
	case KindDecimal:
		s, ok := raw.(string)
		if !ok {
			return nil, decodeErr(f, raw)
		}
		return decimal.NewFromString(s)
	case KindDate:
		s, ok := raw.(string)
		if !ok {
			return nil, decodeErr(f, raw)
		}
		return time.Parse(time.RFC3339Nano, s)
	case KindInt, KindLong, KindFloat, KindDouble, KindDuration:
		return decodeNumber(f, raw)
	}
	return nil, decodeErr(f, raw)
}

func decodeNumber(f Field, raw any) (any, error) {
	var (
		i   int64
		fl  float64
		err error
	)
	switch n := raw.(type) {
	case json.Number:
		fl, err = n.Float64()
		if err != nil {
			return nil, decodeErr(f, raw)
		}
		if i, err = n.Int64(); err != nil {
			i = int64(fl)
		}
	case float64:
		fl, i = n, int64(n)
	case int64:
		fl, i = float64(n), n
	case int32:
		fl, i = float64(n), int64(n)
	case float32:
		fl, i = float64(n), int64(n)
	default:
		return nil, decodeErr(f, raw)
	}

	switch f.Kind {
	case KindInt:
		return int32(i), nil
	case KindLong:
		return i, nil
	case KindFloat:
		return float32(fl), nil
	case KindDuration:
		return time.Duration(i), nil
	}
	return fl, nil
}

func decodeErr(f Field, raw any) error {
	return fmt.Errorf("stored value %v (%T) does not match field %s of kind %s", raw, raw, f.Name, f.Kind)
}

// EncodeEntity converts all known fields of e into a document.
func EncodeEntity(t *EntityType, e *Entity) (Document, error) {
	doc := make(Document, len(e.Values))
	for name, v := range e.Values {
		f, err := t.Field(name)
		if err != nil {
			return nil, err
		}
		enc, err := EncodeValue(f, v)
		if err != nil {
			return nil, err
		}
		if enc != nil {
			doc[name] = enc
		}
	}
	return doc, nil
}

// DecodeEntity builds an entity from its stored document. Unknown keys are ignored
// so that removing a field from the schema does not break reads.
func DecodeEntity(t *EntityType, id string, doc Document) (*Entity, error) {
	e := &Entity{ID: id, Type: t.Name, Values: make(map[string]any, len(doc))}
	for name, raw := range doc {
		f, err := t.Field(name)
		if err != nil {
			continue
		}
		v, err := DecodeValue(f, raw)
		if err != nil {
			return nil, err
		}
		e.Set(name, v)
	}
	return e, nil
}

// MatchValue reports whether a stored value equals a criterion value for field f.
// A nil criterion matches an absent value.
func MatchValue(f Field, stored, criterion any) bool {
	if criterion == nil {
		return stored == nil
	}
	if stored == nil {
		return false
	}
	a, err := EncodeValue(f, stored)
	if err != nil {
		return false
	}
	b, err := EncodeValue(f, criterion)
	if err != nil {
		return false
	}
	return canonicalJSON(a) == canonicalJSON(b)
}

func canonicalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
