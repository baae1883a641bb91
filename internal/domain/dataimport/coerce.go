package dataimport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sosodev/duration"
	"golang.org/x/text/language"
)

// DateLayouts are tried in order; the first strict match wins.
var DateLayouts = []string{
	"02.01.2006",
	"02012006",
	"20060102",
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"20060102150405",
	"20060102 15:04:05",
}

var trueValues = map[string]struct{}{
	"true": {},
	"yes":  {},
	"on":   {},
	"y":    {},
	"t":    {},
}

// Coerce converts a raw cell into the value representation of f.
// A nil result means the field has no value. existing is the current value
// and is only consulted for collections and localized fields.
func Coerce(f Field, raw string, mode MergeMode, existing any, locale language.Tag) (any, error) {
	raw = strings.TrimSpace(raw)

	switch f.Kind {
	case KindBool:
		_, ok := trueValues[strings.ToLower(raw)]
		return ok, nil
	case KindLocalized:
		return coerceLocalized(raw, existing, locale), nil
	case KindList, KindSet:
		return coerceCollection(f, raw, mode, existing)
	case KindRelation, KindRelationList, KindRelationSet:
		return nil, fmt.Errorf("field %s is a relation and can not be coerced from text", f.Name)
	}

	if raw == "" {
		return nil, nil
	}

	switch f.Kind {
	case KindString:
		return raw, nil
	case KindEnum:
		for _, v := range f.EnumValues {
			if strings.EqualFold(v, raw) {
				return v, nil
			}
		}
		return nil, &UnknownEnumValueError{Field: f.Name, Value: raw}
	case KindDate:
		return ParseDate(f.Name, raw)
	case KindDuration:
		d, err := duration.Parse(raw)
		if err != nil {
			return nil, &FormatError{Header: f.Name, Value: raw, Reason: "invalid ISO-8601 duration"}
		}
		return d.ToTimeDuration(), nil
	case KindDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, &CoercionError{Field: f.Name, Value: raw, Kind: KindDecimal, Err: err}
		}
		return d, nil
	case KindInt, KindLong, KindFloat, KindDouble:
		v, err := parseNumber(f.Kind, raw)
		if err != nil {
			return zeroNumber(f.Kind), nil
		}
		return v, nil
	}

	return nil, fmt.Errorf("field %s has unsupported kind %q", f.Name, f.Kind)
}

// ParseDate tries DateLayouts in order and returns the first match in UTC.
func ParseDate(field, raw string) (time.Time, error) {
	for _, layout := range DateLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateFormatError{Field: field, Value: raw}
}

func parseNumber(kind Kind, raw string) (any, error) {
	switch kind {
	case KindInt:
		v, err := strconv.ParseInt(raw, 10, 32)
		return int32(v), err
	case KindLong:
		v, err := strconv.ParseInt(raw, 10, 64)
		return v, err
	case KindFloat:
		v, err := strconv.ParseFloat(raw, 32)
		return float32(v), err
	case KindDouble:
		v, err := strconv.ParseFloat(raw, 64)
		return v, err
	case KindDecimal:
		return decimal.NewFromString(raw)
	case KindString:
		return raw, nil
	}
	return nil, fmt.Errorf("unsupported element kind %q", kind)
}

func zeroNumber(kind Kind) any {
	switch kind {
	case KindInt:
		return int32(0)
	case KindLong:
		return int64(0)
	case KindFloat:
		return float32(0)
	default:
		return float64(0)
	}
}

func coerceLocalized(raw string, existing any, locale language.Tag) any {
	current, _ := existing.(Localized)
	if raw == "" {
		if len(current) == 0 {
			return nil
		}
		out := current.clone()
		delete(out, locale.String())
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return current.With(locale, raw)
}

// coerceCollection keeps element order stable. MERGE appends new elements after
// the existing ones; OVERRIDE keeps only the new elements. Both drop duplicates.
func coerceCollection(f Field, raw string, mode MergeMode, existing any) (any, error) {
	var incoming []any
	for _, part := range strings.Split(raw, referenceSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := parseNumber(f.Elem, part)
		if err != nil {
			return nil, &CoercionError{Field: f.Name, Value: part, Kind: f.Elem, Err: err}
		}
		incoming = append(incoming, v)
	}

	var out []any
	seen := make(map[string]struct{})
	if mode != ModeOverride {
		current, _ := existing.([]any)
		for _, v := range current {
			key := criterionString(v)
			if _, dup := seen[key]; dup && f.Kind == KindSet {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range incoming {
		key := criterionString(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
