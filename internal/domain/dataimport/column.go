package dataimport

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	referenceSeparator = ";"
	keySeparator       = ":"
	nullLiteral        = "null"

	// CommentColumn is a reserved CSV column that never reaches the importer.
	CommentColumn = "csv-comment-line"
)

type MergeMode string

const (
	ModeMerge    MergeMode = "MERGE"
	ModeOverride MergeMode = "OVERRIDE"
)

// Relation describes the key tuple of a relation-shaped header, e.g. site(code).
type Relation struct {
	Name string
	Keys []string
}

// FieldDescriptor is the parsed form of one column header.
type FieldDescriptor struct {
	Header   string
	BaseName string
	Unique   bool
	Relation *Relation
	Mode     MergeMode
	Locale   *language.Tag
}

func (d FieldDescriptor) IsRelation() bool {
	return d.Relation != nil
}

// KeyTuple maps relation key names to the raw values of one reference.
type KeyTuple map[string]string

// IsNull reports whether any component is empty or the null literal.
func (t KeyTuple) IsNull() bool {
	for _, v := range t {
		if isNullValue(v) {
			return true
		}
	}
	return false
}

// ParseColumn parses a header such as "site(code)[unique]" or "tags[mode=override]".
func ParseColumn(header string) (FieldDescriptor, error) {
	desc := FieldDescriptor{Header: header, Mode: ModeMerge}

	rest := strings.TrimSpace(header)
	bracket := strings.Index(rest, "[")
	modifiers := ""
	if bracket >= 0 {
		modifiers = rest[bracket:]
		rest = rest[:bracket]
	}

	if open := strings.Index(rest, "("); open >= 0 {
		if !strings.HasSuffix(rest, ")") || strings.Count(rest, "(") != 1 || strings.Count(rest, ")") != 1 {
			return FieldDescriptor{}, formatErrorf(header, "unbalanced relation keys")
		}
		keys := strings.Split(rest[open+1:len(rest)-1], keySeparator)
		for i, key := range keys {
			keys[i] = strings.TrimSpace(key)
			if keys[i] == "" {
				return FieldDescriptor{}, formatErrorf(header, "empty relation key")
			}
		}
		rest = rest[:open]
		desc.Relation = &Relation{Keys: keys}
	} else if strings.Contains(rest, ")") {
		return FieldDescriptor{}, formatErrorf(header, "unbalanced relation keys")
	}

	desc.BaseName = strings.TrimSpace(rest)
	if desc.BaseName == "" {
		return FieldDescriptor{}, formatErrorf(header, "empty field name")
	}
	if desc.Relation != nil {
		desc.Relation.Name = desc.BaseName
	}

	for modifiers != "" {
		if modifiers[0] != '[' {
			return FieldDescriptor{}, formatErrorf(header, "unexpected text %q after modifiers", modifiers)
		}
		end := strings.Index(modifiers, "]")
		if end < 0 {
			return FieldDescriptor{}, formatErrorf(header, "unclosed modifier")
		}
		if err := desc.applyModifier(strings.TrimSpace(modifiers[1:end])); err != nil {
			return FieldDescriptor{}, err
		}
		modifiers = strings.TrimSpace(modifiers[end+1:])
	}

	return desc, nil
}

func (d *FieldDescriptor) applyModifier(modifier string) error {
	name, value, hasValue := strings.Cut(modifier, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	value = strings.TrimSpace(value)

	switch {
	case name == "unique" && !hasValue:
		d.Unique = true
	case name == "mode" && hasValue:
		switch MergeMode(strings.ToUpper(value)) {
		case ModeMerge:
			d.Mode = ModeMerge
		case ModeOverride:
			d.Mode = ModeOverride
		default:
			return formatErrorf(d.Header, "unknown merge mode %q", value)
		}
	case name == "lang" && hasValue:
		tag, err := language.Parse(value)
		if err != nil {
			return formatErrorf(d.Header, "invalid locale %q", value)
		}
		d.Locale = &tag
	case name == "":
		return formatErrorf(d.Header, "empty modifier")
	default:
		return formatErrorf(d.Header, "unknown modifier %q", modifier)
	}
	return nil
}

// ParseReferences splits a relation cell into key tuples. Null references are
// returned as null tuples without an arity check.
func ParseReferences(desc FieldDescriptor, cell string) ([]KeyTuple, error) {
	if desc.Relation == nil {
		return nil, formatErrorf(desc.Header, "not a relation column")
	}
	if isNullValue(cell) {
		return nil, nil
	}

	keys := desc.Relation.Keys
	var tuples []KeyTuple
	for _, ref := range strings.Split(cell, referenceSeparator) {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		tuple := make(KeyTuple, len(keys))
		if strings.EqualFold(ref, nullLiteral) {
			for _, key := range keys {
				tuple[key] = ""
			}
			tuples = append(tuples, tuple)
			continue
		}

		parts := strings.Split(ref, keySeparator)
		if len(parts) != len(keys) {
			return nil, &FormatError{
				Header: desc.Header,
				Value:  ref,
				Reason: fmt.Sprintf("parameter count can not be matched: expected %d, got %d", len(keys), len(parts)),
			}
		}
		for i, key := range keys {
			tuple[key] = strings.TrimSpace(parts[i])
		}
		tuples = append(tuples, tuple)
	}
	return tuples, nil
}

// StripModifiers returns the header without its bracket modifiers.
func StripModifiers(header string) string {
	if i := strings.Index(header, "["); i >= 0 {
		return strings.TrimSpace(header[:i])
	}
	return strings.TrimSpace(header)
}

func isNullValue(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, nullLiteral)
}

func formatErrorf(header, format string, args ...any) *FormatError {
	return &FormatError{Header: header, Reason: fmt.Sprintf(format, args...)}
}
