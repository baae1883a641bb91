package dataimport

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("entity not found")
	ErrAmbiguous        = errors.New("more than one entity matches")
	ErrInvalidProcess   = errors.New("process type must be Save, Remove or File")
	ErrInvalidFileName  = errors.New("invalid import file name")
	ErrSiteRequired     = errors.New("site reference is required")
	ErrSiteMismatch     = errors.New("site mismatch between rows")
	ErrJobNotFound      = errors.New("import job not found")
	ErrMediaUnavailable = errors.New("media source is not a readable file")
)

// SiteMismatchMessage is written to the job record and the error log when rows disagree on the site.
const SiteMismatchMessage = "Site field must be same for all rows"

// FormatError reports a malformed header, relation cell or duration.
type FormatError struct {
	Header string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("format error in column %q, value %q: %s", e.Header, e.Value, e.Reason)
	}
	return fmt.Sprintf("format error in column %q: %s", e.Header, e.Reason)
}

// CoercionError is a hard conversion failure for decimals and collection elements.
type CoercionError struct {
	Field string
	Value string
	Kind  Kind
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("can not convert %q to %s for field %s: %v", e.Value, e.Kind, e.Field, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

type UnknownEnumValueError struct {
	Field string
	Value string
}

func (e *UnknownEnumValueError) Error() string {
	return fmt.Sprintf("unknown value %q for enum field %s", e.Value, e.Field)
}

type DateFormatError struct {
	Field string
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("Given date %s is not valid for field %s", e.Value, e.Field)
}

type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown item type %q", e.Name)
}

type UnknownFieldError struct {
	Type  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field %s is not a field of %s", e.Field, e.Type)
}

// ValidationError is a cross-row failure such as a site mismatch.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ResolutionError wraps an ambiguous or failed entity lookup.
type ResolutionError struct {
	Type     string
	Criteria string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("can not resolve %s %s: %v", e.Type, e.Criteria, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
