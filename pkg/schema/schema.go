package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Schema maps field names to their types. Every field is required.
type Schema map[string]Type

// ParseTypeMap builds a schema from type names, e.g. {"retries": "int"}.
func ParseTypeMap(types map[string]string) (Schema, error) {
	s := make(Schema, len(types))
	for field, name := range types {
		t, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		s[field] = t
	}
	return s, nil
}

// Fields returns the field names, sorted.
func (s Schema) Fields() []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// MarshalJSON writes the schema as field → type name.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	names := make(map[string]string, len(s))
	for f, t := range s {
		if t == nil {
			return nil, fmt.Errorf("field %s: type is nil", f)
		}
		names[f] = t.Name()
	}
	return json.Marshal(names)
}

// UnmarshalJSON reads a field → type name object.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	if names == nil {
		*s = nil
		return nil
	}
	parsed, err := ParseTypeMap(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FieldError is the failure of a single field.
type FieldError struct {
	Field  string
	Reason string
	Value  any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// AggregateError collects every field failure of one validation, ordered
// by field name.
type AggregateError struct {
	Errors []*FieldError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the field errors to errors.As.
func (e *AggregateError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe
	}
	return out
}

// Validate checks data against every field of s.
func Validate(s Schema, data map[string]any) error {
	return ValidateFields(s, data, s.Fields()...)
}

// ValidateFields checks only the named fields. A field missing from s is
// an error.
func ValidateFields(s Schema, data map[string]any, fields ...string) error {
	var errs []*FieldError
	for _, f := range fields {
		t, ok := s[f]
		if !ok {
			errs = append(errs, &FieldError{Field: f, Reason: "not defined in schema"})
			continue
		}
		v, ok := data[f]
		if !ok {
			errs = append(errs, &FieldError{Field: f, Reason: "required"})
			continue
		}
		if err := t.Validate(v); err != nil {
			errs = append(errs, &FieldError{Field: f, Reason: err.Error(), Value: v})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &AggregateError{Errors: errs}
}
