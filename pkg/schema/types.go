package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Type validates the value of one field.
type Type interface {
	Name() string
	Validate(value any) error
}

type basic struct {
	name  string
	check func(any) bool
}

func (t basic) Name() string { return t.name }

func (t basic) Validate(value any) error {
	if !t.check(value) {
		return fmt.Errorf("expected %s, got %T", t.name, value)
	}
	return nil
}

// String accepts strings.
func String() Type {
	return basic{"string", func(v any) bool { _, ok := v.(string); return ok }}
}

// Bool accepts booleans.
func Bool() Type {
	return basic{"bool", func(v any) bool { _, ok := v.(bool); return ok }}
}

// Int accepts integers, and whole floats or json.Numbers.
func Int() Type {
	return basic{"int", func(v any) bool {
		switch n := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return n == math.Trunc(n)
		case json.Number:
			_, err := n.Int64()
			return err == nil
		}
		return false
	}}
}

// Float accepts any number.
func Float() Type {
	return basic{"float", func(v any) bool {
		switch n := v.(type) {
		case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case json.Number:
			_, err := n.Float64()
			return err == nil
		}
		return false
	}}
}

// Any accepts every value, nil included.
func Any() Type {
	return basic{"any", func(any) bool { return true }}
}

type slice struct{ elem Type }

// Slice accepts slices and arrays whose elements all satisfy elem.
func Slice(elem Type) Type { return slice{elem} }

func (t slice) Name() string { return "[" + t.elem.Name() + "]" }

func (t slice) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected %s, got %T", t.Name(), value)
	}
	for i := range rv.Len() {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type custom struct {
	name     string
	validate func(any) error
}

// Custom creates a named type checked by validate.
func Custom(name string, validate func(any) error) Type { return custom{name, validate} }

func (t custom) Name() string             { return t.name }
func (t custom) Validate(value any) error { return t.validate(value) }

// ParseType parses "string", "int", "float", "bool", "any" or a bracketed
// slice of those such as "[int]".
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if elem, ok := strings.CutPrefix(s, "["); ok {
		if elem, ok = strings.CutSuffix(elem, "]"); ok && elem != "" {
			t, err := ParseType(elem)
			if err != nil {
				return nil, err
			}
			return Slice(t), nil
		}
	}
	switch s {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "any":
		return Any(), nil
	}
	return nil, fmt.Errorf("unsupported type: %s", s)
}
