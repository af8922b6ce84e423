package attr

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// Get returns the value for key as a T. Absent keys and nil values yield the zero T.
// A present value that is not a T fails with a *TypeMismatchError.
func Get[T any](m *Map, key string) (T, error) {
	var zero T
	v, err := m.GetOfType(key, typeOf[T]())
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}

// Required is like Get but fails with a *MissingAttributeError if the key is absent.
func Required[T any](m *Map, key string) (T, error) {
	var zero T
	v, err := m.GetRequiredOfType(key, typeOf[T]())
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// GetString returns the string bound to key ("" if absent).
func (m *Map) GetString(key string) (string, error) {
	return Get[string](m, key)
}

// GetStringOrDefault returns the string bound to key, or def if absent.
func (m *Map) GetStringOrDefault(key, def string) (string, error) {
	if !m.Contains(key) {
		return def, nil
	}
	return Get[string](m, key)
}

// RequiredString returns the string bound to key.
func (m *Map) RequiredString(key string) (string, error) {
	return Required[string](m, key)
}

// GetBool returns the bool bound to key (false if absent).
func (m *Map) GetBool(key string) (bool, error) {
	return Get[bool](m, key)
}

// RequiredBool returns the bool bound to key.
func (m *Map) RequiredBool(key string) (bool, error) {
	return Required[bool](m, key)
}

// GetInt returns the int bound to key (0 if absent).
func (m *Map) GetInt(key string) (int, error) {
	return Get[int](m, key)
}

// RequiredInt returns the int bound to key.
func (m *Map) RequiredInt(key string) (int, error) {
	return Required[int](m, key)
}

// GetInt64 returns the int64 bound to key (0 if absent).
func (m *Map) GetInt64(key string) (int64, error) {
	return Get[int64](m, key)
}

// RequiredInt64 returns the int64 bound to key.
func (m *Map) RequiredInt64(key string) (int64, error) {
	return Required[int64](m, key)
}

// GetFloat64 returns the float64 bound to key (0 if absent).
func (m *Map) GetFloat64(key string) (float64, error) {
	return Get[float64](m, key)
}

// RequiredFloat64 returns the float64 bound to key.
func (m *Map) RequiredFloat64(key string) (float64, error) {
	return Required[float64](m, key)
}

// GetNumber returns the value bound to key checked against the numeric type t.
func (m *Map) GetNumber(key string, t reflect.Type) (any, error) {
	if err := assertNumeric(t); err != nil {
		return nil, err
	}
	return m.GetOfType(key, t)
}

// RequiredNumber is like GetNumber but fails if key is absent.
func (m *Map) RequiredNumber(key string, t reflect.Type) (any, error) {
	if err := assertNumeric(t); err != nil {
		return nil, err
	}
	return m.GetRequiredOfType(key, t)
}

// GetCollection returns the slice or array bound to key as []any (nil if absent).
func (m *Map) GetCollection(key string) ([]any, error) {
	if !m.Contains(key) {
		return nil, nil
	}
	return m.collection(key)
}

// RequiredCollection is like GetCollection but fails if key is absent.
func (m *Map) RequiredCollection(key string) ([]any, error) {
	if err := m.AssertContains(key); err != nil {
		return nil, err
	}
	return m.collection(key)
}

// GetArray returns the value bound to key checked against the slice type t.
func (m *Map) GetArray(key string, t reflect.Type) (any, error) {
	if err := assertSlice(t); err != nil {
		return nil, err
	}
	return m.GetOfType(key, t)
}

// RequiredArray is like GetArray but fails if key is absent.
func (m *Map) RequiredArray(key string, t reflect.Type) (any, error) {
	if err := assertSlice(t); err != nil {
		return nil, err
	}
	return m.GetRequiredOfType(key, t)
}

func (m *Map) collection(key string) ([]any, error) {
	v := m.values[key]
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, &TypeMismatchError{Key: key, Value: v, Required: reflect.TypeOf([]any(nil))}
	}
	if items, ok := v.([]any); ok {
		return items, nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func assertNumeric(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	}
	return fmt.Errorf("attr: required type %s is not numeric", t)
}

func assertSlice(t reflect.Type) error {
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return fmt.Errorf("attr: required type %s is not a slice or array", t)
	}
	return nil
}

// convertNumber converts a number decoded from JSON (float64 or json.Number)
// to the numeric type t. Conversions that lose precision or overflow fail.
func convertNumber(v any, t reflect.Type) (any, bool) {
	if t == nil || assertNumeric(t) != nil {
		return nil, false
	}
	switch n := v.(type) {
	case float64:
		return fromFloat(n, t)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return fromInt(i, t)
		}
		f, err := n.Float64()
		if err != nil {
			return nil, false
		}
		return fromFloat(f, t)
	}
	return nil, false
}

func fromFloat(f float64, t reflect.Type) (any, bool) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		if out.OverflowFloat(f) {
			return nil, false
		}
		out.SetFloat(f)
		return out.Interface(), true
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return nil, false
	}
	return fromInt(int64(f), t)
}

func fromInt(i int64, t reflect.Type) (any, bool) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		out.SetFloat(float64(i))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i < 0 || out.OverflowUint(uint64(i)) {
			return nil, false
		}
		out.SetUint(uint64(i))
	default:
		if out.OverflowInt(i) {
			return nil, false
		}
		out.SetInt(i)
	}
	return out.Interface(), true
}
