package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Map is an ordered, string-keyed attribute container.
// It is the storage type for every scope (request, flash, flow, conversation),
// for flow and state attribute sets, and for event payloads.
//
// Read methods are safe to call on a nil *Map. Map is not safe for concurrent
// mutation; a single execution owns its scopes.
type Map struct {
	keys   []string
	values map[string]any
}

// New creates an empty map.
func New() *Map {
	return &Map{values: make(map[string]any)}
}

// FromMap creates a map holding a copy of src. Keys are inserted in sorted order
// so the result is deterministic.
func FromMap(src map[string]any) *Map {
	m := New()
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.Put(k, src[k])
	}
	return m
}

// Of builds a map from alternating key/value pairs. It panics on a non-string key
// or an odd number of arguments.
func Of(pairs ...any) *Map {
	if len(pairs)%2 != 0 {
		panic("attr.Of: odd number of arguments")
	}
	m := New()
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("attr.Of: key %v is not a string", pairs[i]))
		}
		m.Put(k, pairs[i+1])
	}
	return m
}

// Len returns the number of attributes.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Contains reports whether key is present (even if its value is nil).
func (m *Map) Contains(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[key]
	return ok
}

// Get returns the value for key, or nil if absent.
func (m *Map) Get(key string) any {
	if m == nil {
		return nil
	}
	return m.values[key]
}

// GetOrDefault returns the value for key, or def if the key is absent.
// A key explicitly bound to nil returns nil.
func (m *Map) GetOrDefault(key string, def any) any {
	if !m.Contains(key) {
		return def
	}
	return m.values[key]
}

// GetOfType returns the value for key, or nil if absent. It fails with a
// *TypeMismatchError if the value is present but not an instance of t.
// Numbers decoded from JSON convert to a numeric t when the value fits.
func (m *Map) GetOfType(key string, t reflect.Type) (any, error) {
	if !m.Contains(key) {
		return nil, nil
	}
	return m.assertInstance(key, t)
}

// GetRequired returns the value for key, failing with a *MissingAttributeError if absent.
func (m *Map) GetRequired(key string) (any, error) {
	if err := m.AssertContains(key); err != nil {
		return nil, err
	}
	return m.values[key], nil
}

// GetRequiredOfType combines GetRequired and GetOfType.
func (m *Map) GetRequiredOfType(key string, t reflect.Type) (any, error) {
	if err := m.AssertContains(key); err != nil {
		return nil, err
	}
	return m.assertInstance(key, t)
}

// ContainsOfType reports whether key is present, failing if the present value is
// not an instance of t.
func (m *Map) ContainsOfType(key string, t reflect.Type) (bool, error) {
	if !m.Contains(key) {
		return false, nil
	}
	if _, err := m.assertInstance(key, t); err != nil {
		return true, err
	}
	return true, nil
}

// AssertContains fails with a *MissingAttributeError if key is absent.
func (m *Map) AssertContains(key string) error {
	if m.Contains(key) {
		return nil
	}
	return &MissingAttributeError{Key: key, Present: m.Keys()}
}

// Put binds value to key and returns the previous value (nil if none).
// A new key is appended to the iteration order; an existing key keeps its position.
func (m *Map) Put(key string, value any) any {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	prev, exists := m.values[key]
	if !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return prev
}

// PutAll copies every attribute of other into m, in other's order.
func (m *Map) PutAll(other *Map) {
	other.Range(func(k string, v any) bool {
		m.Put(k, v)
		return true
	})
}

// Remove deletes key and returns its value (nil if absent).
func (m *Map) Remove(key string) any {
	if !m.Contains(key) {
		return nil
	}
	prev := m.values[key]
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return prev
}

// Clear removes every attribute.
func (m *Map) Clear() {
	m.keys = nil
	m.values = make(map[string]any)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for each attribute in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.Keys() {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// AsMap returns a plain map copy, suitable as an expression environment.
func (m *Map) AsMap() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// Clone returns a shallow copy.
func (m *Map) Clone() *Map {
	c := New()
	c.PutAll(m)
	return c
}

// Union returns a new map holding m's attributes overlaid with other's.
func (m *Map) Union(other *Map) *Map {
	u := m.Clone()
	u.PutAll(other)
	return u
}

func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteString("map[")
	for i, k := range m.Keys() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s:%v", k, m.values[k])
	}
	sb.WriteByte(']')
	return sb.String()
}

// MarshalJSON encodes the map as a JSON object, preserving key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("attribute '%s': %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving document key order.
func (m *Map) UnmarshalJSON(data []byte) error {
	m.Clear()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("attr: expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("attr: expected object key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("attribute '%s': %w", key, err)
		}
		m.Put(key, value)
	}
	_, err = dec.Token()
	return err
}

func (m *Map) assertInstance(key string, t reflect.Type) (any, error) {
	v := m.values[key]
	if IsInstance(v, t) {
		return v, nil
	}
	if n, ok := convertNumber(v, t); ok {
		return n, nil
	}
	return nil, &TypeMismatchError{Key: key, Value: v, Required: t}
}

// IsInstance reports whether v satisfies t: nil always does, otherwise the
// runtime type of v must be assignable to t (or implement it, for interfaces).
func IsInstance(v any, t reflect.Type) bool {
	if v == nil || t == nil {
		return true
	}
	vt := reflect.TypeOf(v)
	if t.Kind() == reflect.Interface {
		return vt.Implements(t)
	}
	return vt.AssignableTo(t)
}
