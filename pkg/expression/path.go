package expression

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/attr"
)

var pathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// IsPath reports whether s is a plain dotted property path.
func IsPath(s string) bool {
	return pathPattern.MatchString(strings.TrimSpace(s))
}

// Path is a dotted property path. Segments walk *attr.Map values, maps with
// string keys, struct fields (exact name, then case-insensitive) and slice
// indexes. Absent map keys read as nil; a nil intermediate value is an error.
type Path struct {
	source   string
	segments []string
}

// NewPath parses a dotted path.
func NewPath(s string) (*Path, error) {
	s = strings.TrimSpace(s)
	if !IsPath(s) {
		return nil, fmt.Errorf("invalid property path %q", s)
	}
	return &Path{source: s, segments: strings.Split(s, ".")}, nil
}

// MustPath is like NewPath but panics on error.
func MustPath(s string) *Path {
	p, err := NewPath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Path) String() string { return p.source }

// Evaluate implements Expression.
func (p *Path) Evaluate(target any) (any, error) {
	v, err := p.walk(root(target), p.segments)
	if err != nil {
		return nil, p.fail(opEvaluate, err)
	}
	return v, nil
}

// Set implements Expression.
func (p *Path) Set(target any, value any) error {
	last := len(p.segments) - 1
	if a, ok := target.(Assignable); ok && last == 0 {
		if err := a.Assign(p.segments[0], value); err != nil {
			return p.fail(opSet, err)
		}
		return nil
	}
	parent, err := p.walk(root(target), p.segments[:last])
	if err != nil {
		return p.fail(opSet, err)
	}
	if err := setSegment(parent, p.segments[last], value); err != nil {
		return p.fail(opSet, err)
	}
	return nil
}

// ExpectedType implements Typed. Struct fields, typed map values and typed
// slice elements report their static type; dynamic containers report none.
func (p *Path) ExpectedType(target any) (reflect.Type, bool) {
	last := len(p.segments) - 1
	parent, err := p.walk(root(target), p.segments[:last])
	if err != nil || parent == nil {
		return nil, false
	}
	if _, ok := parent.(*attr.Map); ok {
		return nil, false
	}

	rv := indirect(reflect.ValueOf(parent))
	var t reflect.Type
	switch rv.Kind() {
	case reflect.Struct:
		f, ok := field(rv, p.segments[last])
		if !ok {
			return nil, false
		}
		t = f.Type()
	case reflect.Map, reflect.Slice, reflect.Array:
		t = rv.Type().Elem()
	default:
		return nil, false
	}
	if t.Kind() == reflect.Interface {
		return nil, false
	}
	return t, true
}

func (p *Path) fail(op string, err error) error {
	return &EvaluationError{Expression: p.source, Op: op, Err: err}
}

func (p *Path) walk(cur any, segments []string) (any, error) {
	for i, seg := range segments {
		if cur == nil {
			return nil, fmt.Errorf("'%s' is nil", strings.Join(p.segments[:i], "."))
		}
		next, err := getSegment(cur, seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func root(target any) any {
	if env, ok := target.(Environment); ok {
		return env.Env()
	}
	return target
}

var errNotAddressable = errors.New("value is not addressable; pass a pointer")

func getSegment(cur any, seg string) (any, error) {
	switch c := cur.(type) {
	case *attr.Map:
		return c.Get(seg), nil
	case map[string]any:
		return c[seg], nil
	case Environment:
		return c.Env()[seg], nil
	}

	rv := indirect(reflect.ValueOf(cur))
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key type %s is not a string", rv.Type().Key())
		}
		v := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		f, ok := field(rv, seg)
		if !ok {
			return nil, fmt.Errorf("no exported property '%s' on %s", seg, rv.Type())
		}
		if f.Kind() == reflect.Struct && f.CanAddr() {
			return f.Addr().Interface(), nil
		}
		return f.Interface(), nil
	case reflect.Slice, reflect.Array:
		i, err := index(rv, seg)
		if err != nil {
			return nil, err
		}
		el := rv.Index(i)
		if el.Kind() == reflect.Struct && el.CanAddr() {
			return el.Addr().Interface(), nil
		}
		return el.Interface(), nil
	case reflect.Invalid:
		return nil, fmt.Errorf("cannot read '%s' from nil", seg)
	}
	return nil, fmt.Errorf("cannot read property '%s' from %T", seg, cur)
}

func setSegment(cur any, seg string, value any) error {
	switch c := cur.(type) {
	case nil:
		return fmt.Errorf("cannot set '%s' on nil", seg)
	case *attr.Map:
		c.Put(seg, value)
		return nil
	case map[string]any:
		if c == nil {
			return fmt.Errorf("cannot set '%s' on a nil map", seg)
		}
		c[seg] = value
		return nil
	}

	rv := indirect(reflect.ValueOf(cur))
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return fmt.Errorf("cannot set '%s' on a nil map", seg)
		}
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("map key type %s is not a string", rv.Type().Key())
		}
		v, err := assignable(value, rv.Type().Elem())
		if err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()), v)
		return nil
	case reflect.Struct:
		f, ok := field(rv, seg)
		if !ok {
			return fmt.Errorf("no exported property '%s' on %s", seg, rv.Type())
		}
		if !f.CanSet() {
			return errNotAddressable
		}
		v, err := assignable(value, f.Type())
		if err != nil {
			return err
		}
		f.Set(v)
		return nil
	case reflect.Slice, reflect.Array:
		i, err := index(rv, seg)
		if err != nil {
			return err
		}
		el := rv.Index(i)
		if !el.CanSet() {
			return errNotAddressable
		}
		v, err := assignable(value, el.Type())
		if err != nil {
			return err
		}
		el.Set(v)
		return nil
	}
	return fmt.Errorf("cannot set property '%s' on %T", seg, cur)
}

func assignable(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("value of type %s is not assignable to %s", v.Type(), t)
	}
	return v, nil
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func field(rv reflect.Value, name string) (reflect.Value, bool) {
	sf, ok := rv.Type().FieldByName(name)
	if !ok {
		sf, ok = rv.Type().FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
	}
	if !ok || !sf.IsExported() {
		return reflect.Value{}, false
	}
	return rv.FieldByIndex(sf.Index), true
}

func index(rv reflect.Value, seg string) (int, error) {
	i, err := strconv.Atoi(seg)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not an index", seg)
	}
	if i < 0 || i >= rv.Len() {
		return 0, fmt.Errorf("index %d out of range [0, %d)", i, rv.Len())
	}
	return i, nil
}
