package convert

import (
	"fmt"
	"reflect"
)

// Converter coerces values of SourceType into target types it supports.
// Kind-generic converters report the concrete pair they were bound to.
type Converter interface {
	SourceType() reflect.Type
	TargetType() reflect.Type
	Convert(source any, target reflect.Type) (any, error)
}

// Service locates conversion paths between two types.
type Service interface {
	// Executor returns an executor bound to the (source, target) pair,
	// or a *NoSuchConversionError if no path exists.
	Executor(source, target reflect.Type) (*Executor, error)
}

// Executor is a converter bound to one (source, target) pair.
type Executor struct {
	source    reflect.Type
	target    reflect.Type
	converter Converter
}

// NewExecutor binds c to the given pair.
func NewExecutor(source, target reflect.Type, c Converter) *Executor {
	return &Executor{source: source, target: target, converter: c}
}

// Source returns the bound source type.
func (e *Executor) Source() reflect.Type { return e.source }

// Target returns the bound target type.
func (e *Executor) Target() reflect.Type { return e.target }

// Execute converts value. A nil value converts to nil.
func (e *Executor) Execute(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if !instanceOf(value, e.source) {
		return nil, &ConversionFailedError{
			Value:  value,
			Source: e.source,
			Target: e.target,
			Err:    fmt.Errorf("value of type %T is not a %s", value, e.source),
		}
	}
	out, err := e.converter.Convert(value, e.target)
	if err != nil {
		if _, ok := err.(*ConversionFailedError); ok {
			return nil, err
		}
		return nil, &ConversionFailedError{Value: value, Source: e.source, Target: e.target, Err: err}
	}
	return out, nil
}

// To converts value to target using s, resolving the executor from the
// value's runtime type. Values already of the target type are returned as is.
func To(s Service, value any, target reflect.Type) (any, error) {
	if value == nil || instanceOf(value, target) {
		return value, nil
	}
	exec, err := s.Executor(reflect.TypeOf(value), target)
	if err != nil {
		return nil, err
	}
	return exec.Execute(value)
}

// Func adapts a typed function into a Converter registered for the (S, T) pair.
func Func[S, T any](fn func(S) (T, error)) Converter {
	return &funcConverter{
		source: reflect.TypeOf((*S)(nil)).Elem(),
		target: reflect.TypeOf((*T)(nil)).Elem(),
		fn: func(v any, _ reflect.Type) (any, error) {
			return fn(v.(S))
		},
	}
}

type funcConverter struct {
	source reflect.Type
	target reflect.Type
	fn     func(any, reflect.Type) (any, error)
}

func (c *funcConverter) SourceType() reflect.Type { return c.source }
func (c *funcConverter) TargetType() reflect.Type { return c.target }

func (c *funcConverter) Convert(source any, target reflect.Type) (any, error) {
	return c.fn(source, target)
}

func instanceOf(v any, t reflect.Type) bool {
	if v == nil || t == nil {
		return true
	}
	vt := reflect.TypeOf(v)
	if t.Kind() == reflect.Interface {
		return vt.Implements(t)
	}
	return vt.AssignableTo(t)
}

// NoSuchConversionError is returned when no conversion path exists.
type NoSuchConversionError struct {
	Source reflect.Type
	Target reflect.Type
}

func (e *NoSuchConversionError) Error() string {
	return fmt.Sprintf("no converter found to convert from type [%v] to type [%v]", e.Source, e.Target)
}

// ConversionFailedError is returned when a conversion path exists but the input is malformed.
type ConversionFailedError struct {
	Value  any
	Source reflect.Type
	Target reflect.Type
	Err    error
}

func (e *ConversionFailedError) Error() string {
	return fmt.Sprintf("unable to convert value [%v] from type [%v] to type [%v]: %v", e.Value, e.Source, e.Target, e.Err)
}

func (e *ConversionFailedError) Unwrap() error {
	return e.Err
}
