package convert

import (
	"reflect"
	"sync"
	"time"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

type typePair struct {
	source reflect.Type
	target reflect.Type
}

// DefaultService resolves conversions from explicitly registered converters
// first, then from the built-in kind-based paths:
//
//   - identity when the source is assignable to the target
//   - string to bool, integers, floats, time.Duration and time.Time (RFC3339)
//   - scalars to string
//   - number to number
//   - slice or array to slice or array, element by element (ArrayToArray)
//   - scalar to slice, as a single element
//   - single element slice to scalar
//   - string-keyed map to struct or struct pointer (MapToStruct)
//
// It is safe for concurrent use.
type DefaultService struct {
	mu         sync.RWMutex
	converters map[typePair]Converter
}

// NewDefaultService creates a service with the built-in conversion paths.
func NewDefaultService() *DefaultService {
	return &DefaultService{converters: make(map[typePair]Converter)}
}

// AddConverter registers c for its (SourceType, TargetType) pair, replacing any prior converter.
func (s *DefaultService) AddConverter(c Converter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.converters[typePair{c.SourceType(), c.TargetType()}] = c
}

// Executor implements Service.
func (s *DefaultService) Executor(source, target reflect.Type) (*Executor, error) {
	if source == nil || target == nil {
		return nil, &NoSuchConversionError{Source: source, Target: target}
	}

	s.mu.RLock()
	c, ok := s.converters[typePair{source, target}]
	s.mu.RUnlock()
	if ok {
		return NewExecutor(source, target, c), nil
	}

	if c := s.builtin(source, target); c != nil {
		return NewExecutor(source, target, c), nil
	}
	return nil, &NoSuchConversionError{Source: source, Target: target}
}

func (s *DefaultService) builtin(source, target reflect.Type) Converter {
	switch {
	case source.AssignableTo(target):
		return identity(source, target)
	case source.Kind() == reflect.String && parsable(target):
		return stringToScalar(source, target)
	case target.Kind() == reflect.String && isScalar(source):
		return scalarToString(source, target)
	case isNumber(source) && isNumber(target) && target != durationType:
		return numberToNumber(source, target)
	case isSequence(source) && isSequence(target):
		return NewArrayToArray(s)
	case isSequence(target) && isScalar(source):
		return newScalarToArray(s, source)
	case isSequence(source) && isScalar(target):
		return newArrayToScalar(s, source, target)
	case source.Kind() == reflect.Map && source.Key().Kind() == reflect.String && isStructTarget(target):
		return NewMapToStruct(source, target)
	}
	return nil
}

func parsable(t reflect.Type) bool {
	if t == durationType || t == timeType {
		return true
	}
	return t.Kind() == reflect.Bool || isNumber(t)
}

func isNumber(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isScalar(t reflect.Type) bool {
	return t.Kind() == reflect.String || t.Kind() == reflect.Bool || isNumber(t) || t == timeType
}

func isSequence(t reflect.Type) bool {
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

func isStructTarget(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType
}
