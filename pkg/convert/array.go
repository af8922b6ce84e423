package convert

import (
	"fmt"
	"reflect"
	"sync"
)

// ArrayToArray converts a slice or array into another slice or array type,
// coercing each element through the element executor. The result has the
// same length as the source; a nil source slice converts to a nil target.
//
// When built with NewArrayToArray the element executor is resolved from the
// component types the first time a conversion runs, and reused afterwards.
// Interface element types are resolved per runtime element type instead.
type ArrayToArray struct {
	service Service

	once     sync.Once
	elem     *Executor
	elemErr  error
	fixed    bool
	dynamic  sync.Map // [runtime type, element type] -> *Executor
	resolved reflect.Type
}

// NewArrayToArray creates a converter that resolves element conversions from s.
func NewArrayToArray(s Service) *ArrayToArray {
	return &ArrayToArray{service: s}
}

// NewArrayToArrayWith creates a converter that uses exec for every element.
func NewArrayToArrayWith(exec *Executor) *ArrayToArray {
	a := &ArrayToArray{elem: exec, fixed: true}
	a.once.Do(func() {})
	return a
}

func (a *ArrayToArray) SourceType() reflect.Type { return reflect.TypeOf([]any(nil)) }
func (a *ArrayToArray) TargetType() reflect.Type { return reflect.TypeOf([]any(nil)) }

// Convert implements Converter.
func (a *ArrayToArray) Convert(source any, target reflect.Type) (any, error) {
	if target.Kind() != reflect.Slice && target.Kind() != reflect.Array {
		return nil, fmt.Errorf("target type %s is not a slice or array", target)
	}
	if source == nil {
		return reflect.Zero(target).Interface(), nil
	}

	in := reflect.ValueOf(source)
	if in.Kind() != reflect.Slice && in.Kind() != reflect.Array {
		return nil, fmt.Errorf("source type %s is not a slice or array", in.Type())
	}
	if in.Kind() == reflect.Slice && in.IsNil() && target.Kind() == reflect.Slice {
		return reflect.Zero(target).Interface(), nil
	}

	var out reflect.Value
	if target.Kind() == reflect.Array {
		if target.Len() != in.Len() {
			return nil, fmt.Errorf("cannot convert %d elements into %s", in.Len(), target)
		}
		out = reflect.New(target).Elem()
	} else {
		out = reflect.MakeSlice(target, in.Len(), in.Len())
	}

	srcElem, dstElem := in.Type().Elem(), target.Elem()
	for i := 0; i < in.Len(); i++ {
		item := in.Index(i).Interface()
		exec, err := a.executor(srcElem, dstElem, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		var v any
		if exec == nil {
			v = item
		} else if v, err = exec.Execute(item); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		setElem(out.Index(i), v)
	}
	return out.Interface(), nil
}

// executor returns the element executor, or nil when item needs no conversion.
func (a *ArrayToArray) executor(srcElem, dstElem reflect.Type, item any) (*Executor, error) {
	if a.fixed {
		return a.elem, nil
	}
	if item == nil || instanceOf(item, dstElem) {
		return nil, nil
	}

	if srcElem.Kind() != reflect.Interface {
		a.once.Do(func() {
			a.resolved = dstElem
			a.elem, a.elemErr = a.service.Executor(srcElem, dstElem)
		})
		if a.resolved == dstElem {
			return a.elem, a.elemErr
		}
	}

	rt := reflect.TypeOf(item)
	key := [2]reflect.Type{rt, dstElem}
	if cached, ok := a.dynamic.Load(key); ok {
		return cached.(*Executor), nil
	}
	exec, err := a.service.Executor(rt, dstElem)
	if err != nil {
		return nil, err
	}
	a.dynamic.Store(key, exec)
	return exec, nil
}
