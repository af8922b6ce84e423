package convert

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// kindConverter is a built-in converter bound to one concrete pair.
type kindConverter struct {
	source reflect.Type
	target reflect.Type
	fn     func(v reflect.Value, target reflect.Type) (any, error)
}

func (c *kindConverter) SourceType() reflect.Type { return c.source }
func (c *kindConverter) TargetType() reflect.Type { return c.target }

func (c *kindConverter) Convert(source any, target reflect.Type) (any, error) {
	return c.fn(reflect.ValueOf(source), target)
}

func identity(source, target reflect.Type) Converter {
	return &kindConverter{source: source, target: target, fn: func(v reflect.Value, t reflect.Type) (any, error) {
		if t.Kind() == reflect.Interface {
			return v.Interface(), nil
		}
		return v.Convert(t).Interface(), nil
	}}
}

func stringToScalar(source, target reflect.Type) Converter {
	return &kindConverter{source: source, target: target, fn: parseString}
}

func parseString(v reflect.Value, t reflect.Type) (any, error) {
	s := strings.TrimSpace(v.String())

	switch t {
	case durationType:
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(d).Convert(t).Interface(), nil
	case timeType:
		return time.Parse(time.RFC3339, s)
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, err := parseBool(s)
		if err != nil {
			return nil, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetFloat(f)
	default:
		return nil, fmt.Errorf("unsupported target kind %s", t.Kind())
	}
	return out.Interface(), nil
}

// parseBool accepts the strconv forms plus yes/no and on/off.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on", "y":
		return true, nil
	case "no", "off", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func scalarToString(source, target reflect.Type) Converter {
	return &kindConverter{source: source, target: target, fn: func(v reflect.Value, t reflect.Type) (any, error) {
		var s string
		switch {
		case v.Type() == timeType:
			s = v.Interface().(time.Time).Format(time.RFC3339)
		case v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64:
			s = strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits())
		default:
			s = fmt.Sprint(v.Interface())
		}
		return reflect.ValueOf(s).Convert(t).Interface(), nil
	}}
}

func numberToNumber(source, target reflect.Type) Converter {
	return &kindConverter{source: source, target: target, fn: func(v reflect.Value, t reflect.Type) (any, error) {
		out := v.Convert(t)
		if !sameNumber(v, out) {
			return nil, fmt.Errorf("value %v overflows %s", v.Interface(), t)
		}
		return out.Interface(), nil
	}}
}

// sameNumber reports whether a numeric conversion round-trips without loss
// of the integer part.
func sameNumber(in, out reflect.Value) bool {
	back := out.Convert(in.Type())
	switch in.Kind() {
	case reflect.Float32, reflect.Float64:
		switch out.Kind() {
		case reflect.Float32, reflect.Float64:
			return true
		}
		return float64(int64(in.Float())) == back.Float() || float64(uint64(in.Float())) == back.Float()
	}
	return back.Interface() == in.Interface()
}

// scalarToArray wraps a single value into a one element sequence.
type scalarToArray struct {
	service Service
	source  reflect.Type
}

func newScalarToArray(s Service, source reflect.Type) Converter {
	return &scalarToArray{service: s, source: source}
}

func (c *scalarToArray) SourceType() reflect.Type { return c.source }
func (c *scalarToArray) TargetType() reflect.Type { return reflect.TypeOf([]any(nil)) }

func (c *scalarToArray) Convert(source any, target reflect.Type) (any, error) {
	elem, err := To(c.service, source, target.Elem())
	if err != nil {
		return nil, err
	}
	var out reflect.Value
	if target.Kind() == reflect.Array {
		out = reflect.New(target).Elem()
		if target.Len() == 0 {
			return out.Interface(), nil
		}
	} else {
		out = reflect.MakeSlice(target, 1, 1)
	}
	setElem(out.Index(0), elem)
	return out.Interface(), nil
}

func setElem(dst reflect.Value, v any) {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}
	dst.Set(reflect.ValueOf(v))
}

func newArrayToScalar(s Service, source, target reflect.Type) Converter {
	return &kindConverter{source: source, target: target, fn: func(v reflect.Value, t reflect.Type) (any, error) {
		if v.Len() != 1 {
			return nil, fmt.Errorf("cannot convert %d values into a single %s", v.Len(), t)
		}
		return To(s, v.Index(0).Interface(), t)
	}}
}
