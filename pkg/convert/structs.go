package convert

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// MapToStruct decodes a string-keyed map into a struct or struct pointer.
// Field names match case-insensitively, or through `mapstructure` tags, and
// scalar fields are weakly typed ("42" decodes into an int field).
type MapToStruct struct {
	source reflect.Type
	target reflect.Type
}

// NewMapToStruct binds the converter to the given pair.
func NewMapToStruct(source, target reflect.Type) *MapToStruct {
	return &MapToStruct{source: source, target: target}
}

func (c *MapToStruct) SourceType() reflect.Type { return c.source }
func (c *MapToStruct) TargetType() reflect.Type { return c.target }

// Convert implements Converter.
func (c *MapToStruct) Convert(source any, target reflect.Type) (any, error) {
	ptr := target.Kind() == reflect.Pointer
	structType := target
	if ptr {
		structType = target.Elem()
	}

	out := reflect.New(structType)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(source); err != nil {
		return nil, err
	}
	if ptr {
		return out.Interface(), nil
	}
	return out.Elem().Interface(), nil
}
