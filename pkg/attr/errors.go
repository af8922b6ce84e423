package attr

import (
	"fmt"
	"reflect"
)

// MissingAttributeError is returned when a required attribute is absent.
type MissingAttributeError struct {
	Key     string
	Present []string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("required attribute '%s' is not present; attributes present are %v", e.Key, e.Present)
}

// TypeMismatchError is returned when an attribute is present but its runtime
// value is not an instance of the required type.
type TypeMismatchError struct {
	Key      string
	Value    any
	Required reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("attribute '%s' has value [%v] that is not of expected type [%s], instead it is of type [%T]",
		e.Key, e.Value, e.Required, e.Value)
}
