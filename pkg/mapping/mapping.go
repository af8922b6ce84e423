// Package mapping binds values from a source object into a target object
// through pairs of expressions, coercing types on the way and recording the
// outcome of every pair instead of failing fast.
package mapping

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/convert"
	"github.com/aretw0/arbor/pkg/expression"
)

// Mapping copies the value of Source (evaluated against the mapping source)
// into Target (evaluated against the mapping target).
type Mapping struct {
	Source   expression.Expression
	Target   expression.Expression
	Required bool
	// Converter, when set, is used instead of resolving one from the
	// mapper's conversion service.
	Converter *convert.Executor
}

// New creates an optional mapping.
func New(source, target expression.Expression) *Mapping {
	return &Mapping{Source: source, Target: target}
}

// NewRequired creates a required mapping.
func NewRequired(source, target expression.Expression) *Mapping {
	return &Mapping{Source: source, Target: target, Required: true}
}

func (m *Mapping) String() string {
	s := fmt.Sprintf("%s -> %s", m.Source, m.Target)
	if m.Required {
		s += " (required)"
	}
	return s
}

// Mapper maps a source object into a target object.
type Mapper interface {
	Map(source, target any) *Results
}
