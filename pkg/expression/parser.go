package expression

import (
	"strings"
)

// Parser turns expression strings found in flow definitions into Expressions.
type Parser interface {
	Parse(s string) (Expression, error)
	ParseCondition(s string) (Condition, error)
}

// Condition is a boolean expression.
type Condition interface {
	Expression
	Test(target any) (bool, error)
}

// DefaultParser parses plain dotted paths into Path and everything else
// into Expr. Sources may be wrapped in ${...} or #{...} delimiters.
type DefaultParser struct{}

// NewParser returns the default parser.
func NewParser() *DefaultParser {
	return &DefaultParser{}
}

// Parse implements Parser.
func (DefaultParser) Parse(s string) (Expression, error) {
	s = unwrap(s)
	if IsPath(s) && !literals[s] {
		return NewPath(s)
	}
	return Compile(s)
}

// ParseCondition implements Parser.
func (DefaultParser) ParseCondition(s string) (Condition, error) {
	return CompileCondition(unwrap(s))
}

var literals = map[string]bool{"true": true, "false": true, "nil": true}

func unwrap(s string) string {
	s = strings.TrimSpace(s)
	if (strings.HasPrefix(s, "${") || strings.HasPrefix(s, "#{")) && strings.HasSuffix(s, "}") {
		return strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}
