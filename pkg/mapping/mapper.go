package mapping

import (
	"log/slog"
	"reflect"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/convert"
	"github.com/aretw0/arbor/pkg/expression"
)

// DefaultMapper applies its mappings in declaration order. Later mappings
// observe what earlier ones wrote into the target. A DefaultMapper holds no
// per-call state and may be shared.
type DefaultMapper struct {
	mappings   []*Mapping
	conversion convert.Service
	logger     *slog.Logger
}

// Option configures a DefaultMapper.
type Option func(*DefaultMapper)

// WithConversionService sets the service used to coerce values into the
// type a target expression expects.
func WithConversionService(s convert.Service) Option {
	return func(m *DefaultMapper) {
		m.conversion = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *DefaultMapper) {
		m.logger = l
	}
}

// NewMapper creates a mapper with the default conversion service.
func NewMapper(opts ...Option) *DefaultMapper {
	m := &DefaultMapper{
		conversion: convert.NewDefaultService(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add appends mappings and returns the mapper.
func (m *DefaultMapper) Add(mappings ...*Mapping) *DefaultMapper {
	m.mappings = append(m.mappings, mappings...)
	return m
}

// Mappings returns the configured mappings.
func (m *DefaultMapper) Mappings() []*Mapping {
	out := make([]*Mapping, len(m.mappings))
	copy(out, m.mappings)
	return out
}

// Map implements Mapper. It never fails; inspect the returned Results.
func (m *DefaultMapper) Map(source, target any) *Results {
	m.logger.Debug("beginning mapping", "source", describe(source), "target", describe(target), "mappings", len(m.mappings))

	tx := &transaction{source: source, target: target, conversion: m.conversion}
	for _, mapping := range m.mappings {
		tx.apply(mapping)
	}

	results := &Results{Source: source, Target: target, results: tx.results}
	m.logger.Debug("completed mapping",
		"total", results.Len(),
		"errors", len(results.ErrorResults()),
	)
	return results
}

// transaction holds the state of a single Map call.
type transaction struct {
	source     any
	target     any
	conversion convert.Service
	results    []*Result
}

func (tx *transaction) record(m *Mapping, code Code, original, mapped any, err error) {
	tx.results = append(tx.results, &Result{Mapping: m, Code: code, OriginalValue: original, MappedValue: mapped, Err: err})
}

func (tx *transaction) apply(m *Mapping) {
	value, err := m.Source.Evaluate(tx.source)
	if err != nil {
		code := CodeSourceAccessError
		if m.Required {
			code = CodeRequiredError
		}
		tx.record(m, code, nil, nil, err)
		return
	}

	if m.Required && empty(value) {
		tx.record(m, CodeRequiredError, value, nil, nil)
		return
	}

	mapped, err := tx.convert(m, value)
	if err != nil {
		tx.record(m, CodeTypeConversionError, value, nil, err)
		return
	}

	if err := m.Target.Set(tx.target, mapped); err != nil {
		tx.record(m, CodeTargetAccessError, value, mapped, err)
		return
	}
	tx.record(m, CodeSuccess, value, mapped, nil)
}

func (tx *transaction) convert(m *Mapping, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if m.Converter != nil {
		return m.Converter.Execute(value)
	}
	typed, ok := m.Target.(expression.Typed)
	if !ok || tx.conversion == nil {
		return value, nil
	}
	want, ok := typed.ExpectedType(tx.target)
	if !ok {
		return value, nil
	}
	return convert.To(tx.conversion, value, want)
}

func empty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
