package mapping

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code classifies the outcome of a single mapping.
type Code string

const (
	CodeSuccess             Code = "success"
	CodeRequiredError       Code = "required"
	CodeSourceAccessError   Code = "sourceAccessError"
	CodeTargetAccessError   Code = "targetAccessError"
	CodeTypeConversionError Code = "typeConversionError"
)

// Result is the outcome of one mapping.
type Result struct {
	Mapping *Mapping
	Code    Code
	// OriginalValue is the value read from the source, if any.
	OriginalValue any
	// MappedValue is the value written to the target, after conversion.
	MappedValue any
	Err         error
}

// IsError reports whether the mapping failed.
func (r *Result) IsError() bool {
	return r.Code != CodeSuccess
}

func (r *Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("[%s %s: %v]", r.Mapping, r.Code, r.Err)
	}
	return fmt.Sprintf("[%s %s]", r.Mapping, r.Code)
}

// Criteria selects results.
type Criteria func(*Result) bool

// Errors selects failed results.
func Errors(r *Result) bool { return r.IsError() }

// WithCode selects results with the given code.
func WithCode(code Code) Criteria {
	return func(r *Result) bool { return r.Code == code }
}

// Results is the ordered outcome of one Map call.
type Results struct {
	Source  any
	Target  any
	results []*Result
}

// All returns every result in mapping order.
func (rs *Results) All() []*Result {
	out := make([]*Result, len(rs.results))
	copy(out, rs.results)
	return out
}

// Len returns the number of results.
func (rs *Results) Len() int { return len(rs.results) }

// HasErrorResults reports whether any mapping failed.
func (rs *Results) HasErrorResults() bool {
	for _, r := range rs.results {
		if r.IsError() {
			return true
		}
	}
	return false
}

// ErrorResults returns the failed results in mapping order.
func (rs *Results) ErrorResults() []*Result {
	return rs.Filter(Errors)
}

// Filter returns the results matching c in mapping order.
func (rs *Results) Filter(c Criteria) []*Result {
	var out []*Result
	for _, r := range rs.results {
		if c(r) {
			out = append(out, r)
		}
	}
	return out
}

func (rs *Results) String() string {
	parts := make([]string, len(rs.results))
	for i, r := range rs.results {
		parts[i] = r.String()
	}
	return "mapping results " + strings.Join(parts, ", ")
}

type resultJSON struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Code   Code   `json:"code"`
	Error  string `json:"error,omitempty"`
}

// MarshalJSON encodes the failed results, so a view model exposing the
// results of a bind can be sent to clients.
func (rs *Results) MarshalJSON() ([]byte, error) {
	errs := make([]resultJSON, 0)
	for _, r := range rs.ErrorResults() {
		rj := resultJSON{
			Source: r.Mapping.Source.String(),
			Target: r.Mapping.Target.String(),
			Code:   r.Code,
		}
		if r.Err != nil {
			rj.Error = r.Err.Error()
		}
		errs = append(errs, rj)
	}
	return json.Marshal(map[string]any{"errors": errs})
}
