package message

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/mapping"
)

// AddResults records one error message per failed mapping of rs. The codes
// are "<code>.<target>" then "<code>", so a bundle can word a failure per
// field or per kind. The original value is the single template argument.
func (c *Context) AddResults(rs *mapping.Results) {
	if rs == nil {
		return
	}
	for _, r := range rs.ErrorResults() {
		c.Add(fromResult(r))
	}
}

func fromResult(r *mapping.Result) *Resolver {
	target := r.Mapping.Target.String()
	code := string(r.Code)
	text := fmt.Sprintf("%s: %s", target, code)
	if r.Err != nil {
		text = r.Err.Error()
	}
	return &Resolver{
		Source:      target,
		Codes:       []string{code + "." + target, code},
		Severity:    SeverityError,
		Args:        []any{r.OriginalValue},
		DefaultText: text,
	}
}
