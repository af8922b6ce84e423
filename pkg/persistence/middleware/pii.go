package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Mask replaces the values of masked keys.
const Mask = "***"

type piiMiddleware struct {
	next     ports.ExecutionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching
// the patterns in every scope of a saved execution. The execution held by
// the caller is left untouched. It panics on an invalid pattern.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ExecutionStore) ports.ExecutionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, exec *domain.Execution) error {
	cloned, err := exec.Clone()
	if err != nil {
		return fmt.Errorf("failed to copy execution: %w", err)
	}

	maskScope(cloned.Conversation, m.patterns)
	for _, s := range cloned.Stack {
		maskScope(s.Scope, m.patterns)
		maskScope(s.Flash, m.patterns)
	}
	if cloned.Outcome != nil {
		maskScope(cloned.Outcome.Output, m.patterns)
	}

	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, key string) (*domain.Execution, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskScope(scope *attr.Map, patterns []*regexp.Regexp) {
	for _, k := range scope.Keys() {
		if matches(k, patterns) {
			scope.Put(k, Mask)
			continue
		}
		scope.Put(k, maskValue(scope.Get(k), patterns))
	}
}

func maskValue(v any, patterns []*regexp.Regexp) any {
	switch val := v.(type) {
	case *attr.Map:
		maskScope(val, patterns)
	case map[string]any:
		for k, sub := range val {
			if matches(k, patterns) {
				val[k] = Mask
			} else {
				val[k] = maskValue(sub, patterns)
			}
		}
	case []any:
		for i, item := range val {
			val[i] = maskValue(item, patterns)
		}
	}
	return v
}

func matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
