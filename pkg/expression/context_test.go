package expression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/expression"
)

func TestExpr_ScopesOfRequestContext(t *testing.T) {
	rc := testutils.NewRequestContext(nil)
	rc.FlowScope().Put("name", "Ada")
	rc.ConversationScope().Put("tenant", "acme")

	cases := []struct {
		source string
		want   any
	}{
		{`'hello ' + flowScope.Get('name')`, "hello Ada"},
		{`flowScope.name`, "Ada"},
		{`name`, "Ada"},
		{`conversationScope.Get('tenant')`, "acme"},
		{`flowScope.Get('missing')`, nil},
		{`flowScope.Contains('name')`, true},
	}
	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			e, err := expression.Compile(c.source)
			require.NoError(t, err)
			v, err := e.Evaluate(rc)
			require.NoError(t, err)
			assert.Equal(t, c.want, v)
		})
	}
}

func TestExpr_NestedScopeMaps(t *testing.T) {
	target := attr.Of("order", attr.Of("lines", attr.Of("first", "a")))

	e, err := expression.Compile(`order.Get('lines').first`)
	require.NoError(t, err)
	v, err := e.Evaluate(target)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestExpr_AttributesNamedLikeBuiltins(t *testing.T) {
	rc := testutils.NewRequestContext(nil)
	rc.FlowScope().PutAll(attr.Of(
		"count", 3,
		"len", 2,
		"all", true,
		"map", "m",
		"sum", 10,
		"max", 7,
		"type", "gold",
		"now", "later",
	))

	conditions := []string{
		`count >= 3`,
		`len == 2`,
		`all`,
		`map == 'm'`,
		`sum > max`,
		`type == 'gold'`,
		`now == 'later'`,
		`count + len == 5`,
	}
	for _, src := range conditions {
		t.Run(src, func(t *testing.T) {
			c, err := expression.CompileCondition(src)
			require.NoError(t, err)
			ok, err := c.Test(rc)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}

	t.Run("Builtin Calls Still Work", func(t *testing.T) {
		rc.FlowScope().Put("items", []any{1, 2, 3})
		e, err := expression.Compile(`len(items) + count`)
		require.NoError(t, err)
		v, err := e.Evaluate(rc)
		require.NoError(t, err)
		assert.Equal(t, 6, v)
	})
}
