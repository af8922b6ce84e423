package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/message"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line  string
		event string
		want  map[string]any
	}{
		{"", "", nil},
		{"next", "next", map[string]any{}},
		{"submit name=Ada age=36", "submit", map[string]any{"name": "Ada", "age": "36"}},
		{"pick tag=a tag=b tag=c", "pick", map[string]any{"tag": []string{"a", "b", "c"}}},
		{"go flag", "go", map[string]any{"flag": ""}},
		{"set expr=a=b", "set", map[string]any{"expr": "a=b"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd := ParseCommand(tt.line)
			assert.Equal(t, tt.event, cmd.EventID)
			if tt.want == nil {
				assert.Nil(t, cmd.Params)
				return
			}
			assert.Equal(t, tt.want, cmd.Params.AsMap())
		})
	}
}

func TestTextHandler_Input(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("next a=1\n\x1b[31mred\nexit\n"), &out)
	ctx := context.Background()

	cmd, err := h.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", cmd.EventID)
	assert.Equal(t, "1", cmd.Params.Get("a"))

	cmd, err = h.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[31mred", cmd.EventID, "control characters are stripped")

	_, err = h.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > ", out.String())
}

func TestTextHandler_Output(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerRenderer(func(s string) (string, error) {
		return strings.ToUpper(s), nil
	}))
	ctx := context.Background()

	require.NoError(t, h.Output(ctx, &ports.Response{Rendering: &domain.Rendering{StateID: "ask", Content: "hello"}}))
	require.NoError(t, h.Output(ctx, &ports.Response{Rendering: &domain.Rendering{StateID: "form", View: "form"}}))
	require.NoError(t, h.Output(ctx, &ports.Response{
		Rendering: &domain.Rendering{StateID: "form", View: "form"},
		Messages:  []message.Message{{Source: "age", Severity: message.SeverityError, Text: "age is required"}},
	}))
	require.NoError(t, h.Output(ctx, &ports.Response{Ended: true, Outcome: &domain.Outcome{ID: "done", Output: attr.Of("b", 2, "a", 1)}}))

	assert.Equal(t, "HELLO\n[form] form\n[form] form\n[error] age: age is required\nFlow ended: done\n  a = 1\n  b = 2\n", out.String())
}

func TestJSONHandler_Input(t *testing.T) {
	h := NewJSONHandler(strings.NewReader("\n\"next\"\nplain\n{\"event\":\"go\",\"params\":{\"n\":1}}\n{bad\n"), &bytes.Buffer{})
	ctx := context.Background()

	cmd, err := h.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", cmd.EventID)

	cmd, err = h.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "plain", cmd.EventID)

	cmd, err = h.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "go", cmd.EventID)
	assert.Equal(t, float64(1), cmd.Params.Get("n"))

	_, err = h.Input(ctx)
	assert.ErrorContains(t, err, "invalid command")

	_, err = h.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}
