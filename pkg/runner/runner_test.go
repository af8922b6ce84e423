package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/builder"
	"github.com/aretw0/arbor/pkg/executor"
	"github.com/aretw0/arbor/pkg/model"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greet = `
id: greet
states:
  - id: ask
    type: view
    transitions:
      - on: submit
        to: done
        bind:
          - name: name
            value: flowScope.name
  - id: done
    type: end
    view: bye
    output:
      - name: name
        value: flowScope.name
`

func newExecutor(t *testing.T) (*executor.Executor, *memory.Store) {
	t.Helper()
	m, err := model.Parse([]byte(greet))
	require.NoError(t, err)
	models := model.NewModelRegistry()
	models.Add(m)

	views := builder.NewTemplateViews()
	require.NoError(t, views.Add("ask", "What is your name?"))
	require.NoError(t, views.Add("bye", "Bye {{.name}}"))

	flows := registry.NewFlowRegistry()
	builder.RegisterAll(flows, models, builder.New(builder.NewServices(builder.WithViewFactory(views))))

	store := memory.NewStore()
	return executor.New(flows, store), store
}

func TestRunner_TextConversation(t *testing.T) {
	exec, store := newExecutor(t)
	var out bytes.Buffer
	in := strings.NewReader("bogus\n\nsubmit name=Ada\n")

	r := runner.New(exec, runner.WithHandler(runner.NewTextHandler(in, &out)))
	resp, err := r.Run(context.Background(), "greet", nil)
	require.NoError(t, err)
	require.True(t, resp.Ended)
	assert.Equal(t, "done", resp.Outcome.ID)

	text := out.String()
	assert.Contains(t, text, "What is your name?")
	assert.Contains(t, text, "[System] ")
	assert.Contains(t, text, "bogus")
	assert.Contains(t, text, "Bye Ada")
	assert.Contains(t, text, "Flow ended: done")
	assert.Contains(t, text, "name = Ada")

	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys, "ended executions are removed")
}

func TestRunner_SuspendAndContinue(t *testing.T) {
	exec, _ := newExecutor(t)
	ctx := context.Background()

	var out bytes.Buffer
	first := runner.New(exec, runner.WithHandler(runner.NewTextHandler(strings.NewReader("quit\n"), &out)))
	resp, err := first.Run(ctx, "greet", nil)
	require.NoError(t, err)
	require.True(t, resp.Paused)
	assert.Equal(t, "ask", resp.StateID)

	out.Reset()
	second := runner.New(exec, runner.WithHandler(runner.NewTextHandler(strings.NewReader("submit name=Grace"), &out)))
	resp, err = second.Continue(ctx, resp.Key)
	require.NoError(t, err)
	assert.True(t, resp.Ended)
	assert.Contains(t, out.String(), "What is your name?")
	assert.Contains(t, out.String(), "Bye Grace")
}

func TestRunner_UnknownFlow(t *testing.T) {
	exec, _ := newExecutor(t)
	r := runner.New(exec, runner.WithHandler(runner.NewTextHandler(strings.NewReader(""), &bytes.Buffer{})))
	_, err := r.Run(context.Background(), "nope", nil)
	assert.ErrorContains(t, err, "launch nope")
}

func TestRunner_JSONConversation(t *testing.T) {
	exec, _ := newExecutor(t)
	var out bytes.Buffer
	in := strings.NewReader(`"bogus"` + "\n" + `{"event":"submit","params":{"name":"Ada"}}` + "\n")

	r := runner.New(exec, runner.WithHandler(runner.NewJSONHandler(in, &out)))
	_, err := r.Run(context.Background(), "greet", nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var first ports.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.True(t, first.Paused)
	assert.Equal(t, "What is your name?", first.Rendering.Content)

	assert.Contains(t, lines[1], `"system"`)

	var last ports.Response
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.True(t, last.Ended)
	assert.Equal(t, "Bye Ada", last.Rendering.Content)
	assert.Equal(t, "Ada", last.Outcome.Output.Get("name"))
}
