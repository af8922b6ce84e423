package process_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/process"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lookupFlow = `
id: lookup
states:
  - id: ask
    type: view
    transitions:
      - on: submit
        to: run
        bind:
          - name: email
            value: flowScope.email
  - id: run
    type: action
    actions:
      - call: lookup
    transitions:
      - on: success
        to: found
      - on: error
        to: failed
  - id: found
    type: end
    output:
      - name: account
        value: flowScope.account
  - id: failed
    type: end
`

func newApp(t *testing.T, script string, params map[string]string) *arbor.App {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	actions, err := process.Actions([]process.CommandConfig{{
		Name:    "lookup",
		Command: "sh",
		Args:    []string{"-c", script},
		Params:  params,
		Result:  "account",
	}}, t.TempDir())
	require.NoError(t, err)

	app, err := arbor.New("", arbor.WithLoader(memory.NewLoader(map[string]string{"lookup": lookupFlow})),
		arbor.WithAction("lookup", actions["lookup"]))
	require.NoError(t, err)
	return app
}

func run(t *testing.T, app *arbor.App, email string) (string, *attr.Map, error) {
	t.Helper()
	ctx := context.Background()
	resp, err := app.Launch(ctx, "lookup", nil)
	require.NoError(t, err)
	resp, err = app.Resume(ctx, resp.Key, "submit", attr.Of("email", email))
	if err != nil {
		return "", nil, err
	}
	require.True(t, resp.Ended)
	return resp.Outcome.ID, resp.Outcome.Output, nil
}

func TestAction_JSONOutput(t *testing.T) {
	app := newApp(t, `printf '{"email":"%s","plan":"pro"}' "$ARBOR_ARG_EMAIL"`, map[string]string{"email": "string"})
	outcome, output, err := run(t, app, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "found", outcome)
	assert.Equal(t, map[string]any{"email": "ada@example.com", "plan": "pro"}, output.Get("account"))
}

func TestAction_TextOutput(t *testing.T) {
	app := newApp(t, `echo "  hello $ARBOR_ARG_EMAIL  "`, map[string]string{"email": "string"})
	_, output, err := run(t, app, "ada")
	require.NoError(t, err)
	assert.Equal(t, "hello ada", output.Get("account"))
}

func TestAction_NonZeroExitSignalsError(t *testing.T) {
	app := newApp(t, `echo boom >&2; exit 3`, nil)
	outcome, _, err := run(t, app, "ada")
	require.NoError(t, err)
	assert.Equal(t, "failed", outcome)
}

func TestAction_ParamsAreValidated(t *testing.T) {
	app := newApp(t, `true`, map[string]string{"email": "string", "age": "int"})
	_, _, err := run(t, app, "ada")
	var verr *schema.AggregateError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), `field "age": required`)
}

func TestActions_BadParamType(t *testing.T) {
	_, err := process.Actions([]process.CommandConfig{{Name: "x", Command: "true", Params: map[string]string{"a": "complex"}}}, "")
	assert.ErrorContains(t, err, "unsupported type: complex")
}

func TestLoadCommands(t *testing.T) {
	dir := t.TempDir()

	cmds, err := process.LoadCommands(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cmds)

	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
commands:
  - name: lookup
    command: ./lookup
    args: [--fast]
    params: {email: string}
  - command: ignored-without-name
`), 0644))
	cmds, err = process.LoadCommands(path)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "lookup", cmds[0].Name)
	assert.Equal(t, []string{"--fast"}, cmds[0].Args)
	assert.Equal(t, "string", cmds[0].Params["email"])

	jsonPath := filepath.Join(dir, "commands.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"commands":[{"name":"x"}]}`), 0644))
	_, err = process.LoadCommands(jsonPath)
	assert.ErrorContains(t, err, "has no command line")
}
