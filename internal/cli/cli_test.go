package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greetDoc = `---
id: greet
states:
  - id: ask
    type: view
    attributes:
      template: What is your name?
    transitions:
      - on: submit
        to: done
        bind:
          - name: name
            value: flowScope.name
  - id: done
    type: end
    view: bye
    attributes:
      template: Bye {{.name}}
    output:
      - name: name
        value: flowScope.name
---
Asks for a name.`

func signalContext(t *testing.T) *SignalContext {
	t.Helper()
	ctx := NewSignalContext(context.Background())
	t.Cleanup(ctx.Cancel)
	return ctx
}

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)
	tests := []struct {
		url  string
		kind string
	}{
		{"", "memory"},
		{"memory", "memory"},
		{"file:" + t.TempDir(), "file"},
		{"redis://" + mr.Addr() + "/0", "redis"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			p, err := OpenStore(StoreOptions{URL: tt.url}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.kind == "redis", p.Locker != nil)

			ctx := context.Background()
			exec := domain.NewExecution("k1", "greet")
			require.NoError(t, p.Store.Save(ctx, exec))
			loaded, err := p.Store.Load(ctx, "k1")
			require.NoError(t, err)
			assert.Equal(t, "greet", loaded.FlowID)
		})
	}

	_, err := OpenStore(StoreOptions{URL: "ftp://nope"}, nil)
	assert.ErrorContains(t, err, "unknown store")
}

func TestOpenStore_Encryption(t *testing.T) {
	dir := t.TempDir()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	p, err := OpenStore(StoreOptions{URL: "file:" + dir, EncryptionKeys: []string{key}, MaskPatterns: []string{"password"}}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	exec := domain.NewExecution("k1", "greet")
	exec.Conversation.Put("password", "hunter2")
	exec.Conversation.Put("name", "Ada")
	require.NoError(t, p.Store.Save(ctx, exec))

	raw, err := os.ReadFile(filepath.Join(dir, "k1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Ada")

	loaded, err := p.Store.Load(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", loaded.Conversation.Get("name"))
	assert.Equal(t, "***", loaded.Conversation.Get("password"))

	_, err = OpenStore(StoreOptions{EncryptionKeys: []string{"c2hvcnQ="}}, nil)
	assert.ErrorContains(t, err, "want 32 bytes")
	_, err = OpenStore(StoreOptions{EncryptionKeys: []string{"%%%"}}, nil)
	assert.ErrorContains(t, err, "encryption key 0")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", "json")
	require.NoError(t, err)
	logger.Debug("hello", "error", "boom")
	assert.Contains(t, buf.String(), `"err":"boom"`)

	_, err = NewLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = NewLogger(&buf, "info", "xml")
	assert.ErrorContains(t, err, "unknown log format")
}

func TestRun_Text(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{"greet.md": greetDoc})
	var out bytes.Buffer
	err := Run(signalContext(t), RunOptions{Dir: dir, FlowID: "greet"}, strings.NewReader("submit name=Ada\n"), &out, logging.NewNop())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "What is your name?")
	assert.Contains(t, out.String(), "Bye Ada")
	assert.Contains(t, out.String(), "name = Ada")
}

func TestRun_ResumeFromFileStore(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{"greet.md": greetDoc})
	store := StoreOptions{URL: "file:" + t.TempDir()}
	ctx := signalContext(t)

	var out bytes.Buffer
	require.NoError(t, Run(ctx, RunOptions{Dir: dir, FlowID: "greet", Store: store}, strings.NewReader(""), &out, logging.NewNop()))
	m := regexp.MustCompile(`--resume (\S+)`).FindStringSubmatch(out.String())
	require.Len(t, m, 2, out.String())

	out.Reset()
	require.NoError(t, Run(ctx, RunOptions{Dir: dir, Resume: m[1], Store: store}, strings.NewReader("submit name=Grace\n"), &out, logging.NewNop()))
	assert.Contains(t, out.String(), "Bye Grace")
}

func TestRun_JSON(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{"greet.md": greetDoc})
	var out bytes.Buffer
	in := strings.NewReader(`{"event":"submit","params":{"name":"Ada"}}` + "\n")
	require.NoError(t, Run(signalContext(t), RunOptions{Dir: dir, FlowID: "greet", JSON: true}, in, &out, logging.NewNop()))
	assert.Contains(t, out.String(), `"content":"Bye Ada"`)
	assert.NotContains(t, out.String(), ">>>")
}

func TestRun_Errors(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{"greet.md": greetDoc})
	ctx := signalContext(t)
	assert.ErrorContains(t, Run(ctx, RunOptions{Dir: dir}, strings.NewReader(""), io.Discard, logging.NewNop()), "required")
	assert.ErrorContains(t, Run(ctx, RunOptions{Dir: dir, FlowID: "greet", Input: "{"}, strings.NewReader(""), io.Discard, logging.NewNop()), "--input")
}

const shoutDoc = `---
id: shout
states:
  - id: call
    type: action
    actions:
      - call: upper
    transitions:
      - on: success
        to: done
  - id: done
    type: end
    view: shouted
    attributes:
      template: "{{.upper}}!"
---
Shouts the input word.`

const commandsYAML = `commands:
  - name: upper
    command: sh
    args: ["-c", "printf '%s' \"$ARBOR_ARG_WORD\" | tr a-z A-Z"]
    params:
      word: string
`

func TestRun_CommandActions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := testutils.WriteFlows(t, map[string]string{"shout.md": shoutDoc})
	commands := filepath.Join(t.TempDir(), "commands.yaml")
	require.NoError(t, os.WriteFile(commands, []byte(commandsYAML), 0644))

	var out bytes.Buffer
	opts := RunOptions{Dir: dir, FlowID: "shout", Commands: commands, Input: `{"word":"hey"}`}
	require.NoError(t, Run(signalContext(t), opts, strings.NewReader(""), &out, logging.NewNop()))
	assert.Contains(t, out.String(), "HEY!")

	var report bytes.Buffer
	assert.Error(t, Validate(AppConfig{Dir: dir}, &report, logging.NewNop()), "upper is unknown without the commands file")
	assert.Contains(t, report.String(), "no action found with id 'upper'")
	report.Reset()
	require.NoError(t, Validate(AppConfig{Dir: dir, Commands: commands}, &report, logging.NewNop()))
	assert.Contains(t, report.String(), "✓ shout")
}

func TestValidate(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{
		"greet.md":  greetDoc,
		"broken.md": "---\nstates: [{id: a, type: action, actions: [{call: nope}]}]\n---\n",
	})
	var out bytes.Buffer
	err := Validate(AppConfig{Dir: dir}, &out, logging.NewNop())
	assert.ErrorContains(t, err, "1 of 2 flows are invalid")
	assert.Contains(t, out.String(), "✓ greet")
	assert.Contains(t, out.String(), "✗ broken: ")

	assert.Error(t, Validate(AppConfig{Dir: t.TempDir()}, io.Discard, logging.NewNop()))
}

func TestGraph(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{"greet.md": greetDoc})
	var out bytes.Buffer
	require.NoError(t, Graph(context.Background(), GraphOptions{Dir: dir}, &out, logging.NewNop()))
	assert.Contains(t, out.String(), `ask[/"ask"/]`)
	assert.Contains(t, out.String(), `ask -- "submit" --> done`)
}

func TestGraph_ExecutionOverlay(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{"greet.md": greetDoc})
	store := StoreOptions{URL: "file:" + t.TempDir()}

	var out bytes.Buffer
	require.NoError(t, Run(signalContext(t), RunOptions{Dir: dir, FlowID: "greet", Store: store}, strings.NewReader(""), &out, logging.NewNop()))
	key := regexp.MustCompile(`--resume (\S+)`).FindStringSubmatch(out.String())[1]

	out.Reset()
	require.NoError(t, Graph(context.Background(), GraphOptions{Dir: dir, Execution: key, Store: store}, &out, logging.NewNop()))
	assert.Contains(t, out.String(), "class ask current;")
}

func TestNewServer(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{"greet.md": greetDoc})
	handler, app, err := NewServer(ServeOptions{Dir: dir, Metrics: true}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"greet"}, app.FlowIDs())

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/flows/greet", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `arbor_sessions_started_total{flow="greet"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestServe_StopsOnCancel(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{"greet.md": greetDoc})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ServeOptions{Dir: dir, Addr: "127.0.0.1:0"}, logging.NewNop()) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestOpenStore_InvalidMaskPattern(t *testing.T) {
	_, err := OpenStore(StoreOptions{MaskPatterns: []string{"("}}, nil)
	assert.ErrorContains(t, err, "invalid mask pattern")
}
