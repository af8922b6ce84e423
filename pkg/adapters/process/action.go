package process

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// EnvPrefix prefixes the environment variables carrying parameters.
const EnvPrefix = "ARBOR_ARG_"

// Action runs a configured command. Parameters travel as environment
// variables, never as command line arguments, so values cannot inject
// flags. A zero exit stores the output in flow scope and signals success;
// a non-zero exit signals "error" with exitCode and stderr attributes.
type Action struct {
	Config  CommandConfig
	BaseDir string
	params  schema.Schema
}

// NewAction creates the action of c, run from baseDir.
func NewAction(c CommandConfig, baseDir string) (*Action, error) {
	s, err := c.schema()
	if err != nil {
		return nil, err
	}
	return &Action{Config: c, BaseDir: baseDir, params: s}, nil
}

// Actions creates the actions of every command, keyed by name.
func Actions(commands []CommandConfig, baseDir string) (map[string]domain.Action, error) {
	out := make(map[string]domain.Action, len(commands))
	for _, c := range commands {
		a, err := NewAction(c, baseDir)
		if err != nil {
			return nil, err
		}
		out[c.Name] = a
	}
	return out, nil
}

func (a *Action) String() string { return "command:" + a.Config.Name }

func (a *Action) Execute(rc domain.RequestContext) (*domain.Event, error) {
	env := rc.Env()
	data := make(map[string]any, len(a.params))
	for name := range a.params {
		if v, ok := env[name]; ok {
			data[name] = v
		}
	}
	if err := schema.Validate(a.params, data); err != nil {
		return nil, fmt.Errorf("command '%s': %w", a.Config.Name, err)
	}

	cmd := exec.CommandContext(rc.Context(), a.Config.Command, a.Config.Args...)
	cmd.Dir = a.BaseDir
	cmd.Env = append(cmd.Environ(), a.environment(data)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("command '%s': %w", a.Config.Name, err)
		}
		ev := domain.Error(a.Config.Name)
		ev.Attributes.Put("exitCode", exitErr.ExitCode())
		ev.Attributes.Put("stderr", strings.TrimSpace(stderr.String()))
		return ev, nil
	}

	result := a.Config.Result
	if result == "" {
		result = a.Config.Name
	}
	rc.FlowScope().Put(result, parseOutput(stdout.String()))
	return domain.Success(a.Config.Name), nil
}

func (a *Action) environment(data map[string]any) []string {
	env := make([]string, 0, len(a.Config.Environment)+len(data))
	for k, v := range a.Config.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range data {
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+stringify(v))
	}
	sort.Strings(env)
	return env
}

// stringify writes primitives with fmt and everything else as JSON.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprint(v)
}

// parseOutput decodes JSON objects and arrays, and returns anything else
// as trimmed text.
func parseOutput(out string) any {
	trimmed := strings.TrimSpace(out)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
