package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/pkg/schema"
	"gopkg.in/yaml.v3"
)

// CommandConfig declares a local command callable as a named flow action.
type CommandConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	// Params names the attributes passed to the command, with their types
	// ("string", "int", "[string]"...). Values are read from the request
	// environment and must all be present.
	Params map[string]string `yaml:"params" json:"params"`
	// Result is the flow scope attribute receiving the output. Defaults to Name.
	Result string `yaml:"result" json:"result"`
}

// ConfigFile represents the structure of commands.yaml.
type ConfigFile struct {
	Commands []CommandConfig `yaml:"commands" json:"commands"`
}

// LoadCommands reads a configuration file (YAML or JSON). A missing file
// yields no commands.
func LoadCommands(path string) ([]CommandConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read commands config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	var out []CommandConfig
	for _, c := range cfg.Commands {
		if c.Name == "" {
			continue
		}
		if c.Command == "" {
			return nil, fmt.Errorf("command '%s' has no command line", c.Name)
		}
		out = append(out, c)
	}
	return out, nil
}

func (c CommandConfig) schema() (schema.Schema, error) {
	if len(c.Params) == 0 {
		return nil, nil
	}
	s, err := schema.ParseTypeMap(c.Params)
	if err != nil {
		return nil, fmt.Errorf("command '%s': %w", c.Name, err)
	}
	return s, nil
}
