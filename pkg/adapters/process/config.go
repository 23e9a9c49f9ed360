package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Shell describes how a script string is handed to an interpreter:
// Command and Args are followed by the script as the last argument.
type Shell struct {
	Name    string   `yaml:"name" json:"name"`
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args" json:"args"`
}

// ConfigFile represents the structure of shells.yaml
type ConfigFile struct {
	Shells []Shell `yaml:"shells" json:"shells"`
}

// LoadShells reads a configuration file (YAML or JSON) and returns the shells it declares by name.
func LoadShells(path string) (map[string]Shell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Shell{}, nil
		}
		return nil, fmt.Errorf("failed to read shells config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	shells := make(map[string]Shell)
	for _, sh := range cfg.Shells {
		if sh.Name == "" || sh.Command == "" {
			continue
		}
		shells[sh.Name] = sh
	}
	return shells, nil
}
