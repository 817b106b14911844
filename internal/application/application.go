// Package application loads the deployment metadata served to the client:
// flows, list schemas and microbiology test defaults.
package application

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

type Application struct {
	Name              string              `yaml:"name"`
	Flows             map[string]any      `yaml:"flows"`
	ListSchemas       map[string][]string `yaml:"list_schemas"`
	MicroTestDefaults map[string]any      `yaml:"micro_test_defaults"`
}

// Load reads the application file at path. An empty path loads the
// embedded default.
func Load(path string) (*Application, error) {
	data := defaultConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading application file %s: %w", path, err)
		}
		data = raw
	}
	return Parse(data)
}

func Parse(data []byte) (*Application, error) {
	var app Application
	if err := yaml.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("parsing application file: %w", err)
	}
	if app.Name == "" {
		return nil, errors.New("application file: name is required")
	}
	if app.Flows == nil {
		app.Flows = map[string]any{}
	}
	if app.ListSchemas == nil {
		app.ListSchemas = map[string][]string{}
	}
	if app.MicroTestDefaults == nil {
		app.MicroTestDefaults = map[string]any{}
	}
	return &app, nil
}
