// Package types holds the run configuration loaded from config.yaml.
package types

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backends recognised by runtime.backend.
const (
	BackendMLflow = "mlflow"
	BackendDagger = "dagger"
)

// RunConfig represents a parsed config.yaml. The typed sections cover the
// keys the driver itself consumes; stage parameters are looked up in the
// raw tree by dotted path so the stage catalog owns their shape.
type RunConfig struct {
	Main    MainConfig    `yaml:"main"`
	Runtime RuntimeConfig `yaml:"runtime,omitempty"`

	tree map[string]any
}

// MainConfig is the main section.
type MainConfig struct {
	ProjectName          string `yaml:"project_name"`
	ExperimentName       string `yaml:"experiment_name"`
	Steps                string `yaml:"steps"`
	ComponentsRepository string `yaml:"components_repository"`
	ProjectRoot          string `yaml:"project_root,omitempty"`
}

// RuntimeConfig selects and configures the stage invoker.
type RuntimeConfig struct {
	Backend   string `yaml:"backend,omitempty"`    // mlflow (default), dagger
	MLflowBin string `yaml:"mlflow_bin,omitempty"` // default: mlflow
	Image     string `yaml:"image,omitempty"`      // dagger base image
	EnvFile   string `yaml:"env_file,omitempty"`   // default: .env
}

// MissingKeyError reports a dotted path absent from the configuration.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("config key %s is required", e.Key)
}

// ParseRunConfig parses raw YAML bytes into a RunConfig.
func ParseRunConfig(data []byte) (*RunConfig, error) {
	tree, err := DecodeYAMLMap(data)
	if err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return NewRunConfig(tree)
}

// NewRunConfig builds a RunConfig from an already decoded tree.
func NewRunConfig(tree map[string]any) (*RunConfig, error) {
	raw, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encoding run config: %w", err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decoding run config: %w", err)
	}
	cfg.tree = tree
	return &cfg, nil
}

// Tree returns the raw configuration tree. Callers must not modify it.
func (c *RunConfig) Tree() map[string]any {
	return c.tree
}

// Lookup returns the value at a dotted path such as "etl.min_price".
func (c *RunConfig) Lookup(path string) (any, error) {
	var cur any = c.tree
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, &MissingKeyError{Key: path}
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, &MissingKeyError{Key: path}
		}
	}
	return cur, nil
}

// Sections returns the top-level section names in sorted order.
func (c *RunConfig) Sections() []string {
	names := make([]string, 0, len(c.tree))
	for k := range c.tree {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
