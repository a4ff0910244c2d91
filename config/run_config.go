// Package config loads config.yaml and applies command-line overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/initializ/mlpipe/types"
)

// LoadRunConfig reads config.yaml at path, applies key=value overrides in
// order and resolves main.project_root against the config file's directory.
func LoadRunConfig(path string, overrides []string) (*types.RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config %s: %w", path, err)
	}

	tree, err := types.DecodeYAMLMap(data)
	if err != nil {
		return nil, fmt.Errorf("parsing run config %s: %w", path, err)
	}

	for _, o := range overrides {
		if err := ApplyOverride(tree, o); err != nil {
			return nil, err
		}
	}

	cfg, err := types.NewRunConfig(tree)
	if err != nil {
		return nil, err
	}

	root := cfg.Main.ProjectRoot
	if root == "" {
		root = filepath.Dir(path)
	} else if !filepath.IsAbs(root) {
		root = filepath.Join(filepath.Dir(path), root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	cfg.Main.ProjectRoot = abs

	return cfg, nil
}

// ApplyOverride sets a dotted key in tree from a "key=value" string. The
// value is decoded as YAML so numbers, booleans and flow mappings keep
// their type. Intermediate sections are created as needed.
func ApplyOverride(tree map[string]any, override string) error {
	key, raw, ok := strings.Cut(override, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("invalid override %q: expected key=value", override)
	}

	val, err := types.DecodeYAML([]byte(raw))
	if err != nil {
		return fmt.Errorf("invalid override %q: %w", override, err)
	}

	parts := strings.Split(key, ".")
	cur := tree
	for _, p := range parts[:len(parts)-1] {
		if p == "" {
			return fmt.Errorf("invalid override key %q", key)
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			if existing, present := cur[p]; present && existing != nil {
				return fmt.Errorf("override %q: %s is not a section", override, p)
			}
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}

	last := parts[len(parts)-1]
	if last == "" {
		return fmt.Errorf("invalid override key %q", key)
	}
	cur[last] = val
	return nil
}
