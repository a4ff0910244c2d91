package pipeline

import (
	"fmt"
	"strings"
)

// AllSteps is the main.steps value that selects every stage.
const AllSteps = "all"

// Directive says which stages a run should execute.
type Directive struct {
	all   bool
	names []string
}

// All returns the directive selecting the full catalog.
func All() Directive { return Directive{all: true} }

// Subset returns a directive selecting the named stages. Order is irrelevant.
func Subset(names ...string) Directive {
	return Directive{names: append([]string(nil), names...)}
}

// IsAll reports whether d selects every stage.
func (d Directive) IsAll() bool { return d.all }

// Names returns the stage names of a subset directive.
func (d Directive) Names() []string { return append([]string(nil), d.names...) }

// ParseDirective parses a main.steps value: "all" or a comma separated list.
func ParseDirective(s string) (Directive, error) {
	s = strings.TrimSpace(s)
	if s == AllSteps {
		return All(), nil
	}

	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return Directive{}, &ConfigError{Key: "main.steps", Reason: "no stages selected"}
	}
	return Subset(names...), nil
}

// Select expands d into stages in canonical order. Unknown names are
// rejected rather than skipped.
func Select(d Directive) ([]Stage, error) {
	if d.all {
		return Catalog(), nil
	}

	requested := make(map[string]bool, len(d.names))
	var unknown []string
	for _, n := range d.names {
		if _, ok := byName[n]; !ok {
			unknown = append(unknown, n)
			continue
		}
		requested[n] = true
	}
	if len(unknown) > 0 {
		return nil, &ConfigError{
			Key:    "main.steps",
			Reason: fmt.Sprintf("unknown stage(s) %s (known: %s)", strings.Join(unknown, ", "), strings.Join(Names(), ", ")),
		}
	}
	if len(requested) == 0 {
		return nil, &ConfigError{Key: "main.steps", Reason: "no stages selected"}
	}

	var out []Stage
	for _, s := range catalog {
		if requested[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}

// Names returns the canonical stage names in order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = s.Name
	}
	return names
}
