package validate

import (
	"fmt"

	"github.com/initializ/mlpipe/pipeline"
	"github.com/initializ/mlpipe/types"
)

var knownSections = map[string]bool{
	"main":       true,
	"etl":        true,
	"data_check": true,
	"modeling":   true,
	"runtime":    true,
}

// ValidationResult holds errors and warnings from config validation.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ValidateRunConfig checks a RunConfig for errors and warnings. Schema
// violations, an unparseable main.steps and missing keys for any selected
// stage are errors.
func ValidateRunConfig(cfg *types.RunConfig) *ValidationResult {
	r := &ValidationResult{}

	errs, err := ValidateRunConfigSchema(cfg.Tree())
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
		return r
	}
	r.Errors = append(r.Errors, errs...)

	for _, s := range cfg.Sections() {
		if !knownSections[s] {
			r.Warnings = append(r.Warnings, fmt.Sprintf("unknown section %q is ignored", s))
		}
	}

	if cfg.Runtime.Backend == types.BackendDagger && cfg.Runtime.Image == "" {
		r.Warnings = append(r.Warnings, "runtime.backend is dagger but runtime.image is empty; using default image")
	}

	if cfg.Main.Steps == "" {
		return r
	}

	directive, err := pipeline.ParseDirective(cfg.Main.Steps)
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
		return r
	}
	stages, err := pipeline.Select(directive)
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
		return r
	}

	resolver := pipeline.NewResolver()
	for _, s := range stages {
		if err := resolver.Check(s, cfg); err != nil {
			r.Errors = append(r.Errors, err.Error())
		}
	}

	return r
}
