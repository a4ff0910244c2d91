package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/initializ/mlpipe/config"
	"github.com/initializ/mlpipe/types"
	"github.com/initializ/mlpipe/validate"
)

var strict bool

var validateCmd = &cobra.Command{
	Use:   "validate [key=value...]",
	Short: "Validate config.yaml for the selected stages",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfgPath, err := configPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadRunConfig(cfgPath, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	result := validate.ValidateRunConfig(cfg)
	printResult(result)

	if strict && len(result.Warnings) > 0 {
		return fmt.Errorf("validation failed: %d warning(s) treated as errors in strict mode", len(result.Warnings))
	}
	if !result.IsValid() {
		return fmt.Errorf("validation failed: %d error(s)", len(result.Errors))
	}

	fmt.Fprintln(stdout, "Validation passed.")
	return nil
}

func printResult(result *validate.ValidationResult) {
	for _, w := range result.Warnings {
		fmt.Fprintf(stderr, "WARNING: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(stderr, "ERROR: %s\n", e)
	}
}

// loadValidated loads the config with overrides and fails on validation errors.
func loadValidated(overrides []string) (*types.RunConfig, error) {
	cfgPath, err := configPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadRunConfig(cfgPath, overrides)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := validate.ValidateRunConfig(cfg)
	printResult(result)
	if !result.IsValid() {
		return nil, fmt.Errorf("config validation failed: %d error(s)", len(result.Errors))
	}
	return cfg, nil
}
