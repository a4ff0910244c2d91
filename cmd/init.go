package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/initializ/mlpipe/internal/tui"
	"github.com/initializ/mlpipe/internal/tui/steps"
	"github.com/initializ/mlpipe/pipeline"
	"github.com/initializ/mlpipe/templates"
	"github.com/initializ/mlpipe/types"
	"github.com/initializ/mlpipe/validate"
)

// initOptions holds the answers used to render config.yaml.
type initOptions struct {
	ProjectName          string
	ExperimentName       string
	ComponentsRepository string
	Sample               string
	Steps                []string
	Backend              string
	NonInteractive       bool
	Force                bool
}

// templateData is passed to the init templates.
type templateData struct {
	ProjectName          string
	ExperimentName       string
	ComponentsRepository string
	Sample               string
	Steps                string
	Backend              string
	StageNames           string
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a config.yaml for a new pipeline project",
	Long:  "Write config.yaml (at --config) with defaults for every stage, interactively or from flags.",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringP("project", "p", "", "W&B project name (main.project_name)")
	initCmd.Flags().StringP("experiment", "e", "", "experiment name (main.experiment_name)")
	initCmd.Flags().StringP("components-repository", "r", "", "repository holding the shared components")
	initCmd.Flags().String("sample", "", "data sample fetched by the download stage")
	initCmd.Flags().StringSlice("steps", nil, "stages to run by default (default all)")
	initCmd.Flags().String("backend", types.BackendMLflow, "stage backend: mlflow or dagger")
	initCmd.Flags().Bool("non-interactive", false, "run without interactive prompts")
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	opts := &initOptions{}
	opts.ProjectName, _ = cmd.Flags().GetString("project")
	opts.ExperimentName, _ = cmd.Flags().GetString("experiment")
	opts.ComponentsRepository, _ = cmd.Flags().GetString("components-repository")
	opts.Sample, _ = cmd.Flags().GetString("sample")
	opts.Steps, _ = cmd.Flags().GetStringSlice("steps")
	opts.Backend, _ = cmd.Flags().GetString("backend")
	opts.NonInteractive, _ = cmd.Flags().GetBool("non-interactive")
	opts.Force, _ = cmd.Flags().GetBool("force")

	interactive := !opts.NonInteractive && term.IsTerminal(int(os.Stdin.Fd()))

	var err error
	if interactive {
		err = collectInteractive(opts)
	} else {
		err = collectNonInteractive(opts)
	}
	if err != nil {
		return err
	}

	cfgPath, err := configPath()
	if err != nil {
		return err
	}
	return scaffold(cfgPath, opts)
}

func collectInteractive(opts *initOptions) error {
	styles := tui.NewStyleSet(tui.DetectTheme(themeOverride))
	wizard := tui.NewWizardModel(styles, []tui.Step{
		steps.NewProjectStep(styles, opts.ProjectName),
		steps.NewExperimentStep(styles, opts.ExperimentName),
		steps.NewRepositoryStep(styles, opts.ComponentsRepository),
		steps.NewSampleStep(styles, opts.Sample),
		steps.NewStagesStep(styles, opts.Steps),
		steps.NewReviewStep(styles),
	}, appVersion)

	final, err := tea.NewProgram(wizard, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	w, ok := final.(tui.WizardModel)
	if !ok {
		return fmt.Errorf("unexpected wizard model %T", final)
	}
	if err := w.Err(); err != nil {
		return err
	}
	if !w.Done() {
		return tui.ErrCancelled
	}

	ctx := w.Context()
	opts.ProjectName = ctx.ProjectName
	opts.ExperimentName = ctx.ExperimentName
	opts.ComponentsRepository = ctx.ComponentsRepository
	opts.Sample = ctx.Sample
	opts.Steps = ctx.Steps
	return nil
}

func collectNonInteractive(opts *initOptions) error {
	if opts.ProjectName == "" {
		return fmt.Errorf("--project is required in non-interactive mode")
	}
	if opts.ComponentsRepository == "" {
		return fmt.Errorf("--components-repository is required in non-interactive mode")
	}
	if opts.ExperimentName == "" {
		opts.ExperimentName = "development"
	}
	if opts.Sample == "" {
		opts.Sample = "sample1.csv"
	}
	if len(opts.Steps) == 0 {
		opts.Steps = []string{pipeline.AllSteps}
	}

	d, err := pipeline.ParseDirective(strings.Join(opts.Steps, ","))
	if err != nil {
		return err
	}
	if _, err := pipeline.Select(d); err != nil {
		return err
	}

	switch opts.Backend {
	case "", types.BackendMLflow, types.BackendDagger:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", opts.Backend, types.BackendMLflow, types.BackendDagger)
	}
	return nil
}

func buildTemplateData(opts *initOptions) templateData {
	backend := opts.Backend
	if backend == "" {
		backend = types.BackendMLflow
	}
	return templateData{
		ProjectName:          opts.ProjectName,
		ExperimentName:       opts.ExperimentName,
		ComponentsRepository: opts.ComponentsRepository,
		Sample:               opts.Sample,
		Steps:                strings.Join(opts.Steps, ","),
		Backend:              backend,
		StageNames:           strings.Join(pipeline.Names(), ", "),
	}
}

func renderTemplate(name string, data templateData) ([]byte, error) {
	content, err := templates.GetInitTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// scaffold writes config.yaml at cfgPath and a .env stub beside it. The
// rendered config must pass validation before anything is written.
func scaffold(cfgPath string, opts *initOptions) error {
	if !opts.Force {
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
		}
	}

	data := buildTemplateData(opts)
	rendered, err := renderTemplate("config.yaml.tmpl", data)
	if err != nil {
		return err
	}

	cfg, err := types.ParseRunConfig(rendered)
	if err != nil {
		return fmt.Errorf("generated config does not parse: %w", err)
	}
	result := validate.ValidateRunConfig(cfg)
	if !result.IsValid() {
		printResult(result)
		return fmt.Errorf("generated config is invalid: %d error(s)", len(result.Errors))
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := os.WriteFile(cfgPath, rendered, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfgPath, err)
	}

	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		env, err := renderTemplate("env.tmpl", data)
		if err != nil {
			return err
		}
		if err := os.WriteFile(envPath, env, 0o600); err != nil {
			return fmt.Errorf("writing .env file: %w", err)
		}
	}

	fmt.Fprintf(stdout, "Wrote %s\n", cfgPath)
	fmt.Fprintf(stdout, "Next: mlpipe validate --config %s && mlpipe run --config %s\n", cfgPath, cfgPath)
	return nil
}
