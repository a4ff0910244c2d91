package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/initializ/mlpipe/internal/tui"
	"github.com/initializ/mlpipe/pipeline"
	"github.com/initializ/mlpipe/runtime"
	"github.com/initializ/mlpipe/types"
)

var (
	runSteps      string
	runDryRun     bool
	runBackend    string
	runEnvFile    string
	runScratchDir string
)

var runCmd = &cobra.Command{
	Use:   "run [key=value...]",
	Short: "Run the selected pipeline stages in order",
	Long: "Run executes the stages selected by main.steps (or --steps) one at a time and stops " +
		"at the first failure. Positional key=value arguments override config.yaml entries.",
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSteps, "steps", "", `stages to run: "all" or a comma separated list (overrides main.steps)`)
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the stage invocations without running them")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "stage backend: mlflow or dagger (overrides runtime.backend)")
	runCmd.Flags().StringVar(&runEnvFile, "env", "", "path to .env file forwarded to stages (default runtime.env_file or .env)")
	runCmd.Flags().StringVar(&runScratchDir, "scratch-dir", "", "parent directory for the per-run scratch workspace")
}

func runRun(cmd *cobra.Command, args []string) error {
	overrides := append([]string(nil), args...)
	if runSteps != "" {
		overrides = append(overrides, "main.steps="+runSteps)
	}

	cfg, err := loadValidated(overrides)
	if err != nil {
		return err
	}

	stages, err := pipeline.StagesFor(cfg, "")
	if err != nil {
		return err
	}

	envVars, err := runtime.LoadEnvFile(envFilePath(cfg))
	if err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}

	logger := runtime.NewJSONLogger(stderr, verbose)

	invoker, err := newInvoker(cfg, envVars, logger)
	if err != nil {
		return err
	}
	if c, ok := invoker.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := pipeline.NewDriver(invoker,
		pipeline.WithLogger(logger),
		pipeline.WithScratchParent(runScratchDir),
	)

	report, runErr := driver.Run(ctx, cfg, stages)
	if report != nil && len(report.Stages) > 0 {
		printReport(report, stages)
	}
	if runErr != nil {
		return describeRunError(runErr)
	}
	return nil
}

func backendFor(cfg *types.RunConfig) string {
	switch {
	case runDryRun:
		return "dry-run"
	case runBackend != "":
		return runBackend
	case cfg.Runtime.Backend != "":
		return cfg.Runtime.Backend
	default:
		return types.BackendMLflow
	}
}

func newInvoker(cfg *types.RunConfig, envVars map[string]string, logger runtime.Logger) (runtime.Invoker, error) {
	switch backend := backendFor(cfg); backend {
	case "dry-run":
		rec := runtime.NewRecorder()
		rec.Out = stdout
		return rec, nil
	case types.BackendMLflow:
		return runtime.NewMLflowInvoker(cfg.Runtime.MLflowBin, logger, runtime.WithBaseEnv(envVars)), nil
	case types.BackendDagger:
		var logOut io.Writer
		if verbose {
			logOut = stderr
		}
		return runtime.NewDaggerInvoker(cfg.Runtime.Image, envVars, logOut, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", backend, types.BackendMLflow, types.BackendDagger)
	}
}

func envFilePath(cfg *types.RunConfig) string {
	path := runEnvFile
	if path == "" {
		path = cfg.Runtime.EnvFile
	}
	if path == "" {
		path = ".env"
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Main.ProjectRoot, path)
	}
	return path
}

func printReport(report *pipeline.Report, stages []pipeline.Stage) {
	if styledOutput() {
		styles := tui.NewStyleSet(tui.DetectTheme(themeOverride))
		fmt.Fprint(stdout, tui.RenderReport(styles, report, stages))
		return
	}

	for _, r := range report.Stages {
		fmt.Fprintf(stdout, "%-22s %-9s %s\n", r.Stage, r.Status, r.Duration.Round(time.Millisecond))
	}
}

// describeRunError prints stage parameters for failed stages and returns
// the error for cobra to report.
func describeRunError(err error) error {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		fmt.Fprintf(stderr, "ERROR: stage %s failed with parameters:\n", se.Stage)
		for _, k := range se.Params.Keys() {
			fmt.Fprintf(stderr, "  %s=%s\n", k, se.Params[k])
		}
		return err
	}

	var ce *pipeline.ConfigError
	if errors.As(err, &ce) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return err
}
