package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/initializ/mlpipe/runtime"
	"github.com/initializ/mlpipe/types"
)

// Environment variables carrying the run identity into every stage.
const (
	EnvProject  = "WANDB_PROJECT"
	EnvRunGroup = "WANDB_RUN_GROUP"
	EnvRunID    = "MLPIPE_RUN_ID"
)

// RunContext is the identity shared by every stage of one run. It is
// passed to each invocation explicitly instead of being set on the
// driver's own process environment.
type RunContext struct {
	RunID   string
	Project string
	Group   string
}

// NewRunContext derives the run identity from the main section.
func NewRunContext(cfg *types.RunConfig) RunContext {
	return RunContext{
		RunID:   uuid.NewString(),
		Project: cfg.Main.ProjectName,
		Group:   cfg.Main.ExperimentName,
	}
}

// Env returns the variables exported to stages.
func (rc RunContext) Env() map[string]string {
	return map[string]string{
		EnvProject:  rc.Project,
		EnvRunGroup: rc.Group,
		EnvRunID:    rc.RunID,
	}
}

// Status is the outcome of one stage.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// StageResult records one executed stage.
type StageResult struct {
	Stage    string
	Status   Status
	Duration time.Duration
	Params   runtime.Params
	Err      error
}

// Report summarises a run. It is returned even when the run fails.
type Report struct {
	RunID     string
	Workspace string
	Stages    []StageResult
}

// Failed returns the failed stage result, or nil.
func (r *Report) Failed() *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Status == StatusFailed {
			return &r.Stages[i]
		}
	}
	return nil
}

// Driver runs selected stages one at a time and stops at the first failure.
type Driver struct {
	invoker       runtime.Invoker
	resolver      *Resolver
	logger        runtime.Logger
	scratchParent string
	now           func() time.Time
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithLogger sets the driver's logger.
func WithLogger(l runtime.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// WithScratchParent sets the directory scratch workspaces are created in.
func WithScratchParent(dir string) DriverOption {
	return func(d *Driver) { d.scratchParent = dir }
}

// NewDriver creates a Driver invoking stages through inv.
func NewDriver(inv runtime.Invoker, opts ...DriverOption) *Driver {
	d := &Driver{
		invoker:  inv,
		resolver: NewResolver(),
		logger:   runtime.NopLogger{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// StagesFor selects the stages for cfg. A non-empty steps value takes
// precedence over main.steps.
func StagesFor(cfg *types.RunConfig, steps string) ([]Stage, error) {
	if steps == "" {
		steps = cfg.Main.Steps
	}
	d, err := ParseDirective(steps)
	if err != nil {
		return nil, err
	}
	return Select(d)
}

// checkMain requires the run identity keys, and the components repository
// when a selected stage lives there.
func checkMain(cfg *types.RunConfig, stages []Stage) error {
	var errs []error
	require := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, &ConfigError{Key: key, Reason: "is required"})
		}
	}
	require("main.project_name", cfg.Main.ProjectName)
	require("main.experiment_name", cfg.Main.ExperimentName)
	for _, s := range stages {
		if s.Location.Remote {
			require("main.components_repository", cfg.Main.ComponentsRepository)
			break
		}
	}
	return errors.Join(errs...)
}

// Run executes stages in order. Every stage's configuration is checked
// before the first one is invoked. The scratch workspace is removed on
// every return path.
func (d *Driver) Run(ctx context.Context, cfg *types.RunConfig, stages []Stage) (*Report, error) {
	rc := NewRunContext(cfg)
	report := &Report{RunID: rc.RunID}

	if err := checkMain(cfg, stages); err != nil {
		return report, err
	}
	for _, s := range stages {
		if err := d.resolver.Check(s, cfg); err != nil {
			return report, err
		}
	}

	ws, err := NewWorkspace(d.scratchParent)
	if err != nil {
		return report, err
	}
	report.Workspace = ws.Dir()
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			d.logger.Warn("removing scratch workspace", map[string]any{"dir": report.Workspace, "error": cerr.Error()})
		}
	}()

	d.logger.Info("pipeline started", map[string]any{
		"run_id":    rc.RunID,
		"project":   rc.Project,
		"group":     rc.Group,
		"stages":    len(stages),
		"workspace": report.Workspace,
	})

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("pipeline cancelled before stage %s: %w", s.Name, err)
		}

		params, err := d.resolver.Resolve(s, cfg, ws)
		if err != nil {
			return report, err
		}

		inv := runtime.Invocation{
			Stage:      s.Name,
			URI:        s.Location.URI(cfg.Main.ProjectRoot, cfg.Main.ComponentsRepository),
			Location:   s.Location,
			EntryPoint: runtime.DefaultEntryPoint,
			Params:     params,
			Env:        rc.Env(),
			WorkDir:    cfg.Main.ProjectRoot,
			Scratch:    ws.Dir(),
		}

		d.logger.Info("starting stage", map[string]any{"stage": s.Name, "uri": inv.URI})
		start := d.now()
		invokeErr := d.invoker.Invoke(ctx, inv)
		elapsed := d.now().Sub(start)

		if invokeErr != nil {
			report.Stages = append(report.Stages, StageResult{
				Stage: s.Name, Status: StatusFailed, Duration: elapsed, Params: params, Err: invokeErr,
			})
			d.logger.Error("stage failed", map[string]any{
				"stage":    s.Name,
				"duration": elapsed.String(),
				"params":   params.String(),
				"error":    invokeErr.Error(),
			})
			return report, &StageError{Stage: s.Name, Params: params, Err: invokeErr}
		}

		report.Stages = append(report.Stages, StageResult{
			Stage: s.Name, Status: StatusSucceeded, Duration: elapsed, Params: params,
		})
		d.logger.Info("stage completed", map[string]any{"stage": s.Name, "duration": elapsed.String()})
	}

	d.logger.Info("pipeline completed", map[string]any{"run_id": rc.RunID, "stages": len(stages)})
	return report, nil
}
