package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/initializ/mlpipe/runtime"
)

func selectStages(t *testing.T, directive string) []Stage {
	t.Helper()
	d, err := ParseDirective(directive)
	if err != nil {
		t.Fatalf("ParseDirective() error: %v", err)
	}
	stages, err := Select(d)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	return stages
}

func assertRemoved(t *testing.T, dir string) {
	t.Helper()
	if dir == "" {
		t.Fatal("report has no workspace path")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workspace %s still exists (stat err: %v)", dir, err)
	}
}

func TestDriver_DownloadAndCleaning(t *testing.T) {
	cfg := mustConfig(t, `
main:
  project_name: nyc_airbnb
  experiment_name: development
  steps: download,basic_cleaning
  components_repository: https://github.com/example/components
etl:
  sample: data.csv
  min_price: 10
  max_price: 1000
`)
	rec := runtime.NewRecorder()
	d := NewDriver(rec, WithScratchParent(t.TempDir()))

	stages, err := StagesFor(cfg, "")
	if err != nil {
		t.Fatalf("StagesFor() error: %v", err)
	}
	report, err := d.Run(context.Background(), cfg, stages)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := rec.Stages(); !reflect.DeepEqual(got, []string{"download", "basic_cleaning"}) {
		t.Fatalf("invoked %v", got)
	}

	calls := rec.Calls()
	if calls[0].Params["sample"] != "data.csv" {
		t.Errorf("download sample = %q", calls[0].Params["sample"])
	}
	cleaning := calls[1]
	if cleaning.Params["input_artifact"] != "sample.csv:latest" {
		t.Errorf("input_artifact = %q", cleaning.Params["input_artifact"])
	}
	if cleaning.Params["min_price"] != "10" || cleaning.Params["max_price"] != "1000" {
		t.Errorf("prices = %q..%q", cleaning.Params["min_price"], cleaning.Params["max_price"])
	}
	if cleaning.URI != "/srv/project/src/basic_cleaning" {
		t.Errorf("URI = %q", cleaning.URI)
	}
	if cleaning.EntryPoint != "main" {
		t.Errorf("EntryPoint = %q", cleaning.EntryPoint)
	}

	if len(report.Stages) != 2 || report.Failed() != nil {
		t.Errorf("report = %+v", report.Stages)
	}
	assertRemoved(t, report.Workspace)
}

func TestDriver_RunContextEnv(t *testing.T) {
	cfg := mustConfig(t, fullConfig)
	rec := runtime.NewRecorder()
	d := NewDriver(rec, WithScratchParent(t.TempDir()))

	report, err := d.Run(context.Background(), cfg, Catalog())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	calls := rec.Calls()
	if len(calls) != 6 {
		t.Fatalf("invoked %d stages, want 6", len(calls))
	}
	for _, c := range calls {
		if c.Env[EnvProject] != "nyc_airbnb" {
			t.Errorf("%s: %s = %q", c.Stage, EnvProject, c.Env[EnvProject])
		}
		if c.Env[EnvRunGroup] != "development" {
			t.Errorf("%s: %s = %q", c.Stage, EnvRunGroup, c.Env[EnvRunGroup])
		}
		if c.Env[EnvRunID] != report.RunID {
			t.Errorf("%s: run id %q, want %q", c.Stage, c.Env[EnvRunID], report.RunID)
		}
	}

	if os.Getenv(EnvProject) == "nyc_airbnb" {
		t.Error("driver must not mutate the process environment")
	}

	split := calls[3]
	if split.URI != "https://github.com/example/components/train_val_test_split" {
		t.Errorf("data_split URI = %q", split.URI)
	}
	if !split.Location.Remote {
		t.Error("data_split should be a remote component")
	}
}

func TestDriver_FailFast(t *testing.T) {
	cfg := mustConfig(t, fullConfig)
	rec := runtime.NewRecorder()
	boom := &runtime.ExitError{Stage: StageDataCheck, ExitCode: 2}
	rec.FailOn(StageDataCheck, boom)

	d := NewDriver(rec, WithScratchParent(t.TempDir()))
	stages := selectStages(t, "basic_cleaning,data_check,data_split")

	report, err := d.Run(context.Background(), cfg, stages)
	if err == nil {
		t.Fatal("expected error")
	}

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error = %T, want *StageError", err)
	}
	if se.Stage != StageDataCheck {
		t.Errorf("failed stage = %q", se.Stage)
	}
	if se.Params["ref"] != "clean_sample.csv:reference" {
		t.Errorf("StageError params = %v", se.Params)
	}
	var exitErr *runtime.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode != 2 {
		t.Errorf("StageError should unwrap to the exit error, got %v", err)
	}

	if got := rec.Stages(); !reflect.DeepEqual(got, []string{"basic_cleaning", "data_check"}) {
		t.Errorf("invoked %v; data_split must not run", got)
	}

	failed := report.Failed()
	if failed == nil || failed.Stage != StageDataCheck {
		t.Errorf("report.Failed() = %+v", failed)
	}
	assertRemoved(t, report.Workspace)
}

func TestDriver_PreflightRejectsMissingKeys(t *testing.T) {
	cfg := mustConfig(t, `
main:
  project_name: p
  experiment_name: e
  steps: all
  components_repository: repo
etl:
  sample: data.csv
  min_price: 10
  max_price: 1000
`)
	rec := runtime.NewRecorder()
	scratch := t.TempDir()
	d := NewDriver(rec, WithScratchParent(scratch))

	report, err := d.Run(context.Background(), cfg, selectStages(t, "download,data_check"))
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if n := len(rec.Calls()); n != 0 {
		t.Errorf("%d stages invoked before config error", n)
	}
	if report.Workspace != "" {
		t.Errorf("workspace created before preflight passed: %s", report.Workspace)
	}
	entries, _ := os.ReadDir(scratch)
	if len(entries) != 0 {
		t.Errorf("scratch parent not empty: %v", entries)
	}
}

func TestDriver_TrainRandomForestAlone(t *testing.T) {
	cfg := mustConfig(t, fullConfig)
	rec := runtime.NewRecorder()

	var seen map[string]any
	rec.OnInvoke = func(inv runtime.Invocation) error {
		data, err := os.ReadFile(inv.Params["rf_config"])
		if err != nil {
			return fmt.Errorf("rf_config not materialized: %w", err)
		}
		return json.Unmarshal(data, &seen)
	}

	d := NewDriver(rec, WithScratchParent(t.TempDir()))
	report, err := d.Run(context.Background(), cfg, selectStages(t, "train_random_forest"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if seen["n_estimators"] != float64(100) || seen["criterion"] != "squared_error" || seen["oob_score"] != true {
		t.Errorf("rf_config content = %v", seen)
	}
	if len(seen) != 8 {
		t.Errorf("rf_config has %d keys, want 8", len(seen))
	}

	call := rec.Calls()[0]
	if call.Scratch != report.Workspace {
		t.Errorf("Scratch = %q, want %q", call.Scratch, report.Workspace)
	}
	assertRemoved(t, report.Workspace)
}

func TestDriver_Cancelled(t *testing.T) {
	cfg := mustConfig(t, fullConfig)
	ctx, cancel := context.WithCancel(context.Background())

	rec := runtime.NewRecorder()
	rec.OnInvoke = func(runtime.Invocation) error {
		cancel()
		return nil
	}

	d := NewDriver(rec, WithScratchParent(t.TempDir()))
	report, err := d.Run(ctx, cfg, selectStages(t, "download,basic_cleaning"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if got := rec.Stages(); !reflect.DeepEqual(got, []string{"download"}) {
		t.Errorf("invoked %v", got)
	}
	assertRemoved(t, report.Workspace)
}

func TestDriver_WorkspaceRemovedOnPanic(t *testing.T) {
	cfg := mustConfig(t, fullConfig)
	rec := runtime.NewRecorder()

	var dir string
	rec.OnInvoke = func(inv runtime.Invocation) error {
		dir = inv.Scratch
		panic("stage exploded")
	}

	d := NewDriver(rec, WithScratchParent(t.TempDir()))
	func() {
		defer func() { _ = recover() }()
		_, _ = d.Run(context.Background(), cfg, selectStages(t, "download"))
	}()

	assertRemoved(t, dir)
}

func TestDriver_WorkspaceError(t *testing.T) {
	cfg := mustConfig(t, fullConfig)
	rec := runtime.NewRecorder()

	missing := t.TempDir() + "/does/not/exist"
	d := NewDriver(rec, WithScratchParent(missing))
	_, err := d.Run(context.Background(), cfg, selectStages(t, "download"))

	var we *WorkspaceError
	if !errors.As(err, &we) {
		t.Fatalf("error = %v, want *WorkspaceError", err)
	}
	if len(rec.Calls()) != 0 {
		t.Error("no stage may run without a workspace")
	}
}

func TestStagesFor_Override(t *testing.T) {
	cfg := mustConfig(t, fullConfig)
	stages, err := StagesFor(cfg, "data_split,download")
	if err != nil {
		t.Fatalf("StagesFor() error: %v", err)
	}
	if got := stageNames(stages); !reflect.DeepEqual(got, []string{"download", "data_split"}) {
		t.Errorf("StagesFor() = %v", got)
	}
}

func TestDriver_PreflightRequiresMainKeys(t *testing.T) {
	cfg := mustConfig(t, `
modeling:
  test_size: 0.2
  random_seed: 42
  stratify_by: none
`)
	rec := runtime.NewRecorder()
	scratch := t.TempDir()
	d := NewDriver(rec, WithScratchParent(scratch))

	_, err := d.Run(context.Background(), cfg, selectStages(t, "data_split"))
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	for _, key := range []string{"main.project_name", "main.experiment_name", "main.components_repository"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error should mention %s: %v", key, err)
		}
	}
	if n := len(rec.Calls()); n != 0 {
		t.Errorf("%d stages invoked without a main section", n)
	}
	if entries, _ := os.ReadDir(scratch); len(entries) != 0 {
		t.Errorf("workspace created before preflight passed: %v", entries)
	}
}

func TestDriver_LocalStagesNeedNoRepository(t *testing.T) {
	cfg := mustConfig(t, fullConfig)
	cfg.Main.ComponentsRepository = ""
	rec := runtime.NewRecorder()
	d := NewDriver(rec, WithScratchParent(t.TempDir()))

	if _, err := d.Run(context.Background(), cfg, selectStages(t, "download,basic_cleaning")); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	_, err := d.Run(context.Background(), cfg, selectStages(t, "download,test_regression_model"))
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Key != "main.components_repository" {
		t.Fatalf("error = %v, want components_repository ConfigError", err)
	}
}
