package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, false)
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Info("stage completed", map[string]any{"stage": "download"})
	l.Debug("hidden", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug suppressed): %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["level"] != "info" || entry["msg"] != "stage completed" || entry["stage"] != "download" {
		t.Errorf("entry = %v", entry)
	}
	if entry["time"] != "2026-01-02T03:04:05Z" {
		t.Errorf("time = %v", entry["time"])
	}
}

func TestJSONLogger_VerboseDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, true)
	l.Debug("exec", map[string]any{"level": "overridden"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["level"] != "debug" {
		t.Errorf("reserved field overwritten: %v", entry)
	}
}

func TestParseEnvVars(t *testing.T) {
	input := `
# comment
WANDB_API_KEY=abc123
export MLFLOW_TRACKING_URI="http://localhost:5000"
QUOTED='single'
NOEQUALS
`
	env, err := ParseEnvVars(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseEnvVars() error: %v", err)
	}
	want := map[string]string{
		"WANDB_API_KEY":       "abc123",
		"MLFLOW_TRACKING_URI": "http://localhost:5000",
		"QUOTED":              "single",
	}
	if !reflect.DeepEqual(env, want) {
		t.Errorf("env = %v, want %v", env, want)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	env, err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("LoadEnvFile() error: %v", err)
	}
	if len(env) != 0 {
		t.Errorf("env = %v, want empty", env)
	}
}

func TestInvocation_Args(t *testing.T) {
	inv := Invocation{
		Stage: "data_split",
		URI:   "https://github.com/example/components/train_val_test_split",
		Params: Params{
			"test_size": "0.2",
			"input":     "clean_sample.csv:latest",
		},
	}
	want := []string{
		"run", "https://github.com/example/components/train_val_test_split",
		"-e", "main",
		"-P", "input=clean_sample.csv:latest",
		"-P", "test_size=0.2",
	}
	if got := inv.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v\nwant %v", got, want)
	}
}

func TestLocation_URI(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{Path: "src/basic_cleaning"}, "/srv/project/src/basic_cleaning"},
		{Location{Path: "test_regression_model", Remote: true}, "https://github.com/x/components/test_regression_model"},
	}
	for _, tt := range tests {
		if got := tt.loc.URI("/srv/project/", "https://github.com/x/components/"); got != tt.want {
			t.Errorf("URI() = %q, want %q", got, tt.want)
		}
	}
	if got := (Location{Path: "src/a"}).URI("", "r"); got != "src/a" {
		t.Errorf("URI() with empty root = %q", got)
	}
}

func TestParams_String(t *testing.T) {
	p := Params{"b": "2", "a": "1"}
	if got := p.String(); got != "a=1 b=2" {
		t.Errorf("String() = %q", got)
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	var out bytes.Buffer
	rec.Out = &out
	boom := errors.New("boom")
	rec.FailOn("data_check", boom)

	ctx := context.Background()
	if err := rec.Invoke(ctx, Invocation{Stage: "download", EntryPoint: "main", URI: "/p/components/get_data"}); err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if err := rec.Invoke(ctx, Invocation{Stage: "data_check"}); !errors.Is(err, boom) {
		t.Fatalf("Invoke() error = %v, want boom", err)
	}

	if got := rec.Stages(); !reflect.DeepEqual(got, []string{"download", "data_check"}) {
		t.Errorf("Stages() = %v", got)
	}
	if !strings.Contains(out.String(), "download: mlflow run /p/components/get_data -e main") {
		t.Errorf("output = %q", out.String())
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-mlflow")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func TestMLflowInvoker_PassesArgsAndEnv(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "out.txt")
	bin := writeScript(t, `echo "$@" > "`+outFile+`"
echo "$WANDB_PROJECT $FROM_DOTENV" >> "`+outFile+`"
`)

	m := NewMLflowInvoker(bin, nil,
		WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
		WithBaseEnv(map[string]string{"FROM_DOTENV": "yes", "WANDB_PROJECT": "overridden"}),
	)
	err := m.Invoke(context.Background(), Invocation{
		Stage:   "download",
		URI:     "components/get_data",
		Params:  Params{"sample": "sample1.csv"},
		Env:     map[string]string{"WANDB_PROJECT": "nyc_airbnb"},
		WorkDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "run components/get_data -e main -P sample=sample1.csv" {
		t.Errorf("args = %q", lines[0])
	}
	if lines[1] != "nyc_airbnb yes" {
		t.Errorf("env = %q", lines[1])
	}
}

func TestMLflowInvoker_ExitCode(t *testing.T) {
	bin := writeScript(t, "exit 3\n")
	m := NewMLflowInvoker(bin, nil, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	err := m.Invoke(context.Background(), Invocation{Stage: "data_check", URI: "x", WorkDir: t.TempDir()})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitErr.ExitCode != 3 || exitErr.Stage != "data_check" {
		t.Errorf("ExitError = %+v", exitErr)
	}
}

func TestMLflowInvoker_MissingBinary(t *testing.T) {
	m := NewMLflowInvoker(filepath.Join(t.TempDir(), "nope"), nil)
	err := m.Invoke(context.Background(), Invocation{Stage: "download", URI: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("missing binary should not be an ExitError")
	}
}

func TestContainerArgs(t *testing.T) {
	local := Invocation{
		Stage:    "basic_cleaning",
		URI:      "/home/me/project/src/basic_cleaning",
		Location: Location{Path: "src/basic_cleaning"},
		Params:   Params{"min_price": "10"},
	}
	want := []string{"mlflow", "run", "/workspace/src/basic_cleaning", "-e", "main", "-P", "min_price=10"}
	if got := containerArgs(local); !reflect.DeepEqual(got, want) {
		t.Errorf("containerArgs(local) = %v", got)
	}

	remote := Invocation{
		Stage:    "data_split",
		URI:      "https://github.com/x/components/train_val_test_split",
		Location: Location{Path: "train_val_test_split", Remote: true},
	}
	if got := containerArgs(remote); got[2] != remote.URI {
		t.Errorf("remote URI rewritten: %v", got)
	}
}

func TestContainerEnv(t *testing.T) {
	got := containerEnv(map[string]string{"B": "base", "A": "1"}, map[string]string{"B": "run"})
	want := [][2]string{{"A", "1"}, {"B", "run"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("containerEnv() = %v, want %v", got, want)
	}
}

func TestNewDaggerInvoker_Defaults(t *testing.T) {
	d := NewDaggerInvoker("", nil, nil, nil)
	if d.image != DefaultImage {
		t.Errorf("image = %q", d.image)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() before connect: %v", err)
	}
}
