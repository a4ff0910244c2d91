package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// MLflowInvoker runs each stage with `mlflow run` as a child process.
type MLflowInvoker struct {
	binary string
	env    map[string]string
	stdout io.Writer
	stderr io.Writer
	logger Logger
}

// MLflowOption configures an MLflowInvoker.
type MLflowOption func(*MLflowInvoker)

// WithOutput sets where the child's stdout and stderr are copied.
func WithOutput(stdout, stderr io.Writer) MLflowOption {
	return func(m *MLflowInvoker) {
		m.stdout = stdout
		m.stderr = stderr
	}
}

// WithBaseEnv adds variables (typically from a .env file) to every child
// environment. Invocation env takes precedence.
func WithBaseEnv(env map[string]string) MLflowOption {
	return func(m *MLflowInvoker) { m.env = env }
}

// NewMLflowInvoker creates an invoker using binary (default "mlflow").
func NewMLflowInvoker(binary string, logger Logger, opts ...MLflowOption) *MLflowInvoker {
	if binary == "" {
		binary = "mlflow"
	}
	if logger == nil {
		logger = NopLogger{}
	}
	m := &MLflowInvoker{
		binary: binary,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: logger,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Invoke starts the stage and waits for it to exit.
func (m *MLflowInvoker) Invoke(ctx context.Context, inv Invocation) error {
	args := inv.Args()
	cmd := exec.CommandContext(ctx, m.binary, args...)
	cmd.Dir = inv.WorkDir
	cmd.Env = mergeEnv(os.Environ(), m.env, inv.Env)
	cmd.Stdout = m.stdout
	cmd.Stderr = m.stderr

	m.logger.Debug("exec", map[string]any{
		"stage":   inv.Stage,
		"command": m.binary + " " + strings.Join(args, " "),
		"dir":     inv.WorkDir,
	})

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Stage: inv.Stage, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("running %s: %w", m.binary, err)
	}
	return nil
}

// mergeEnv appends layers onto base in order; later layers win because
// exec uses the last value for duplicate keys.
func mergeEnv(base []string, layers ...map[string]string) []string {
	env := append([]string(nil), base...)
	for _, layer := range layers {
		keys := make([]string, 0, len(layer))
		for k := range layer {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+layer[k])
		}
	}
	return env
}
