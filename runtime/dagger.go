package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"

	"dagger.io/dagger"
)

const (
	// DefaultImage is the container image stages run in under the dagger backend.
	DefaultImage = "python:3.10"

	containerRoot = "/workspace"
)

// DaggerInvoker runs each stage's `mlflow run` inside a container. The
// project root is mounted at /workspace and the scratch workspace at its
// host path so file parameters stay valid.
type DaggerInvoker struct {
	image   string
	setup   [][]string
	logOut  io.Writer
	logger  Logger
	baseEnv map[string]string

	mu     sync.Mutex
	client *dagger.Client
}

// NewDaggerInvoker creates an invoker for image (default DefaultImage).
// The engine connection is opened on first use.
func NewDaggerInvoker(image string, baseEnv map[string]string, logOut io.Writer, logger Logger) *DaggerInvoker {
	if image == "" {
		image = DefaultImage
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &DaggerInvoker{
		image:   image,
		setup:   [][]string{{"python", "-m", "pip", "install", "--quiet", "mlflow"}},
		logOut:  logOut,
		logger:  logger,
		baseEnv: baseEnv,
	}
}

func (d *DaggerInvoker) connect(ctx context.Context) (*dagger.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil {
		return d.client, nil
	}
	client, err := dagger.Connect(ctx, dagger.WithLogOutput(d.logOut))
	if err != nil {
		return nil, fmt.Errorf("connecting to dagger engine: %w", err)
	}
	d.client = client
	return client, nil
}

// Invoke runs the stage in a fresh container derived from the base image.
func (d *DaggerInvoker) Invoke(ctx context.Context, inv Invocation) error {
	client, err := d.connect(ctx)
	if err != nil {
		return err
	}

	ctr := client.Container().
		From(d.image).
		WithDirectory(containerRoot, client.Host().Directory(inv.WorkDir)).
		WithWorkdir(containerRoot)
	if inv.Scratch != "" {
		ctr = ctr.WithDirectory(inv.Scratch, client.Host().Directory(inv.Scratch))
	}
	for _, step := range d.setup {
		ctr = ctr.WithExec(step)
	}
	for _, kv := range containerEnv(d.baseEnv, inv.Env) {
		ctr = ctr.WithEnvVariable(kv[0], kv[1])
	}

	args := containerArgs(inv)
	d.logger.Debug("container exec", map[string]any{
		"stage": inv.Stage,
		"image": d.image,
		"args":  args,
	})

	out, err := ctr.WithExec(args).Stdout(ctx)
	if out != "" {
		d.logger.Debug("container output", map[string]any{"stage": inv.Stage, "stdout": out})
	}
	if err != nil {
		var execErr *dagger.ExecError
		if errors.As(err, &execErr) {
			return &ExitError{Stage: inv.Stage, ExitCode: execErr.ExitCode, Err: err}
		}
		return fmt.Errorf("running stage %s in container: %w", inv.Stage, err)
	}
	return nil
}

// Close releases the engine connection.
func (d *DaggerInvoker) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// containerArgs rewrites local stage locations to their mount point.
func containerArgs(inv Invocation) []string {
	c := inv
	if !inv.Location.Remote {
		c.URI = path.Join(containerRoot, inv.Location.Path)
	}
	return append([]string{"mlflow"}, c.Args()...)
}

func containerEnv(layers ...map[string]string) [][2]string {
	merged := make(map[string]string)
	for _, l := range layers {
		for k, v := range l {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, merged[k]})
	}
	return out
}
