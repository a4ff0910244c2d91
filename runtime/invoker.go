// Package runtime invokes pipeline stages as opaque units of work.
package runtime

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// DefaultEntryPoint is the MLflow entry point every stage is run with.
const DefaultEntryPoint = "main"

// Params is a flat mapping of stage parameter name to formatted value.
type Params map[string]string

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the parameters as space separated k=v pairs.
func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		parts = append(parts, k+"="+p[k])
	}
	return strings.Join(parts, " ")
}

// Location is where a stage's project lives: a path relative to the
// project root, or a path under the remote components repository.
type Location struct {
	Path   string
	Remote bool
}

// URI returns the project URI passed to the invoker. Local paths are
// joined with root, remote paths with repo.
func (l Location) URI(root, repo string) string {
	if l.Remote {
		return strings.TrimRight(repo, "/") + "/" + l.Path
	}
	if root == "" {
		return l.Path
	}
	return strings.TrimRight(root, "/") + "/" + l.Path
}

// Invocation is everything an invoker needs to run one stage.
type Invocation struct {
	Stage      string
	URI        string
	Location   Location
	EntryPoint string
	Params     Params
	Env        map[string]string
	WorkDir    string
	Scratch    string // run-scoped scratch workspace, absolute
}

// Args returns the mlflow command line arguments for the invocation,
// excluding the binary name.
func (inv Invocation) Args() []string {
	entry := inv.EntryPoint
	if entry == "" {
		entry = DefaultEntryPoint
	}
	args := []string{"run", inv.URI, "-e", entry}
	for _, k := range inv.Params.Keys() {
		args = append(args, "-P", k+"="+inv.Params[k])
	}
	return args
}

// Invoker runs a stage and blocks until it completes. A nil error means success.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) error
}

// ExitError reports a stage that ran but exited unsuccessfully.
type ExitError struct {
	Stage    string
	ExitCode int
	Err      error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("stage %s exited with code %d", e.Stage, e.ExitCode)
}

func (e *ExitError) Unwrap() error { return e.Err }
