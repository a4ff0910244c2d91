package runtime

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Recorder is an Invoker that records invocations instead of running them.
// It backs `run --dry-run` and doubles as a test fake.
type Recorder struct {
	mu    sync.Mutex
	calls []Invocation
	fail  map[string]error

	// Out, when set, receives one line per invocation.
	Out io.Writer
	// OnInvoke, when set, is called for every invocation; its error is returned.
	OnInvoke func(inv Invocation) error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{fail: make(map[string]error)}
}

// FailOn makes invocations of stage return err.
func (r *Recorder) FailOn(stage string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[stage] = err
}

// Invoke records inv and returns the configured outcome.
func (r *Recorder) Invoke(ctx context.Context, inv Invocation) error {
	r.mu.Lock()
	r.calls = append(r.calls, inv)
	failErr := r.fail[inv.Stage]
	r.mu.Unlock()

	if r.Out != nil {
		fmt.Fprintf(r.Out, "%s: mlflow run %s -e %s %s\n", inv.Stage, inv.URI, inv.EntryPoint, inv.Params)
	}
	if r.OnInvoke != nil {
		if err := r.OnInvoke(inv); err != nil {
			return err
		}
	}
	return failErr
}

// Calls returns a copy of the recorded invocations.
func (r *Recorder) Calls() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Invocation(nil), r.calls...)
}

// Stages returns the names of the invoked stages in order.
func (r *Recorder) Stages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		names = append(names, c.Stage)
	}
	return names
}
