package pipeline

import (
	"fmt"

	"github.com/initializ/mlpipe/runtime"
)

// ConfigError is a fatal configuration problem detected before any stage runs.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// StageError reports a failed stage invocation along with the parameters it received.
type StageError struct {
	Stage  string
	Params runtime.Params
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// WorkspaceError reports a failure to create the scratch workspace.
type WorkspaceError struct {
	Err error
}

func (e *WorkspaceError) Error() string {
	return fmt.Sprintf("creating scratch workspace: %v", e.Err)
}

func (e *WorkspaceError) Unwrap() error { return e.Err }
