package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is a scratch directory owned by a single run.
type Workspace struct {
	dir string
}

// NewWorkspace creates a fresh scratch directory under parent (os.TempDir
// when empty).
func NewWorkspace(parent string) (*Workspace, error) {
	dir, err := os.MkdirTemp(parent, "mlpipe-run-")
	if err != nil {
		return nil, &WorkspaceError{Err: err}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, &WorkspaceError{Err: err}
	}
	return &Workspace{dir: abs}, nil
}

// Dir returns the absolute workspace path.
func (w *Workspace) Dir() string { return w.dir }

// WriteJSON serializes v to name inside the workspace and returns its absolute path.
func (w *Workspace) WriteJSON(name string, v any) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("workspace file %q must not contain a path", name)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}
	p := filepath.Join(w.dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return p, nil
}

// Close removes the workspace and everything in it. Safe to call more than once.
func (w *Workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	w.dir = ""
	return err
}
