package pipeline

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/initializ/mlpipe/runtime"
	"github.com/initializ/mlpipe/types"
)

// Resolver turns a stage's parameter specs into a flat parameter set.
// It keeps no state between calls.
type Resolver struct{}

// NewResolver returns a Resolver.
func NewResolver() *Resolver { return &Resolver{} }

// Check verifies that every config key the stage needs is present and of
// the right shape. It has no side effects.
func (r *Resolver) Check(stage Stage, cfg *types.RunConfig) error {
	var errs []error
	for _, p := range stage.Params {
		switch p.Kind {
		case ParamConfig:
			if _, err := configScalar(cfg, p.Key); err != nil {
				errs = append(errs, stageConfigError(stage, err))
			}
		case ParamFile:
			if _, err := configMapping(cfg, p.Key); err != nil {
				errs = append(errs, stageConfigError(stage, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Resolve builds the parameter set for stage. File parameters are written
// into ws, which may be nil only for stages without them.
func (r *Resolver) Resolve(stage Stage, cfg *types.RunConfig, ws *Workspace) (runtime.Params, error) {
	params := make(runtime.Params, len(stage.Params))
	for _, p := range stage.Params {
		switch p.Kind {
		case ParamLiteral:
			params[p.Name] = p.Value

		case ParamArtifact:
			params[p.Name] = p.Ref.String()

		case ParamConfig:
			v, err := configScalar(cfg, p.Key)
			if err != nil {
				return nil, stageConfigError(stage, err)
			}
			params[p.Name] = v

		case ParamFile:
			m, err := configMapping(cfg, p.Key)
			if err != nil {
				return nil, stageConfigError(stage, err)
			}
			if ws == nil {
				return nil, fmt.Errorf("stage %s: parameter %s needs a scratch workspace", stage.Name, p.Name)
			}
			path, err := ws.WriteJSON(p.File, m)
			if err != nil {
				return nil, fmt.Errorf("stage %s: materializing %s: %w", stage.Name, p.Key, err)
			}
			params[p.Name] = path

		default:
			return nil, fmt.Errorf("stage %s: parameter %s has unknown kind %d", stage.Name, p.Name, p.Kind)
		}
	}
	return params, nil
}

func stageConfigError(stage Stage, err error) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return &ConfigError{Key: ce.Key, Reason: fmt.Sprintf("%s (needed by stage %s)", ce.Reason, stage.Name)}
	}
	return err
}

func configScalar(cfg *types.RunConfig, key string) (string, error) {
	v, err := cfg.Lookup(key)
	if err != nil {
		return "", &ConfigError{Key: key, Reason: "is required"}
	}
	s, ok := FormatScalar(v)
	if !ok {
		return "", &ConfigError{Key: key, Reason: fmt.Sprintf("must be a scalar, got %T", v)}
	}
	return s, nil
}

func configMapping(cfg *types.RunConfig, key string) (map[string]any, error) {
	v, err := cfg.Lookup(key)
	if err != nil {
		return nil, &ConfigError{Key: key, Reason: "is required"}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ConfigError{Key: key, Reason: fmt.Sprintf("must be a mapping, got %T", v)}
	}
	return m, nil
}

// FormatScalar renders a decoded YAML scalar the way it is passed on a
// command line. YAML floats keep a fractional part. It reports false for
// mappings, sequences and nil.
func FormatScalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case types.Float:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}
