package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const testConfig = `
main:
  project_name: nyc_airbnb
  experiment_name: development
  steps: all
  components_repository: https://github.com/example/components
etl:
  sample: sample1.csv
  min_price: 10
  max_price: 350
data_check:
  kl_threshold: 0.2
  min_price: 10
  max_price: 350
modeling:
  test_size: 0.2
  val_size: 0.2
  random_seed: 42
  stratify_by: neighbourhood_group
  max_tfidf_features: 5
  random_forest:
    n_estimators: 100
    max_depth: 15
    min_samples_split: 4
    min_samples_leaf: 3
    n_jobs: -1
    criterion: squared_error
    max_features: 0.5
    oob_score: true
`

func writeTestConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config.yaml: %v", err)
	}
	return path
}

// useGlobals points the CLI globals at cfgPath and fresh output buffers,
// restoring every flag variable when the test ends. The stdout buffer is
// returned; stderr is available through errOutput.
func useGlobals(t *testing.T, cfgPath string) *bytes.Buffer {
	t.Helper()

	oldCfg, oldOut, oldErr, oldVerbose, oldStrict := cfgFile, stdout, stderr, verbose, strict
	oldSteps, oldDry, oldBackend, oldEnv, oldScratch := runSteps, runDryRun, runBackend, runEnvFile, runScratchDir
	t.Cleanup(func() {
		cfgFile, stdout, stderr, verbose, strict = oldCfg, oldOut, oldErr, oldVerbose, oldStrict
		runSteps, runDryRun, runBackend, runEnvFile, runScratchDir = oldSteps, oldDry, oldBackend, oldEnv, oldScratch
	})

	var buf bytes.Buffer
	cfgFile = cfgPath
	stdout = &buf
	stderr = &bytes.Buffer{}
	verbose = false
	strict = false
	runSteps, runDryRun, runBackend, runEnvFile = "", false, "", ""
	runScratchDir = t.TempDir()
	return &buf
}

func errOutput(t *testing.T) string {
	t.Helper()
	buf, ok := stderr.(*bytes.Buffer)
	if !ok {
		t.Fatalf("stderr is %T, want *bytes.Buffer", stderr)
	}
	return buf.String()
}
