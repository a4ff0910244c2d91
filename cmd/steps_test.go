package cmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestListSteps_WithoutConfig(t *testing.T) {
	out := useGlobals(t, filepath.Join(t.TempDir(), "missing.yaml"))

	if err := listSteps(nil, nil); err != nil {
		t.Fatalf("listSteps() error: %v", err)
	}
	got := out.String()
	for _, want := range []string{"1. download (components/get_data)", "components:train_val_test_split", "rf_config: file rf_config.json"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "data_split") > strings.Index(got, "train_random_forest") {
		t.Error("stages not listed in canonical order")
	}
}

func TestListSteps_UsesConfiguredRepository(t *testing.T) {
	out := useGlobals(t, writeTestConfig(t, t.TempDir(), testConfig))

	if err := listSteps(nil, nil); err != nil {
		t.Fatalf("listSteps() error: %v", err)
	}
	if !strings.Contains(out.String(), "https://github.com/example/components/test_regression_model") {
		t.Errorf("output:\n%s", out.String())
	}
}
