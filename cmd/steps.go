package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initializ/mlpipe/config"
	"github.com/initializ/mlpipe/internal/tui"
	"github.com/initializ/mlpipe/pipeline"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the pipeline stages in execution order",
	Args:  cobra.NoArgs,
	RunE:  listSteps,
}

// listSteps lists the catalog. The components repository is taken from
// config.yaml when one is present.
func listSteps(cmd *cobra.Command, args []string) error {
	repo := ""
	if cfgPath, err := configPath(); err == nil {
		if cfg, err := config.LoadRunConfig(cfgPath, nil); err == nil {
			repo = cfg.Main.ComponentsRepository
		}
	}

	stages := pipeline.Catalog()
	if styledOutput() {
		styles := tui.NewStyleSet(tui.DetectTheme(themeOverride))
		fmt.Fprint(stdout, tui.RenderCatalog(styles, stages, repo))
		return nil
	}

	for _, st := range stages {
		where := st.Location.Path
		if st.Location.Remote {
			where = "components:" + st.Location.Path
			if repo != "" {
				where = st.Location.URI("", repo)
			}
		}
		fmt.Fprintf(stdout, "%d. %s (%s)\n", st.Index+1, st.Name, where)
		params := make([]string, 0, len(st.Params))
		for _, p := range st.Params {
			params = append(params, fmt.Sprintf("   %s: %s", p.Name, p.Source()))
		}
		fmt.Fprintln(stdout, strings.Join(params, "\n"))
	}
	return nil
}
