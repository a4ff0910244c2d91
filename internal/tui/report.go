package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/initializ/mlpipe/pipeline"
)

// RenderReport renders the outcome of a run. Stages in selected that never
// ran are listed as skipped.
func RenderReport(styles *StyleSet, report *pipeline.Report, selected []pipeline.Stage) string {
	var b strings.Builder

	ran := make(map[string]pipeline.StageResult, len(report.Stages))
	for _, r := range report.Stages {
		ran[r.Stage] = r
	}

	b.WriteString("\n  " + styles.Title.Render("Run "+report.RunID) + "\n\n")
	for _, st := range selected {
		r, ok := ran[st.Name]
		switch {
		case !ok:
			fmt.Fprintf(&b, "  %s  %s\n", styles.DimTxt.Render(" - "), styles.DimTxt.Render(st.Name+"  skipped"))
		case r.Status == pipeline.StatusSucceeded:
			fmt.Fprintf(&b, "  %s  %s  %s\n",
				styles.StepBadgeComplete.Render("✓"),
				styles.PrimaryTxt.Bold(true).Render(st.Name),
				styles.SecondaryTxt.Render(formatDuration(r.Duration)))
		default:
			reason := "failed"
			if r.Err != nil {
				reason = r.Err.Error()
			}
			fmt.Fprintf(&b, "  %s  %s  %s\n",
				styles.StepBadgeFailed.Render("✗"),
				styles.PrimaryTxt.Bold(true).Render(st.Name),
				styles.ErrorTxt.Render(reason))
			for _, k := range r.Params.Keys() {
				fmt.Fprintf(&b, "       %s %s\n", styles.SummaryKey.Render(k), styles.SecondaryTxt.Render(r.Params[k]))
			}
		}
	}

	if failed := report.Failed(); failed != nil {
		b.WriteString("\n  " + styles.ErrorTxt.Render("Pipeline stopped at "+failed.Stage) + "\n")
	} else {
		b.WriteString("\n  " + styles.SuccessTxt.Render(fmt.Sprintf("%d stage(s) completed", len(report.Stages))) + "\n")
	}
	return b.String()
}

// RenderCatalog renders the stage catalog with each parameter's source.
func RenderCatalog(styles *StyleSet, stages []pipeline.Stage, repo string) string {
	var b strings.Builder
	for _, st := range stages {
		where := st.Location.Path
		if st.Location.Remote {
			where = "components:" + st.Location.Path
			if repo != "" {
				where = st.Location.URI("", repo)
			}
		}
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			styles.StepBadgeActive.Render(fmt.Sprintf("%d", st.Index+1)),
			styles.PrimaryTxt.Bold(true).Render(st.Name),
			styles.DimTxt.Render(where))
		for _, p := range st.Params {
			fmt.Fprintf(&b, "       %s %s\n", styles.SummaryKey.Render(p.Name), styles.SecondaryTxt.Render(p.Source()))
		}
	}
	return b.String()
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
