package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/initializ/mlpipe/pipeline"
)

// RenderBanner returns the wizard header: the tool name and version, then
// the stage order the generated config will drive.
func RenderBanner(styles *StyleSet, version string, width int) string {
	if version == "" {
		version = "dev"
	}

	stages := pipeline.Catalog()
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.Name
	}
	flow := strings.Join(names, " → ")

	// Narrow terminals get the endpoints only.
	if lipgloss.Width(flow)+4 > width && len(names) > 2 {
		flow = names[0] + " → … → " + names[len(names)-1]
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("mlpipe")+" "+styles.DimTxt.Render(version),
		styles.Subtitle.Render("new pipeline config"),
		styles.SecondaryTxt.Render(flow),
	)
	return lipgloss.NewStyle().PaddingLeft(2).Render(header) + "\n\n"
}
