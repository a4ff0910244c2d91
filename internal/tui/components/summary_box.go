package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SummaryRow is one labelled answer in a SummaryBox.
type SummaryRow struct {
	Key   string
	Value string
}

// SummaryStyles groups the styles a SummaryBox renders with.
type SummaryStyles struct {
	Key   lipgloss.Style
	Value lipgloss.Style
	Box   lipgloss.Style
}

// SummaryBox renders answers as an aligned two-column list inside a box.
type SummaryBox struct {
	rows []SummaryRow
	st   SummaryStyles
}

func NewSummaryBox(rows []SummaryRow, st SummaryStyles) SummaryBox {
	return SummaryBox{rows: rows, st: st}
}

// View renders the box at most width columns wide. Empty values show as "-".
func (s SummaryBox) View(width int) string {
	keyWidth := 0
	for _, r := range s.rows {
		keyWidth = max(keyWidth, lipgloss.Width(r.Key))
	}

	lines := make([]string, len(s.rows))
	for i, r := range s.rows {
		val := r.Value
		if strings.TrimSpace(val) == "" {
			val = "-"
		}
		pad := strings.Repeat(" ", keyWidth-lipgloss.Width(r.Key))
		lines[i] = s.st.Key.Render(r.Key) + pad + "   " + s.st.Value.Render(val)
	}

	return "  " + s.st.Box.Width(max(width-8, 30)).Render(strings.Join(lines, "\n"))
}
