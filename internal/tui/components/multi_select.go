package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MultiSelectItem represents an option in a multi-select list.
type MultiSelectItem struct {
	Label       string
	Value       string
	Description string
	Checked     bool
}

// MultiSelectStyles groups the colors and borders a MultiSelect renders with.
type MultiSelectStyles struct {
	Accent         lipgloss.Color
	Primary        lipgloss.Color
	Secondary      lipgloss.Color
	Dim            lipgloss.Color
	Error          lipgloss.Color
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style
	KbdKey         lipgloss.Style
	KbdDesc        lipgloss.Style
}

// MultiSelect is a navigable checkbox list. Confirming with nothing
// checked is refused.
type MultiSelect struct {
	Items  []MultiSelectItem
	cursor int
	done   bool
	empty  bool

	st  MultiSelectStyles
	kbd KbdHint
}

// NewMultiSelect creates a new multi-select component.
func NewMultiSelect(items []MultiSelectItem, st MultiSelectStyles) MultiSelect {
	return MultiSelect{
		Items: items,
		st:    st,
		kbd:   NewKbdHint(st.KbdKey, st.KbdDesc, MultiSelectHints()),
	}
}

// Update handles keyboard input.
func (m MultiSelect) Update(msg tea.Msg) (MultiSelect, tea.Cmd) {
	if m.done {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}

	m.empty = false
	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.Items)-1 {
			m.cursor++
		}
	case " ":
		m.Items[m.cursor].Checked = !m.Items[m.cursor].Checked
	case "a":
		all := m.AllChecked()
		for i := range m.Items {
			m.Items[i].Checked = !all
		}
	case "enter":
		if len(m.SelectedValues()) == 0 {
			m.empty = true
			return m, nil
		}
		m.done = true
	}

	return m, nil
}

// View renders the multi-select list.
func (m MultiSelect) View(width int) string {
	var b strings.Builder

	itemWidth := width - 6
	if itemWidth < 30 {
		itemWidth = 30
	}

	for i, item := range m.Items {
		isCursor := i == m.cursor

		checkbox := lipgloss.NewStyle().Foreground(m.st.Dim).Render("☐")
		if item.Checked {
			checkbox = lipgloss.NewStyle().Foreground(m.st.Accent).Render("☑")
		}

		labelColor := m.st.Secondary
		if isCursor {
			labelColor = m.st.Primary
		}
		label := lipgloss.NewStyle().Foreground(labelColor).Bold(isCursor).Render(item.Label)

		firstLine := "  " + checkbox + "  " + label
		content := firstLine
		if isCursor && item.Description != "" {
			content += "\n     " + lipgloss.NewStyle().Foreground(m.st.Secondary).Render(item.Description)
		}

		border := m.st.InactiveBorder
		if isCursor {
			border = m.st.ActiveBorder
		}
		b.WriteString("  " + border.Width(itemWidth).Render(content) + "\n")
	}

	if m.empty {
		b.WriteString("  " + lipgloss.NewStyle().Foreground(m.st.Error).Render("✗ select at least one stage") + "\n")
	}

	b.WriteString("\n" + m.kbd.View())
	return b.String()
}

// Done returns true when selection is confirmed.
func (m MultiSelect) Done() bool { return m.done }

// Reset clears the done state so the user can re-select.
func (m *MultiSelect) Reset() { m.done = false }

// AllChecked reports whether every item is checked.
func (m MultiSelect) AllChecked() bool {
	for _, item := range m.Items {
		if !item.Checked {
			return false
		}
	}
	return len(m.Items) > 0
}

// SelectedValues returns the values of all checked items in list order.
func (m MultiSelect) SelectedValues() []string {
	var vals []string
	for _, item := range m.Items {
		if item.Checked {
			vals = append(vals, item.Value)
		}
	}
	return vals
}
