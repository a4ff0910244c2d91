package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TextInput is a styled text entry component wrapping bubbles/textinput.
type TextInput struct {
	Label      string
	input      textinput.Model
	done       bool
	err        string
	validateFn func(string) error

	LabelStyle  lipgloss.Style
	BorderStyle lipgloss.Style
	ErrorStyle  lipgloss.Style
	kbd         KbdHint
}

// TextInputStyles groups the styles a TextInput renders with.
type TextInputStyles struct {
	Accent  lipgloss.Color
	Label   lipgloss.Style
	Border  lipgloss.Style
	Error   lipgloss.Style
	KbdKey  lipgloss.Style
	KbdDesc lipgloss.Style
}

// NewTextInput creates a new styled text input. An empty submission
// falls back to the placeholder.
func NewTextInput(label, placeholder string, validateFn func(string) error, st TextInputStyles) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = 200
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(st.Accent)

	return TextInput{
		Label:       label,
		input:       ti,
		validateFn:  validateFn,
		LabelStyle:  st.Label,
		BorderStyle: st.Border,
		ErrorStyle:  st.Error,
		kbd:         NewKbdHint(st.KbdKey, st.KbdDesc, InputHints()),
	}
}

// Init starts the cursor blinking.
func (t TextInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.done {
		return t, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		if t.validateFn != nil {
			if err := t.validateFn(t.Value()); err != nil {
				t.err = err.Error()
				return t, nil
			}
		}
		t.done = true
		t.err = ""
		return t, nil
	}

	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	t.err = ""
	return t, cmd
}

// View renders the text input.
func (t TextInput) View(width int) string {
	out := "\n  " + t.LabelStyle.Render(t.Label) + "\n\n"

	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	t.input.Width = inputWidth

	out += "  " + t.BorderStyle.Width(inputWidth).Render(t.input.View()) + "\n"
	if t.err != "" {
		out += "  " + t.ErrorStyle.Render("✗ "+t.err) + "\n"
	}

	return out + "\n" + t.kbd.View()
}

// Done returns true when input is submitted.
func (t TextInput) Done() bool { return t.done }

// Reset makes the input editable again after back-navigation.
func (t *TextInput) Reset() { t.done = false }

// Value returns the submitted value, or the placeholder when empty.
func (t TextInput) Value() string {
	if v := strings.TrimSpace(t.input.Value()); v != "" {
		return v
	}
	return t.input.Placeholder
}

// SetValue sets the input value.
func (t *TextInput) SetValue(v string) {
	t.input.SetValue(v)
}
