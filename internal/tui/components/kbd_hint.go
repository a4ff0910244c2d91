package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KeyBinding is one key and what it does.
type KeyBinding struct {
	Key  string
	Desc string
}

// KbdHint is the footer line listing the keys a component accepts.
type KbdHint struct {
	bindings []KeyBinding
	key      lipgloss.Style
	desc     lipgloss.Style
}

func NewKbdHint(keyStyle, descStyle lipgloss.Style, bindings []KeyBinding) KbdHint {
	return KbdHint{bindings: bindings, key: keyStyle, desc: descStyle}
}

func (k KbdHint) View() string {
	var b strings.Builder
	b.WriteString("  ")
	for i, kb := range k.bindings {
		if i > 0 {
			b.WriteString(k.desc.Render("  ·  "))
		}
		b.WriteString(k.key.Render(kb.Key) + " " + k.desc.Render(kb.Desc))
	}
	return b.String()
}

var quit = KeyBinding{Key: "esc", Desc: "quit"}

// MultiSelectHints lists the keys of the stage picker.
func MultiSelectHints() []KeyBinding {
	return []KeyBinding{
		{Key: "↑↓", Desc: "move"},
		{Key: "space", Desc: "toggle stage"},
		{Key: "a", Desc: "toggle all"},
		{Key: "⏎", Desc: "confirm"},
		quit,
	}
}

// InputHints lists the keys of a text prompt.
func InputHints() []KeyBinding {
	return []KeyBinding{{Key: "⏎", Desc: "accept"}, quit}
}

// ReviewHints lists the keys of the review screen.
func ReviewHints() []KeyBinding {
	return []KeyBinding{
		{Key: "⏎", Desc: "write config"},
		{Key: "backspace", Desc: "edit"},
		quit,
	}
}
