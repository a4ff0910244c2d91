package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TermTheme is the palette the wizard and run report draw from.
type TermTheme struct {
	Accent    lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Dim       lipgloss.Color
	Border    lipgloss.Color
}

// Built-in themes, selectable by name.
var (
	DarkTheme = TermTheme{
		Accent:    "#38bdf8",
		Success:   "#22c55e",
		Error:     "#ef4444",
		Primary:   "#e0e0e8",
		Secondary: "#888888",
		Dim:       "#5a5a70",
		Border:    "#2a2a3a",
	}
	LightTheme = TermTheme{
		Accent:    "#0369a1",
		Success:   "#15803d",
		Error:     "#b91c1c",
		Primary:   "#0f172a",
		Secondary: "#374151",
		Dim:       "#4b5563",
		Border:    "#d1d5db",
	}
)

var themesByName = map[string]TermTheme{
	"dark":  DarkTheme,
	"light": LightTheme,
}

// DetectTheme resolves the theme in order: the --theme flag, MLPIPE_THEME,
// then the terminal background advertised in COLORFGBG. Dark wins when
// nothing matches.
func DetectTheme(flagVal string) TermTheme {
	for _, v := range []string{flagVal, os.Getenv("MLPIPE_THEME")} {
		if th, ok := themesByName[strings.ToLower(strings.TrimSpace(v))]; ok {
			return th
		}
	}
	if lightBackground(os.Getenv("COLORFGBG")) {
		return LightTheme
	}
	return DarkTheme
}

// lightBackground reports whether a COLORFGBG value ("fg;bg" or
// "fg;other;bg") ends in one of the white ANSI slots.
func lightBackground(colorfgbg string) bool {
	i := strings.LastIndexByte(colorfgbg, ';')
	if i < 0 {
		return false
	}
	switch colorfgbg[i+1:] {
	case "7", "15":
		return true
	}
	return false
}

// StyleSet holds the lipgloss styles derived from one theme.
type StyleSet struct {
	Theme TermTheme

	Title        lipgloss.Style
	Subtitle     lipgloss.Style
	AccentTxt    lipgloss.Style
	DimTxt       lipgloss.Style
	SuccessTxt   lipgloss.Style
	ErrorTxt     lipgloss.Style
	PrimaryTxt   lipgloss.Style
	SecondaryTxt lipgloss.Style

	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style

	KbdKey  lipgloss.Style
	KbdDesc lipgloss.Style

	SummaryKey   lipgloss.Style
	SummaryValue lipgloss.Style
	BorderedBox  lipgloss.Style

	StepBadgeComplete lipgloss.Style
	StepBadgeActive   lipgloss.Style
	StepBadgeFailed   lipgloss.Style
}

// NewStyleSet derives the styles for theme.
func NewStyleSet(theme TermTheme) *StyleSet {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	rounded := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
	}
	badge := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true).Padding(0, 1)

	return &StyleSet{
		Theme: theme,

		Title:        fg(theme.Accent).Bold(true),
		Subtitle:     fg(theme.Secondary),
		AccentTxt:    fg(theme.Accent),
		DimTxt:       fg(theme.Dim),
		SuccessTxt:   fg(theme.Success),
		ErrorTxt:     fg(theme.Error),
		PrimaryTxt:   fg(theme.Primary),
		SecondaryTxt: fg(theme.Secondary),

		ActiveBorder:   rounded(theme.Accent),
		InactiveBorder: rounded(theme.Border),

		KbdKey:  fg(theme.Primary).Background(theme.Dim).Padding(0, 1),
		KbdDesc: fg(theme.Dim),

		SummaryKey:   fg(theme.Secondary),
		SummaryValue: fg(theme.Primary).Bold(true),
		BorderedBox:  rounded(theme.Border).Padding(0, 1),

		StepBadgeComplete: badge.Background(theme.Success),
		StepBadgeActive:   badge.Background(theme.Accent),
		StepBadgeFailed:   badge.Background(theme.Error),
	}
}
