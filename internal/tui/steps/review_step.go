package steps

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/mlpipe/internal/tui"
	"github.com/initializ/mlpipe/internal/tui/components"
)

// ReviewStep shows the collected answers and asks for confirmation.
// Writing the config is left to the caller once the wizard exits.
type ReviewStep struct {
	styles   *tui.StyleSet
	summary  components.SummaryBox
	complete bool
	kbd      components.KbdHint
}

// NewReviewStep creates a new review step.
func NewReviewStep(styles *tui.StyleSet) *ReviewStep {
	return &ReviewStep{
		styles: styles,
		kbd:    components.NewKbdHint(styles.KbdKey, styles.KbdDesc, components.ReviewHints()),
	}
}

// Prepare builds the summary from wizard context.
func (s *ReviewStep) Prepare(ctx *tui.WizardContext) {
	s.complete = false
	rows := []components.SummaryRow{
		{Key: "Project", Value: ctx.ProjectName},
		{Key: "Experiment", Value: ctx.ExperimentName},
		{Key: "Components", Value: ctx.ComponentsRepository},
		{Key: "Sample", Value: ctx.Sample},
		{Key: "Steps", Value: strings.Join(ctx.Steps, ",")},
	}
	s.summary = components.NewSummaryBox(rows, components.SummaryStyles{
		Key:   s.styles.SummaryKey,
		Value: s.styles.SummaryValue,
		Box:   s.styles.BorderedBox,
	})
}

func (s *ReviewStep) Title() string { return "Review" }

func (s *ReviewStep) Init() tea.Cmd {
	s.complete = false
	return nil
}

func (s *ReviewStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			s.complete = true
			return s, func() tea.Msg { return tui.StepCompleteMsg{} }
		case "backspace":
			return s, func() tea.Msg { return tui.StepBackMsg{} }
		}
	}
	return s, nil
}

func (s *ReviewStep) View(width int) string {
	return "\n" + s.summary.View(width) + "\n\n" + s.kbd.View()
}

func (s *ReviewStep) Complete() bool { return s.complete }

func (s *ReviewStep) Summary() string { return "ready" }

func (s *ReviewStep) Apply(*tui.WizardContext) {}
