package steps

import (
	"fmt"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/mlpipe/internal/tui"
	"github.com/initializ/mlpipe/internal/tui/components"
)

var identRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// TextStep collects a single free-form answer.
type TextStep struct {
	title     string
	input     components.TextInput
	complete  bool
	value     string
	prefill   string
	prefilled bool
	apply     func(ctx *tui.WizardContext, value string)
}

// NewTextStep creates a text step. A non-empty prefill completes the step
// without prompting the first time it is shown.
func NewTextStep(styles *tui.StyleSet, title, label, placeholder, prefill string, validate func(string) error, apply func(*tui.WizardContext, string)) *TextStep {
	input := components.NewTextInput(label, placeholder, validate, components.TextInputStyles{
		Accent:  styles.Theme.Accent,
		Label:   styles.AccentTxt,
		Border:  styles.InactiveBorder,
		Error:   styles.ErrorTxt,
		KbdKey:  styles.KbdKey,
		KbdDesc: styles.KbdDesc,
	})
	if prefill != "" {
		input.SetValue(prefill)
	}

	return &TextStep{
		title:   title,
		input:   input,
		prefill: prefill,
		apply:   apply,
	}
}

// NewProjectStep asks for the W&B project name.
func NewProjectStep(styles *tui.StyleSet, prefill string) *TextStep {
	return NewTextStep(styles, "Project", "Which project should runs be logged to?", "nyc_airbnb", prefill,
		identifier("project name"),
		func(ctx *tui.WizardContext, v string) { ctx.ProjectName = v })
}

// NewExperimentStep asks for the experiment (run group) name.
func NewExperimentStep(styles *tui.StyleSet, prefill string) *TextStep {
	return NewTextStep(styles, "Experiment", "Which experiment groups these runs?", "development", prefill,
		identifier("experiment name"),
		func(ctx *tui.WizardContext, v string) { ctx.ExperimentName = v })
}

// NewRepositoryStep asks where the shared components live.
func NewRepositoryStep(styles *tui.StyleSet, prefill string) *TextStep {
	validate := func(v string) error {
		if strings.ContainsAny(v, " \t") {
			return fmt.Errorf("repository must not contain whitespace")
		}
		return nil
	}
	return NewTextStep(styles, "Components", "Where do the shared components live?",
		"https://github.com/udacity/build-ml-pipeline-for-short-term-rental-prices#components", prefill,
		validate,
		func(ctx *tui.WizardContext, v string) { ctx.ComponentsRepository = v })
}

// NewSampleStep asks which raw sample the download stage fetches.
func NewSampleStep(styles *tui.StyleSet, prefill string) *TextStep {
	return NewTextStep(styles, "Sample", "Which data sample should be downloaded?", "sample1.csv", prefill,
		identifier("sample"),
		func(ctx *tui.WizardContext, v string) { ctx.Sample = v })
}

func identifier(what string) func(string) error {
	return func(v string) error {
		if !identRe.MatchString(v) {
			return fmt.Errorf("%s may only contain letters, digits, '.', '_' and '-'", what)
		}
		return nil
	}
}

func (s *TextStep) Title() string { return s.title }

func (s *TextStep) Init() tea.Cmd {
	if s.prefill != "" && !s.prefilled {
		s.prefilled = true
		s.complete = true
		s.value = s.prefill
		return func() tea.Msg { return tui.StepCompleteMsg{} }
	}
	s.complete = false
	s.input.Reset()
	return s.input.Init()
}

func (s *TextStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}

	updated, cmd := s.input.Update(msg)
	s.input = updated

	if s.input.Done() {
		s.complete = true
		s.value = s.input.Value()
		return s, func() tea.Msg { return tui.StepCompleteMsg{} }
	}

	return s, cmd
}

func (s *TextStep) View(width int) string { return s.input.View(width) }

func (s *TextStep) Complete() bool { return s.complete }

func (s *TextStep) Summary() string { return s.value }

func (s *TextStep) Apply(ctx *tui.WizardContext) {
	if s.apply != nil {
		s.apply(ctx, s.value)
	}
}
