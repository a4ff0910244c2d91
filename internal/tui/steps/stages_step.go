package steps

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/mlpipe/internal/tui"
	"github.com/initializ/mlpipe/internal/tui/components"
	"github.com/initializ/mlpipe/pipeline"
)

// StagesStep picks which catalog stages main.steps runs by default.
type StagesStep struct {
	selector components.MultiSelect
	complete bool
	selected []string
}

// NewStagesStep creates the stage picker with every stage checked,
// or only those named in preselect when it is non-empty and not "all".
func NewStagesStep(styles *tui.StyleSet, preselect []string) *StagesStep {
	want := make(map[string]bool, len(preselect))
	for _, n := range preselect {
		want[n] = true
	}

	var items []components.MultiSelectItem
	for _, st := range pipeline.Catalog() {
		where := "local " + st.Location.Path
		if st.Location.Remote {
			where = "components repo " + st.Location.Path
		}
		items = append(items, components.MultiSelectItem{
			Label:       st.Name,
			Value:       st.Name,
			Description: fmt.Sprintf("%s · %d parameters", where, len(st.Params)),
			Checked:     len(want) == 0 || want[pipeline.AllSteps] || want[st.Name],
		})
	}

	return &StagesStep{
		selector: components.NewMultiSelect(items, components.MultiSelectStyles{
			Accent:         styles.Theme.Accent,
			Primary:        styles.Theme.Primary,
			Secondary:      styles.Theme.Secondary,
			Dim:            styles.Theme.Dim,
			Error:          styles.Theme.Error,
			ActiveBorder:   styles.ActiveBorder,
			InactiveBorder: styles.InactiveBorder,
			KbdKey:         styles.KbdKey,
			KbdDesc:        styles.KbdDesc,
		}),
	}
}

func (s *StagesStep) Title() string { return "Stages" }

func (s *StagesStep) Init() tea.Cmd {
	s.complete = false
	s.selector.Reset()
	return nil
}

func (s *StagesStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}

	s.selector, _ = s.selector.Update(msg)
	if s.selector.Done() {
		s.complete = true
		if s.selector.AllChecked() {
			s.selected = []string{pipeline.AllSteps}
		} else {
			s.selected = s.selector.SelectedValues()
		}
		return s, func() tea.Msg { return tui.StepCompleteMsg{} }
	}
	return s, nil
}

func (s *StagesStep) View(width int) string { return s.selector.View(width) }

func (s *StagesStep) Complete() bool { return s.complete }

func (s *StagesStep) Summary() string { return strings.Join(s.selected, ", ") }

func (s *StagesStep) Apply(ctx *tui.WizardContext) {
	ctx.Steps = append([]string(nil), s.selected...)
}
