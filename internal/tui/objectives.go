package tui

import (
	"fmt"

	"endurance/internal/analysis"
	"endurance/internal/service"
	"endurance/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ObjectivesModel is the training objectives screen model
type ObjectivesModel struct {
	queryService *service.QueryService
	progress     []analysis.ObjectiveProgress
	cursor       int
	confirm      bool // waiting for a second "d"
	loading      bool
	err          error
}

// NewObjectivesModel creates a new objectives model
func NewObjectivesModel(qs *service.QueryService) ObjectivesModel {
	return ObjectivesModel{
		queryService: qs,
		loading:      true,
	}
}

// Init initializes the objectives screen
func (m ObjectivesModel) Init() tea.Cmd {
	return m.loadObjectives
}

type objectivesLoadedMsg struct {
	progress []analysis.ObjectiveProgress
	err      error
}

func (m ObjectivesModel) loadObjectives() tea.Msg {
	progress, err := m.queryService.GetObjectiveProgress()
	return objectivesLoadedMsg{progress: progress, err: err}
}

func (m ObjectivesModel) deleteSelected() tea.Msg {
	id := m.progress[m.cursor].Objective.ID
	if err := m.queryService.DeleteObjective(id); err != nil {
		return objectivesLoadedMsg{err: err}
	}
	return m.loadObjectives()
}

// Update handles messages
func (m ObjectivesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case objectivesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.progress = msg.progress
		if m.cursor >= len(m.progress) {
			m.cursor = max(len(m.progress)-1, 0)
		}

	case tea.KeyMsg:
		key := msg.String()
		if key != "d" {
			m.confirm = false
		}
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.progress)-1 {
				m.cursor++
			}
		case "r":
			m.loading = true
			return m, m.loadObjectives
		case "d":
			if len(m.progress) == 0 {
				return m, nil
			}
			if !m.confirm {
				m.confirm = true
				return m, nil
			}
			m.confirm = false
			m.loading = true
			return m, m.deleteSelected
		}
	}
	return m, nil
}

// View renders the objectives screen
func (m ObjectivesModel) View() string {
	if m.loading {
		return "\n  Loading objectives..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	sections := []string{cardTitleStyle.Render("Objectives")}

	if len(m.progress) == 0 {
		sections = append(sections,
			"\n  No objectives yet.",
			mutedTextStyle.Render("  Add one with: endurance objective add <kind> <value> [period] [sport]"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	for i, p := range m.progress {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		label := fmt.Sprintf("%s%-38s", cursor, objectiveLabel(p.Objective))
		if i == m.cursor {
			label = tableSelectedStyle.Render(label)
		}

		status := fmt.Sprintf("%.1f / %.1f %s", p.Achieved, p.Objective.Value, p.Objective.Unit)
		if p.Done {
			status = successStyle.Render(status + "  done")
		}

		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			label, " ", RenderProgressBar(p.Percent/100, 24), fmt.Sprintf(" %3.0f%%  ", p.Percent), status))

		if !p.From.IsZero() {
			period := fmt.Sprintf("    %s to %s", p.From.Format("Jan 02"), p.To.AddDate(0, 0, -1).Format("Jan 02"))
			sections = append(sections, mutedTextStyle.Render(period))
		}
	}

	if m.confirm {
		sections = append(sections, warningStyle.Render("\n  Press d again to delete the selected objective"))
	}

	help := statusStyle.Render("\n  j/k: navigate  d d: delete  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func objectiveLabel(o store.Objective) string {
	sport := "all sports"
	if o.Sport != "" {
		sport = string(o.Sport)
	}
	if o.Kind == store.ObjectiveTotalHours || o.Period == "" {
		return fmt.Sprintf("%s, all time (%s)", o.Kind, sport)
	}
	label := fmt.Sprintf("%s per %s (%s)", o.Kind, o.Period, sport)
	if o.Note != "" {
		label += " " + truncateName(o.Note, 16)
	}
	return label
}
