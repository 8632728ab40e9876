package tui

import (
	"fmt"

	"endurance/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ActivitiesModel is the activities list screen model
type ActivitiesModel struct {
	queryService *service.QueryService
	units        Units
	activities   []service.ActivityRow
	cursor       int
	offset       int
	total        int
	pageSize     int
	loading      bool
	err          error
}

// NewActivitiesModel creates a new activities model
func NewActivitiesModel(qs *service.QueryService, units Units) ActivitiesModel {
	return ActivitiesModel{
		queryService: qs,
		units:        units,
		pageSize:     15,
		loading:      true,
	}
}

// Init initializes the activities screen
func (m ActivitiesModel) Init() tea.Cmd {
	return m.loadPage
}

type activitiesLoadedMsg struct {
	activities []service.ActivityRow
	total      int
	err        error
}

// OpenActivityDetailMsg asks the app to show one activity
type OpenActivityDetailMsg struct {
	ActivityID string
}

func (m ActivitiesModel) loadPage() tea.Msg {
	activities, err := m.queryService.GetActivitiesList(m.pageSize, m.offset)
	if err != nil {
		return activitiesLoadedMsg{err: err}
	}

	total, err := m.queryService.GetTotalActivityCount()
	if err != nil {
		return activitiesLoadedMsg{err: err}
	}

	return activitiesLoadedMsg{activities: activities, total: total}
}

// Update handles messages
func (m ActivitiesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activitiesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.activities = msg.activities
		m.total = msg.total
		if m.cursor >= len(m.activities) {
			m.cursor = max(len(m.activities)-1, 0)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				// Go to previous page
				m.offset -= m.pageSize
				m.cursor = m.pageSize - 1
				m.loading = true
				return m, m.loadPage
			}
		case "down", "j":
			if m.cursor < len(m.activities)-1 {
				m.cursor++
			} else if m.offset+len(m.activities) < m.total {
				// Go to next page
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "pgup":
			if m.offset > 0 {
				m.offset = max(m.offset-m.pageSize, 0)
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "pgdown":
			if m.offset+m.pageSize < m.total {
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "r":
			m.loading = true
			return m, m.loadPage
		case "enter":
			if len(m.activities) > 0 && m.cursor < len(m.activities) {
				activityID := m.activities[m.cursor].Activity.ID
				return m, func() tea.Msg {
					return OpenActivityDetailMsg{ActivityID: activityID}
				}
			}
		}
	}
	return m, nil
}

// View renders the activities list
func (m ActivitiesModel) View() string {
	if m.loading {
		return "\n  Loading activities..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.activities) == 0 {
		return "\n  No activities found. Press 's' to sync with Strava."
	}

	var sections []string

	startNum := m.offset + 1
	endNum := m.offset + len(m.activities)
	title := cardTitleStyle.Render(fmt.Sprintf("Activities (%d-%d of %d)", startNum, endNum, m.total))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-10s  %-6s  %-7s  %10s  %9s  %10s  %5s  %5s  %s",
		"Date", "Sport", "Source", "Distance", "Time", "Pace", "Load", "TRIMP", ""))
	sections = append(sections, header)

	for i, r := range m.activities {
		a := r.Activity

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		flag := ""
		if a.IsSuspicious {
			flag = "suspicious"
		}

		row := fmt.Sprintf("%s%-10s  %-6s  %-7s  %10s  %9s  %10s  %5s  %5s  %s",
			cursor,
			a.StartDate.Local().Format("Jan 02 06"),
			a.Sport,
			a.Source,
			m.units.FormatDistance(a.DistanceM),
			service.FormatDuration(a.DurationS),
			m.units.FormatActivityPace(a),
			formatOptional(r.Load, r.LoadKnown, "%.0f"),
			formatOptional(r.TRIMP, r.HasTRIMP, "%.0f"),
			flag,
		)

		switch {
		case i == m.cursor:
			sections = append(sections, tableSelectedStyle.Render(row))
		case a.IsSuspicious:
			sections = append(sections, suspiciousStyle.Render(tableRowStyle.Render(row)))
		default:
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  enter: view details  j/k: navigate  pgup/pgdn: page  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
