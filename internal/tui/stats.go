package tui

import (
	"fmt"

	"endurance/internal/analysis"
	"endurance/internal/service"
	"endurance/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// StatsModel is the period stats screen model
type StatsModel struct {
	queryService *service.QueryService
	units        Units
	stats        []service.PeriodStats // newest first, periods with activity only
	elevation    []analysis.SeriesPoint
	period       store.Period
	loading      bool
	err          error
	cursor       int
	offset       int
	pageSize     int
	total        int
}

// NewStatsModel creates a new stats model
func NewStatsModel(qs *service.QueryService, units Units) StatsModel {
	return StatsModel{
		queryService: qs,
		units:        units,
		period:       store.PeriodWeek,
		loading:      true,
		pageSize:     12,
	}
}

// Init initializes the stats screen
func (m StatsModel) Init() tea.Cmd {
	return m.loadStats
}

type statsLoadedMsg struct {
	stats     []service.PeriodStats
	elevation []analysis.SeriesPoint
	err       error
}

func (m StatsModel) loadStats() tea.Msg {
	numPeriods := 104 // two years of weeks
	if m.period == store.PeriodMonth {
		numPeriods = 36
	}

	stats, err := m.queryService.GetPeriodStats(m.period, numPeriods)
	if err != nil {
		return statsLoadedMsg{err: err}
	}
	elevation, err := m.queryService.MonthlyElevation()
	return statsLoadedMsg{stats: stats, elevation: elevation, err: err}
}

// Update handles messages
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.elevation = msg.elevation
		m.stats = nil
		for i := len(msg.stats) - 1; i >= 0; i-- {
			if msg.stats[i].Count > 0 {
				m.stats = append(m.stats, msg.stats[i])
			}
		}
		m.total = len(m.stats)
		m.cursor = 0
		m.offset = 0

	case tea.KeyMsg:
		switch msg.String() {
		case "w":
			if m.period != store.PeriodWeek {
				m.period = store.PeriodWeek
				m.loading = true
				return m, m.loadStats
			}
		case "m":
			if m.period != store.PeriodMonth {
				m.period = store.PeriodMonth
				m.loading = true
				return m, m.loadStats
			}
		case "r":
			m.loading = true
			return m, m.loadStats
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				m.offset -= m.pageSize
				m.cursor = m.pageSize - 1
			}
		case "down", "j":
			visibleCount := m.visibleCount()
			if m.cursor < visibleCount-1 {
				m.cursor++
			} else if m.offset+visibleCount < m.total {
				m.offset += m.pageSize
				m.cursor = 0
			}
		case "pgup":
			if m.offset > 0 {
				m.offset = max(m.offset-m.pageSize, 0)
				m.cursor = 0
			}
		case "pgdown":
			if m.offset+m.pageSize < m.total {
				m.offset += m.pageSize
				m.cursor = 0
			}
		}
	}
	return m, nil
}

func (m StatsModel) visibleCount() int {
	return min(m.total-m.offset, m.pageSize)
}

// View renders the stats screen
func (m StatsModel) View() string {
	if m.loading {
		return "\n  Loading stats..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	var sections []string

	periodName := "Weekly"
	if m.period == store.PeriodMonth {
		periodName = "Monthly"
	}

	if m.total == 0 {
		sections = append(sections,
			cardTitleStyle.Render(fmt.Sprintf("Period Stats (%s)", periodName)),
			"\n  No data available. Sync some activities first.")
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	startNum := m.offset + 1
	endNum := m.offset + m.visibleCount()
	title := cardTitleStyle.Render(fmt.Sprintf("Period Stats (%s) - %d-%d of %d", periodName, startNum, endNum, m.total))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-12s  %10s  %10s  %9s  %8s  %6s",
		"Period", "Activities", "Distance", "Elevation", "Time", "Load"))
	sections = append(sections, header)

	for i := m.offset; i < m.offset+m.visibleCount(); i++ {
		s := m.stats[i]

		cursor := "  "
		if i-m.offset == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-12s  %10d  %10s  %9s  %8s  %6.0f",
			cursor,
			s.PeriodLabel,
			s.Count,
			m.units.FormatDistance(s.DistanceKm*service.MetersPerKm),
			fmt.Sprintf("%.0f m", s.ElevationM),
			formatHours(s.DurationH*3600),
			s.Load,
		)

		if i-m.offset == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	if chart := m.renderElevationChart(); chart != "" {
		sections = append(sections, "", chart)
	}

	help := statusStyle.Render("\n  w/m: weekly/monthly  j/k: navigate  pgup/pgdn: page  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m StatsModel) renderElevationChart() string {
	if len(m.elevation) < 2 {
		return ""
	}
	values := make([]float64, len(m.elevation))
	hasGain := false
	for i, p := range m.elevation {
		values[i] = p.Value
		hasGain = hasGain || p.Value > 0
	}
	if !hasGain {
		return ""
	}

	graph := asciigraph.Plot(values,
		asciigraph.Height(6),
		asciigraph.Width(60),
		asciigraph.Precision(0),
		asciigraph.Caption(fmt.Sprintf("monthly elevation gain (m) since %s", m.elevation[0].Start.Format("Jan 2006"))),
	)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, cardTitleStyle.Render("Elevation"), graph))
}
