package tui

import (
	"fmt"

	"endurance/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ComparisonsModel is the period comparisons screen model
type ComparisonsModel struct {
	queryService *service.QueryService
	units        Units
	comparisons  []service.ComparisonStats
	loading      bool
	err          error
}

// NewComparisonsModel creates a new comparisons model
func NewComparisonsModel(qs *service.QueryService, units Units) ComparisonsModel {
	return ComparisonsModel{
		queryService: qs,
		units:        units,
		loading:      true,
	}
}

// Init initializes the comparisons screen
func (m ComparisonsModel) Init() tea.Cmd {
	return m.loadComparisons
}

type comparisonsLoadedMsg struct {
	comparisons []service.ComparisonStats
	err         error
}

func (m ComparisonsModel) loadComparisons() tea.Msg {
	comparisons, err := m.queryService.GetComparisons()
	return comparisonsLoadedMsg{comparisons: comparisons, err: err}
}

// Update handles messages
func (m ComparisonsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case comparisonsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.comparisons = msg.comparisons

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadComparisons
		}
	}
	return m, nil
}

// View renders the comparisons screen
func (m ComparisonsModel) View() string {
	if m.loading {
		return "\n  Loading comparisons..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	sections := []string{cardTitleStyle.Render("Period Comparisons")}

	if len(m.comparisons) == 0 {
		sections = append(sections, "\n  No data available. Sync some activities first.")
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	for _, comp := range m.comparisons {
		sections = append(sections, m.renderComparison(comp))
	}

	help := statusStyle.Render("\n  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ComparisonsModel) renderComparison(comp service.ComparisonStats) string {
	titleLine := metricLabelStyle.Render(fmt.Sprintf("── %s ", comp.Label))

	header := fmt.Sprintf("                    %-14s  %-14s  %s",
		comp.Current.PeriodLabel,
		comp.Previous.PeriodLabel,
		"Change")
	headerLine := tableHeaderStyle.Render(header)

	cur, prev := comp.Current, comp.Previous
	rows := []string{
		renderCountRow("Activities", cur.Count, prev.Count, comp.DeltaCount),
		renderPctRow("Distance",
			m.units.FormatDistance(cur.DistanceKm*service.MetersPerKm),
			m.units.FormatDistance(prev.DistanceKm*service.MetersPerKm),
			comp.DistanceDeltaPct),
		renderPctRow("Elevation", fmt.Sprintf("%.0f m", cur.ElevationM), fmt.Sprintf("%.0f m", prev.ElevationM), comp.ElevationDeltaPct),
		renderPctRow("Time", formatHours(cur.DurationH*3600), formatHours(prev.DurationH*3600), percentChange(cur.DurationH, prev.DurationH)),
		renderPctRow("Load", fmt.Sprintf("%.0f", cur.Load), fmt.Sprintf("%.0f", prev.Load), comp.LoadDeltaPct),
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		titleLine,
		headerLine,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func percentChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

func renderCountRow(label string, current, previous, delta int) string {
	var deltaStr string
	switch {
	case delta > 0:
		deltaStr = fmt.Sprintf("+%d", delta)
	case delta < 0:
		deltaStr = fmt.Sprintf("%d", delta)
	default:
		deltaStr = "0"
	}
	return renderRow(label, fmt.Sprintf("%d", current), fmt.Sprintf("%d", previous), deltaStr, delta)
}

func renderPctRow(label, current, previous string, pct float64) string {
	trend := 0
	deltaStr := "0%"
	switch {
	case pct > 0.5:
		deltaStr = fmt.Sprintf("+%.0f%%", pct)
		trend = 1
	case pct < -0.5:
		deltaStr = fmt.Sprintf("%.0f%%", pct)
		trend = -1
	}
	return renderRow(label, current, previous, deltaStr, trend)
}

func renderRow(label, current, previous, deltaStr string, trend int) string {
	var styledDelta string
	switch {
	case trend > 0:
		styledDelta = trendUpStyle.Render(deltaStr + " ↑")
	case trend < 0:
		styledDelta = trendDownStyle.Render(deltaStr + " ↓")
	default:
		styledDelta = trendFlatStyle.Render(deltaStr + " →")
	}

	row := fmt.Sprintf("  %-16s  %-14s  %-14s  %s",
		label,
		current,
		previous,
		styledDelta)

	return tableRowStyle.Render(row)
}
