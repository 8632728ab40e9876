package tui

import (
	"fmt"

	"endurance/internal/analysis"
	"endurance/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	queryService *service.QueryService
	units        Units
	data         *service.DashboardData
	width        int
	height       int
	loading      bool
	err          error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService, units Units, width, height int) DashboardModel {
	return DashboardModel{
		queryService: qs,
		units:        units,
		width:        width,
		height:       height,
		loading:      true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.queryService.GetDashboardData()
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{data: data}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil || !m.data.HasData {
		return "\n  No data available. Press 's' to sync with Strava or run 'endurance import <file.fit>'."
	}

	var sections []string

	// Top row: fitness, last 30 days and regularity side by side
	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderFitnessCard(), "  ", m.renderTotalsCard(), "  ", m.renderRegularityCard())
	sections = append(sections, topRow)

	if len(m.data.FitnessHistory) > 2 {
		sections = append(sections, m.renderFitnessChart())
	}
	if len(m.data.WeeklyDistance) > 2 {
		sections = append(sections, m.renderWeeklyChart())
	}

	sections = append(sections, m.renderRecentActivities())

	help := statusStyle.Render("Press 'r' to refresh, 's' to sync, '2' for activities list")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderFitnessCard() string {
	title := cardTitleStyle.Render("Current Fitness")
	f := m.data.Fitness

	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", f.CTL), ""),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.0f", f.ATL), ""),
		RenderMetric("Form (TSB)", fmt.Sprintf("%+.0f", f.TSB), ""),
		"",
		mutedTextStyle.Render(m.data.FormDescription),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(38).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderTotalsCard() string {
	title := cardTitleStyle.Render("Last 30 Days")
	t := m.data.Totals

	lines := []string{
		RenderMetric("Activities", fmt.Sprintf("%d", t.Count30), ""),
		RenderMetric("Distance", m.units.FormatDistance(t.Distance30M), ""),
		RenderMetric("Elevation", fmt.Sprintf("%.0f m", t.Elevation30M), ""),
		RenderMetric("Time", formatHours(t.Duration30S), ""),
		RenderMetric("Load", fmt.Sprintf("%.0f", t.Load30), formatTrend(t.Variation30Pct)),
		RenderMetric("Load 7d / 28d", fmt.Sprintf("%.0f / %.0f", t.Load7, t.Load28), ""),
	}
	if t.OverloadWarning {
		lines = append(lines, "", warningStyle.Render("7-day load above the 28-day weekly average"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderRegularityCard() string {
	title := cardTitleStyle.Render("Regularity")
	r := m.data.Regularity

	if r.Category == analysis.RegularityNone {
		return cardStyle.Width(36).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedTextStyle.Render("Not enough data")))
	}

	lines := []string{
		RenderMetric("This week", fmt.Sprintf("%.0f", r.Vn), formatTrend(r.DeltaPct)),
		RenderMetric("Last week", fmt.Sprintf("%.0f", r.VnPrev), ""),
		RenderMetric("Variability", fmt.Sprintf("%.2f", r.R), ""),
		RenderMetric("Coherence", fmt.Sprintf("%d/100", r.CoherenceScore), ""),
		"",
		regularityStyle(r.Category).Render(r.Message),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(36).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) chartWidth() int {
	w := m.width - 16
	if w < 30 {
		return 60
	}
	if w > 100 {
		return 100
	}
	return w
}

func (m DashboardModel) renderFitnessChart() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Fitness and Fatigue - Last %d Days", len(m.data.FitnessHistory)))

	ctl := make([]float64, len(m.data.FitnessHistory))
	atl := make([]float64, len(m.data.FitnessHistory))
	for i, f := range m.data.FitnessHistory {
		ctl[i] = f.CTL
		atl[i] = f.ATL
	}

	graph := asciigraph.PlotMany([][]float64{ctl, atl},
		asciigraph.Height(8),
		asciigraph.Width(m.chartWidth()),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.Caption("CTL (green)  ATL (red)"),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderWeeklyChart() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Weekly Distance (%s)", m.units.DistanceLabelLong()))

	values := make([]float64, len(m.data.WeeklyDistance))
	for i, p := range m.data.WeeklyDistance {
		values[i] = m.units.DistanceKm(p.Value)
	}
	first := m.data.WeeklyDistance[0].Start.Format("Jan 02")

	graph := asciigraph.Plot(values,
		asciigraph.Height(6),
		asciigraph.Width(m.chartWidth()),
		asciigraph.Precision(1),
		asciigraph.Caption("weeks since "+first),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderRecentActivities() string {
	title := cardTitleStyle.Render("Recent Activities")

	if len(m.data.RecentActivities) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No activities yet"))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-6s  %10s  %9s  %6s  %6s",
		"Date", "Sport", "Distance", "Time", "Load", "TRIMP"))

	rows := []string{header}
	for _, r := range m.data.RecentActivities {
		a := r.Activity
		row := tableRowStyle.Render(fmt.Sprintf("%-10s  %-6s  %10s  %9s  %6s  %6s",
			a.StartDate.Local().Format("Jan 02"),
			a.Sport,
			m.units.FormatDistance(a.DistanceM),
			service.FormatDuration(a.DurationS),
			formatOptional(r.Load, r.LoadKnown, "%.0f"),
			formatOptional(r.TRIMP, r.HasTRIMP, "%.0f"),
		))
		rows = append(rows, row)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func formatHours(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func formatTrend(pct float64) string {
	switch {
	case pct > 0.5:
		return fmt.Sprintf("+%.0f%%", pct)
	case pct < -0.5:
		return fmt.Sprintf("%.0f%%", pct)
	default:
		return ""
	}
}

func formatOptional(v float64, ok bool, format string) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
