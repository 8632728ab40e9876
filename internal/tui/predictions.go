package tui

import (
	"fmt"
	"strings"

	"endurance/internal/service"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PredictionsModel is the performance forecast screen model
type PredictionsModel struct {
	queryService *service.QueryService
	units        Units
	data         *service.PredictionsData
	viewport     viewport.Model
	loading      bool
	err          error
	width        int
	height       int
	ready        bool
}

// NewPredictionsModel creates a new predictions model
func NewPredictionsModel(qs *service.QueryService, units Units, width, height int) PredictionsModel {
	m := PredictionsModel{
		queryService: qs,
		units:        units,
		loading:      true,
		width:        width,
		height:       height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}

	return m
}

// Init initializes the predictions screen
func (m PredictionsModel) Init() tea.Cmd {
	return m.loadPredictions
}

type predictionsLoadedMsg struct {
	data *service.PredictionsData
	err  error
}

func (m PredictionsModel) loadPredictions() tea.Msg {
	data, err := m.queryService.GetPredictions()
	return predictionsLoadedMsg{data: data, err: err}
}

// Update handles messages
func (m PredictionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case predictionsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.data != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadPredictions
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the predictions screen
func (m PredictionsModel) View() string {
	if m.loading {
		return "\n  Loading predictions..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  j/k or arrows: scroll  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m PredictionsModel) renderContent() string {
	if m.data == nil || (!m.data.HasRunning && !m.data.HasCycling) {
		return m.renderEmptyState()
	}

	sections := []string{
		"",
		cardTitleStyle.Render("Performance Forecast"),
		m.renderForm(),
	}
	if m.data.HasRunning {
		sections = append(sections, m.renderRunning())
	}
	if m.data.HasCycling {
		sections = append(sections, m.renderCycling())
	}
	sections = append(sections, m.renderAboutSection())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PredictionsModel) renderEmptyState() string {
	lines := []string{
		"",
		cardTitleStyle.Render("Performance Forecast"),
		"",
		mutedTextStyle.Render("  No forecast available yet."),
		"",
		mutedTextStyle.Render("  Running predictions need a run of at least 3 km in the last 90 days."),
		mutedTextStyle.Render("  Cycling predictions need rides with average power."),
		"",
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sectionHeader(title string) string {
	const width = 55
	fill := width - len(title) - 4
	if fill < 3 {
		fill = 3
	}
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(secondaryColor)
	return headerStyle.Render(fmt.Sprintf("── %s %s", title, strings.Repeat("─", fill)))
}

func (m PredictionsModel) renderForm() string {
	f := m.data.Fitness
	line := fmt.Sprintf("  CTL %.0f  ATL %.0f  TSB %+.0f  form adjustment %+.1f%%",
		f.CTL, f.ATL, f.TSB, m.data.Forecast.FormDelta*100)
	return mutedTextStyle.Render(line) + "\n"
}

func (m PredictionsModel) renderRunning() string {
	var lines []string

	lines = append(lines, sectionHeader("Running"))

	conf := m.data.Forecast.Confidence.Running
	vdotStyle := lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	lines = append(lines, fmt.Sprintf("  VDOT: %s (%s)  exponent %.3f  confidence %s",
		vdotStyle.Render(fmt.Sprintf("%.1f", m.data.VDOT)),
		m.data.VDOTLabel,
		m.data.Exponent,
		confidenceStyle(conf).Render(conf),
	))

	source := fmt.Sprintf("  Based on: %s over %s", m.data.SourceTime, m.units.FormatDistance(m.data.SourceKm*service.MetersPerKm))
	if m.data.SourceDate != "" {
		source += " (" + m.data.SourceDate + ")"
	}
	lines = append(lines, mutedTextStyle.Render(source), "")

	header := fmt.Sprintf("  %-15s  %12s  %12s  %12s", "Distance", "Predicted", "Pace "+m.units.PaceSuffix(), "VDOT table")
	lines = append(lines, lipgloss.NewStyle().Foreground(primaryColor).Render(header))

	for _, pred := range m.data.Predictions {
		vdotTime := pred.VDOTTime
		if vdotTime == "" {
			vdotTime = "-"
		}
		lines = append(lines, fmt.Sprintf("  %-15s  %12s  %12s  %12s",
			pred.TargetLabel,
			pred.PredictedTime,
			m.units.FormatPaceSecPerKm(pred.PaceSecPerKm),
			vdotTime,
		))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m PredictionsModel) renderCycling() string {
	c := m.data.Forecast.Cycling
	conf := m.data.Forecast.Confidence.Cycling

	method := "single effort"
	if c.Fitted {
		method = "fitted"
	}

	lines := []string{
		sectionHeader("Cycling"),
		fmt.Sprintf("  Confidence %s from %d power efforts (%s)", confidenceStyle(conf).Render(conf), c.Efforts, method),
		"",
		RenderMetric("Critical power", fmt.Sprintf("%.0f W", c.CP), ""),
		RenderMetric("FTP", fmt.Sprintf("%.0f W", c.FTP), ""),
		RenderMetric("20 min power", fmt.Sprintf("%.0f W", c.P20), ""),
		"",
	}
	return strings.Join(lines, "\n")
}

func (m PredictionsModel) renderAboutSection() string {
	lines := []string{
		sectionHeader("About These Predictions"),
		mutedTextStyle.Render("  Running times scale the best recent effort with Riegel's formula."),
		mutedTextStyle.Render("  The VDOT column shows the Jack Daniels table equivalent."),
		mutedTextStyle.Render("  Current form (TSB) adjusts every prediction by a few percent."),
		"",
		fmt.Sprintf("    %s - plenty of recent efforts", confidenceStyle("high").Render("high")),
		fmt.Sprintf("    %s - a few recent efforts", confidenceStyle("medium").Render("medium")),
		fmt.Sprintf("    %s - a single effort or an old reference", confidenceStyle("low").Render("low")),
		"",
	}
	return strings.Join(lines, "\n")
}
