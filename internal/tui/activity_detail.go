package tui

import (
	"fmt"
	"strings"

	"endurance/internal/service"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ActivityDetailModel is the activity detail screen model
type ActivityDetailModel struct {
	queryService *service.QueryService
	units        Units
	activityID   string
	detail       *service.ActivityRow
	viewport     viewport.Model
	loading      bool
	err          error
	width        int
	height       int
	ready        bool
}

// NewActivityDetailModel creates a new activity detail model
func NewActivityDetailModel(qs *service.QueryService, units Units, activityID string, width, height int) ActivityDetailModel {
	m := ActivityDetailModel{
		queryService: qs,
		units:        units,
		activityID:   activityID,
		loading:      true,
		width:        width,
		height:       height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // header and footer
		m.ready = true
	}

	return m
}

// Init initializes the activity detail screen
func (m ActivityDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type activityDetailLoadedMsg struct {
	detail *service.ActivityRow
	err    error
}

func (m ActivityDetailModel) loadDetail() tea.Msg {
	detail, err := m.queryService.GetActivity(m.activityID)
	return activityDetailLoadedMsg{detail: detail, err: err}
}

// Update handles messages
func (m ActivityDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activityDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.detail = msg.detail
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
		if m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadDetail
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the activity detail screen
func (m ActivityDetailModel) View() string {
	if m.loading {
		return "\n  Loading activity..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  esc: back to list  j/k or arrows: scroll  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m ActivityDetailModel) renderContent() string {
	if m.detail == nil {
		return "No data"
	}

	sections := []string{
		m.renderHeader(),
		m.renderSummary(),
		m.renderLoad(),
	}
	if m.detail.Activity.IsSuspicious || len(m.detail.Activity.SuspicionReasons) > 0 {
		sections = append(sections, m.renderSuspicion())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func sectionTitle(s string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render(s)
}

func (m ActivityDetailModel) renderHeader() string {
	a := m.detail.Activity
	title := cardTitleStyle.Render(fmt.Sprintf("%s from %s", a.Sport, a.Source))

	date := a.StartDate.Local().Format("Monday, January 2, 2006 at 3:04 PM")
	subtitle := mutedTextStyle.Render(fmt.Sprintf("%s (%s)", date, humanize.Time(a.StartDate)))

	stats := fmt.Sprintf("%s  •  %s  •  %s",
		m.units.FormatDistance(a.DistanceM),
		service.FormatDuration(a.DurationS),
		m.units.FormatActivityPace(a))
	statsLine := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(stats)

	return lipgloss.JoinVertical(lipgloss.Left, "", title, subtitle, statsLine, "")
}

func optionalLine(label string, v *float64, format string) string {
	value := "-"
	if v != nil {
		value = fmt.Sprintf(format, *v)
	}
	return fmt.Sprintf("  %-22s%s", label+":", value)
}

func (m ActivityDetailModel) renderSummary() string {
	a := m.detail.Activity

	lines := []string{sectionTitle("Summary")}

	lines = append(lines,
		optionalLine("Elevation gain", a.ElevationM, "%.0f m"),
		optionalLine("Max elevation", a.MaxElevationM, "%.0f m"),
		optionalLine("Min elevation", a.MinElevationM, "%.0f m"),
	)

	speed := "-"
	if a.AvgSpeedMS != nil {
		speed = m.units.FormatSpeed(*a.AvgSpeedMS)
	}
	lines = append(lines, fmt.Sprintf("  %-22s%s", "Average speed:", speed))
	maxSpeed := "-"
	if a.MaxSpeedMS != nil {
		maxSpeed = m.units.FormatSpeed(*a.MaxSpeedMS)
	}
	lines = append(lines, fmt.Sprintf("  %-22s%s", "Max speed:", maxSpeed))

	lines = append(lines,
		optionalLine("Average HR", a.AvgHR, "%.0f bpm"),
		optionalLine("Max HR", a.MaxHR, "%.0f bpm"),
		optionalLine("Average power", a.AvgWatts, "%.0f W"),
		optionalLine("Energy", a.EnergyKJ, "%.0f kJ"),
	)

	var caps []string
	if a.HasGPS {
		caps = append(caps, "GPS")
	}
	if a.HasStreams {
		caps = append(caps, "streams")
	}
	if a.HasPower {
		caps = append(caps, "power")
	}
	if len(caps) == 0 {
		caps = append(caps, "none")
	}
	lines = append(lines, fmt.Sprintf("  %-22s%s", "Recorded:", strings.Join(caps, ", ")))

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m ActivityDetailModel) renderLoad() string {
	r := m.detail

	lines := []string{sectionTitle("Training Load")}
	lines = append(lines,
		fmt.Sprintf("  %-22s%s", "Load:", formatOptional(r.Load, r.LoadKnown, "%.0f")),
		fmt.Sprintf("  %-22s%s", "TRIMP:", formatOptional(r.TRIMP, r.HasTRIMP, "%.0f")),
	)
	if !r.LoadKnown {
		lines = append(lines, mutedTextStyle.Render("  Load needs a duration and a distance"))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m ActivityDetailModel) renderSuspicion() string {
	a := m.detail.Activity

	lines := []string{sectionTitle("Data Quality")}
	status := "flagged as suspicious"
	if !a.IsSuspicious {
		status = "below the suspicion threshold"
	}
	lines = append(lines, suspiciousStyle.Render(fmt.Sprintf("  Score %.2f, %s", a.SuspicionScore, status)))
	for _, reason := range a.SuspicionReasons {
		lines = append(lines, "  - "+strings.ReplaceAll(reason, "_", " "))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
