package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"endurance/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// SyncModel is the sync screen model
type SyncModel struct {
	syncService  *service.SyncService
	queryService *service.QueryService
	status       *service.SyncStatus
	progressCh   chan service.SyncProgress
	progress     service.SyncProgress
	syncing      bool
	result       *service.SyncResult
	err          error
	done         bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(ss *service.SyncService, qs *service.QueryService) SyncModel {
	return SyncModel{
		syncService:  ss,
		queryService: qs,
	}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return m.loadStatus
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

type syncProgressMsg service.SyncProgress

type syncStatusMsg struct {
	status *service.SyncStatus
}

func (m SyncModel) loadStatus() tea.Msg {
	status, err := m.queryService.GetSyncStatus()
	if err != nil {
		return syncStatusMsg{}
	}
	return syncStatusMsg{status: status}
}

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncStatusMsg:
		m.status = msg.status

	case syncProgressMsg:
		m.progress = service.SyncProgress(msg)
		return m, waitForProgress(m.progressCh)

	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Batch(m.loadStatus, func() tea.Msg { return SyncCompleteMsg{} })

	case tea.KeyMsg:
		if !m.syncing {
			switch msg.String() {
			case "enter", "s":
				m.syncing = true
				m.done = false
				m.err = nil
				m.result = nil
				m.progress = service.SyncProgress{}
				m.progressCh = make(chan service.SyncProgress, 16)
				return m, tea.Batch(runSync(m.syncService, m.progressCh), waitForProgress(m.progressCh))
			}
		}
	}
	return m, nil
}

func runSync(ss *service.SyncService, progress chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		result, err := ss.SyncAll(context.Background(), progress)
		return SyncDoneMsg{Result: result, Err: err}
	}
}

// waitForProgress relays one progress update; SyncAll closes the channel when done
func waitForProgress(progress chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-progress
		if !ok {
			return nil
		}
		return syncProgressMsg(p)
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	sections := []string{cardTitleStyle.Render("Strava Sync")}

	if m.err != nil {
		sections = append(sections,
			errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)),
			"\n"+statusStyle.Render("  Press 's' or Enter to retry"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.done && !m.syncing {
		sections = append(sections,
			successStyle.Render("\n  Sync complete!"),
			m.renderSummary(),
			"\n"+statusStyle.Render("  Press '1' to go to dashboard"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.syncing {
		sections = append(sections, m.renderProgress())
	} else {
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderLastSync() []string {
	if m.status == nil {
		return nil
	}
	return []string{
		"  Last Strava import: " + humanizeSince(m.status.LastStrava),
		"  Last FIT import: " + humanizeSince(m.status.LastFIT),
		"  Activities stored: " + humanize.Comma(int64(m.status.Activities)),
	}
}

func humanizeSince(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func (m SyncModel) renderStartPrompt() string {
	lines := []string{
		"",
		"  This will sync your Strava activities:",
		"",
		"  1. Fetch activities newer than the last sync",
		"  2. Flag implausible records for review",
		"  3. Merge duplicates of activities already imported",
		"  4. Store the rest with their training load",
		"",
	}
	lines = append(lines, m.renderLastSync()...)
	lines = append(lines, "")

	short, daily := m.syncService.RateLimitStatus()
	lines = append(lines,
		statusStyle.Render(fmt.Sprintf("  API requests left: %d (15 min), %d (daily)", short, daily)),
		"",
		statusStyle.Render("  Press 's' or Enter to start sync"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	lines := []string{"", "  Syncing with Strava...", ""}

	p := m.progress
	switch p.Phase {
	case "":
		lines = append(lines, "  Connecting...")
	case service.PhaseFetch:
		lines = append(lines, fmt.Sprintf("  Fetched %d activities", p.Completed))
	default:
		lines = append(lines, fmt.Sprintf("  %s: %d of %d", p.Phase, p.Completed, p.Total))
		if p.Total > 0 {
			lines = append(lines, "  "+RenderProgressBar(float64(p.Completed)/float64(p.Total), 40))
		}
		if p.CurrentActivity != "" {
			lines = append(lines, mutedTextStyle.Render("  "+truncateName(p.CurrentActivity, 50)))
		}
	}

	lines = append(lines, "", statusStyle.Render("  This may take a moment..."))
	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}
	return renderSyncResult(m.result)
}

func renderSyncResult(r *service.SyncResult) string {
	lines := []string{""}

	if r.Stored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d of %d activities stored", r.Stored, r.Fetched)))
	} else {
		lines = append(lines, statusStyle.Render("  No new activities"))
	}
	if r.Skipped > 0 {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  %d already imported", r.Skipped)))
	}

	if len(r.Merged) > 0 {
		lines = append(lines, "", fmt.Sprintf("  %d duplicates merged:", len(r.Merged)))
		for _, mr := range r.Merged {
			lines = append(lines, mutedTextStyle.Render(fmt.Sprintf("    %s into %s (score %.2f)", mr.Imported, mr.IntoID, mr.Score)))
		}
	}

	if len(r.Suspects) > 0 {
		lines = append(lines, "", warningStyle.Render(fmt.Sprintf("  %d suspicious activities flagged (see Activities, purge to delete):", len(r.Suspects))))
		for _, s := range r.Suspects {
			name := s.Name
			if name == "" {
				name = s.Imported
			}
			lines = append(lines, suspiciousStyle.Render(fmt.Sprintf("    %s (score %.2f): %s",
				truncateName(name, 30), s.Score, strings.Join(s.Reasons, ", "))))
		}
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "", warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
		for i, err := range r.Errors {
			if i == 3 {
				lines = append(lines, mutedTextStyle.Render(fmt.Sprintf("    and %d more, see the log", len(r.Errors)-3)))
				break
			}
			lines = append(lines, mutedTextStyle.Render("    "+err.Error()))
		}
	}

	return strings.Join(lines, "\n")
}
