package tui

import (
	"time"

	"endurance/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenActivities
	ScreenStats
	ScreenComparisons
	ScreenPredictions
	ScreenObjectives
	ScreenSync
	ScreenHelp
	ScreenDetail
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard   DashboardModel
	activities  ActivitiesModel
	detail      ActivityDetailModel
	stats       StatsModel
	comparisons ComparisonsModel
	predictions PredictionsModel
	objectives  ObjectivesModel
	syncScreen  SyncModel
	help        HelpModel

	// Services
	queryService *service.QueryService
	syncService  *service.SyncService
	units        Units

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates a new App with all dependencies
func NewApp(queryService *service.QueryService, syncService *service.SyncService, units Units) *App {
	return &App{
		screen:       ScreenDashboard,
		queryService: queryService,
		syncService:  syncService,
		units:        units,
		dashboard:    NewDashboardModel(queryService, units, 0, 0),
		activities:   NewActivitiesModel(queryService, units),
		stats:        NewStatsModel(queryService, units),
		comparisons:  NewComparisonsModel(queryService, units),
		predictions:  NewPredictionsModel(queryService, units, 0, 0),
		objectives:   NewObjectivesModel(queryService),
		syncScreen:   NewSyncModel(syncService, queryService),
		help:         NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings, disabled while a sync is running on screen
		if a.screen != ScreenSync || !a.syncScreen.syncing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.queryService, a.units, a.width, a.height)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenActivities
				return a, a.activities.Init()
			case "3":
				a.screen = ScreenStats
				return a, a.stats.Init()
			case "4":
				a.screen = ScreenComparisons
				return a, a.comparisons.Init()
			case "5":
				a.screen = ScreenPredictions
				a.predictions = NewPredictionsModel(a.queryService, a.units, a.width, a.height)
				return a, a.predictions.Init()
			case "6":
				a.screen = ScreenObjectives
				return a, a.objectives.Init()
			case "7", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
				// 's' on the sync screen starts the sync
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				switch a.screen {
				case ScreenHelp:
					a.screen = a.prevScreen
					return a, nil
				case ScreenDetail:
					a.screen = ScreenActivities
					return a, nil
				}
			}
		} else if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case OpenActivityDetailMsg:
		a.screen = ScreenDetail
		a.detail = NewActivityDetailModel(a.queryService, a.units, msg.ActivityID, a.width, a.height)
		return a, a.detail.Init()

	case SyncCompleteMsg:
		// Refresh the dashboard in the background, the sync summary stays on screen
		a.status = "Last sync finished at " + time.Now().Format("15:04")
		a.dashboard = NewDashboardModel(a.queryService, a.units, a.width, a.height)
		return a, a.dashboard.Init()

	case dashboardDataMsg:
		m, cmd := a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
		return a, cmd

	case syncProgressMsg, SyncDoneMsg, syncStatusMsg:
		m, cmd := a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
		return a, cmd
	}

	// Delegate to current screen
	var cmd tea.Cmd
	var m tea.Model
	switch a.screen {
	case ScreenDashboard:
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenActivities:
		m, cmd = a.activities.Update(msg)
		a.activities = m.(ActivitiesModel)
	case ScreenDetail:
		m, cmd = a.detail.Update(msg)
		a.detail = m.(ActivityDetailModel)
	case ScreenStats:
		m, cmd = a.stats.Update(msg)
		a.stats = m.(StatsModel)
	case ScreenComparisons:
		m, cmd = a.comparisons.Update(msg)
		a.comparisons = m.(ComparisonsModel)
	case ScreenPredictions:
		m, cmd = a.predictions.Update(msg)
		a.predictions = m.(PredictionsModel)
	case ScreenObjectives:
		m, cmd = a.objectives.Update(msg)
		a.objectives = m.(ObjectivesModel)
	case ScreenSync:
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenActivities:
		content = a.activities.View()
	case ScreenDetail:
		content = a.detail.View()
	case ScreenStats:
		content = a.stats.View()
	case ScreenComparisons:
		content = a.comparisons.View()
	case ScreenPredictions:
		content = a.predictions.View()
	case ScreenObjectives:
		content = a.objectives.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Endurance Training Dashboard")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Activities", ScreenActivities},
		{"3", "Stats", ScreenStats},
		{"4", "Compare", ScreenComparisons},
		{"5", "Predict", ScreenPredictions},
		{"6", "Objectives", ScreenObjectives},
		{"7", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen || (a.screen == ScreenDetail && item.screen == ScreenActivities) {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct{}
