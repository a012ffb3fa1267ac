package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/proxypilot/proxypilot/internal/engine"
	"github.com/proxypilot/proxypilot/internal/metrics"
	"github.com/proxypilot/proxypilot/internal/stats"
)

// viewMode represents the current TUI view
type viewMode int

const (
	viewDashboard viewMode = iota
	viewLogs
	viewHelp
)

// logDomains is the cycle order for the log viewer
var logDomains = []string{"engine", "script", "plugin", "crash", "audit", "other"}

// Model is the main Bubbletea model for the TUI
type Model struct {
	client      *APIClient
	currentView viewMode

	status  engine.Status
	snap    stats.EngineStats
	samples []metrics.Sample

	historyTable table.Model

	logDomain   int // index into logDomains
	logViewport viewport.Model
	logLines    []string

	width    int
	height   int
	err      error
	toast    string
	quitting bool
}

// NewModel creates a TUI model talking to the daemon at apiURL
func NewModel(apiURL, auth string) Model {
	return Model{
		client:      NewAPIClient(apiURL, auth),
		currentView: viewDashboard,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refreshCmd(),
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// Messages for Bubbletea
type tickMsg time.Time

// refreshMsg carries one polling round of daemon state
type refreshMsg struct {
	status  engine.Status
	snap    stats.EngineStats
	samples []metrics.Sample
	err     error
}

// actionMsg reports the outcome of a lifecycle action
type actionMsg struct {
	label string
	err   error
}

// logsMsg carries a fetched log tail
type logsMsg struct {
	domain string
	lines  []string
	err    error
}

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd polls status, stats and history in one round
func (m Model) refreshCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		status, err := client.Status()
		if err != nil {
			return refreshMsg{err: err}
		}

		msg := refreshMsg{status: status}
		if snap, serr := client.Stats(); serr == nil {
			msg.snap = snap
		}
		if samples, herr := client.History(historyRows); herr == nil {
			msg.samples = samples
		}
		return msg
	}
}

// fetchLogsCmd tails the currently selected log domain
func (m Model) fetchLogsCmd() tea.Cmd {
	client := m.client
	domain := logDomains[m.logDomain]
	return func() tea.Msg {
		lines, err := client.TailLogs(domain, 500)
		return logsMsg{domain: domain, lines: lines, err: err}
	}
}

// actionCmd runs a lifecycle call and reports the result as a toast
func (m Model) actionCmd(label string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{label: label, err: fn()}
	}
}
