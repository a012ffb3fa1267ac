package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all events (Elm architecture)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateComponentSizes()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{m.refreshCmd(), tickCmd()}
		if m.currentView == viewLogs {
			cmds = append(cmds, m.fetchLogsCmd())
		}
		return m, tea.Batch(cmds...)

	case refreshMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.snap = msg.snap
			m.samples = msg.samples
			m.historyTable.SetRows(m.historyTableRows())
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.toast = ""
			m.err = fmt.Errorf("%s: %w", msg.label, msg.err)
			return m, nil
		}
		m.err = nil
		m.toast = msg.label
		// Reflect the action immediately instead of waiting for the tick.
		return m, m.refreshCmd()

	case logsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.logLines = msg.lines
		m.logViewport.SetContent(strings.Join(msg.lines, "\n"))
		m.logViewport.GotoBottom()
		return m, nil

	case tea.QuitMsg:
		m.quitting = true
		return m, tea.Quit

	default:
		return m, nil
	}
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.currentView == viewDashboard {
			m.quitting = true
			return m, tea.Quit
		}
		m.currentView = viewDashboard
		return m, nil

	case "?":
		m.currentView = viewHelp
		return m, nil

	case "esc":
		if m.currentView != viewDashboard {
			m.currentView = viewDashboard
		}
		return m, nil
	}

	switch m.currentView {
	case viewDashboard:
		return m.handleDashboardKeys(msg)
	case viewLogs:
		return m.handleLogsKeys(msg)
	case viewHelp:
		// Any key returns to the dashboard
		m.currentView = viewDashboard
		return m, nil
	}

	return m, nil
}

// handleDashboardKeys handles keys on the engine dashboard
func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.historyTable.MoveUp(1)

	case "down", "j":
		m.historyTable.MoveDown(1)

	case "s":
		m.toast = "Starting engine..."
		return m, m.actionCmd("Engine started", m.client.StartEngine)

	case "x":
		m.toast = "Stopping engine..."
		return m, m.actionCmd("Engine stopped", m.client.StopEngine)

	case "a":
		target := !m.status.Active
		label := "Interception paused"
		if target {
			label = "Interception active"
		}
		return m, m.actionCmd(label, func() error {
			return m.client.SetActive(target)
		})

	case "r":
		return m, m.actionCmd("Rule reload requested", m.client.Reload)

	case "l":
		m.currentView = viewLogs
		return m, m.fetchLogsCmd()
	}

	return m, nil
}

// handleLogsKeys handles keys in the log viewer
func (m Model) handleLogsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "d":
		m.logDomain = (m.logDomain + 1) % len(logDomains)
		return m, m.fetchLogsCmd()

	case "up", "k":
		m.logViewport.LineUp(1)

	case "down", "j":
		m.logViewport.LineDown(1)

	case "g":
		m.logViewport.GotoTop()

	case "G":
		m.logViewport.GotoBottom()

	case "ctrl+u":
		m.logViewport.HalfViewUp()

	case "ctrl+d":
		m.logViewport.HalfViewDown()
	}

	return m, nil
}

// updateComponentSizes updates component dimensions on terminal resize
func (m *Model) updateComponentSizes() {
	m.setupHistoryTable()

	m.logViewport.Width = m.width - 2
	m.logViewport.Height = m.height - 5
}
