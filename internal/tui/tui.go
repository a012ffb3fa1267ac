// Package tui is a terminal dashboard for a running ProxyPilot daemon,
// built on Bubbletea. It talks to the control API only, so it can attach
// to a daemon started elsewhere.
package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Run starts the TUI in full-screen mode, attached to the daemon at apiURL
func Run(apiURL, auth string) error {
	model := NewModel(apiURL, auth)

	// Set initial dimensions (will be updated on first WindowSizeMsg)
	model.width = 100
	model.height = 30

	model.setupHistoryTable()
	model.setupLogViewport()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return err
	}

	return nil
}

// setupLogViewport initializes the log viewport
func (m *Model) setupLogViewport() {
	vp := viewport.New(m.width-2, m.height-5)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor)

	m.logViewport = vp
}
