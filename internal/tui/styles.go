package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors (k9s-inspired)
	primaryColor   = lipgloss.Color("#7D56F4") // Purple
	successColor   = lipgloss.Color("#00FF00") // Green
	errorColor     = lipgloss.Color("#FF0000") // Red
	warnColor      = lipgloss.Color("#FFA500") // Orange
	dimColor       = lipgloss.Color("#666666") // Gray
	highlightColor = lipgloss.Color("#00FFFF") // Cyan

	// Text styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	highlightStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)
)

// formatRunning renders the engine liveness badge
func formatRunning(running bool) string {
	if running {
		return successStyle.Render("✓ Running")
	}
	return dimStyle.Render("○ Stopped")
}

// formatActive renders the traffic-processing badge
func formatActive(running, active bool) string {
	if !running {
		return dimStyle.Render("—")
	}
	if active {
		return highlightStyle.Render("● Intercepting")
	}
	return warnStyle.Render("⏸ Passthrough")
}
