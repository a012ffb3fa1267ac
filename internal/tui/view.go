package tui

import (
	"fmt"
	"strings"
)

// View renders the current view
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.currentView {
	case viewDashboard:
		return m.renderDashboard()
	case viewLogs:
		return m.renderLogs()
	case viewHelp:
		return m.renderHelp()
	default:
		return "Unknown view"
	}
}

// renderDashboard renders the main engine dashboard
func (m Model) renderDashboard() string {
	var b strings.Builder

	header := titleStyle.Render("ProxyPilot")
	b.WriteString(header + " " + dimStyle.Render("Press ? for help") + "\n")
	b.WriteString(strings.Repeat("─", max(m.width, 20)) + "\n")

	b.WriteString(fmt.Sprintf("Engine:  %s   Traffic: %s\n",
		formatRunning(m.status.Running),
		formatActive(m.status.Running, m.status.Active)))

	if m.status.Running {
		b.WriteString(fmt.Sprintf("Uptime:  %s   CPU: %.1f%%   Memory: %s\n",
			formatUptime(m.snap.UpTime),
			m.snap.CPUUsage,
			formatBytes(m.snap.MemoryUsage)))
		b.WriteString(fmt.Sprintf("Network: ↓ %s  ↑ %s\n",
			formatRate(m.snap.RxSpeed),
			formatRate(m.snap.TxSpeed)))

		if len(m.status.ActiveScripts) > 0 {
			b.WriteString(highlightStyle.Render("Scripts: ") +
				strings.Join(m.status.ActiveScripts, ", ") + "\n")
		} else {
			b.WriteString(dimStyle.Render("Scripts: none") + "\n")
		}
	} else {
		b.WriteString(dimStyle.Render("Engine is not running. Press s to start.") + "\n")
	}
	b.WriteString("\n")

	b.WriteString(highlightStyle.Render("Resource history") + "\n")
	if len(m.samples) == 0 {
		b.WriteString(dimStyle.Render("No samples yet.") + "\n")
	} else {
		b.WriteString(m.historyTable.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("✗ Error: "+m.err.Error()) + "\n")
	}
	if m.toast != "" {
		b.WriteString(toastStyle.Render(m.toast) + "\n")
	}

	footer := dimStyle.Render("<s> Start | <x> Stop | <a> Toggle traffic | <r> Reload rules | <l> Logs | <q> Quit")
	b.WriteString(footer)

	return b.String()
}

// renderLogs renders the log viewer
func (m Model) renderLogs() string {
	var b strings.Builder

	domain := logDomains[m.logDomain]
	header := titleStyle.Render("Logs") + " " + highlightStyle.Render(domain)
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(m.width, 20)) + "\n")

	if len(m.logLines) == 0 {
		b.WriteString(dimStyle.Render("No output for this domain yet.") + "\n")
	} else {
		b.WriteString(m.logViewport.View())
		b.WriteString("\n")
	}

	footer := dimStyle.Render("<tab> Next domain | <j/k> Scroll | <g/G> Top/Bottom | <esc> Back | <q> Quit")
	b.WriteString(footer)

	return b.String()
}

// renderHelp renders the keybinding reference
func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ProxyPilot — Help") + "\n")
	b.WriteString(strings.Repeat("─", max(m.width, 20)) + "\n\n")

	b.WriteString(highlightStyle.Render("Dashboard") + "\n")
	b.WriteString("  s        Start the engine\n")
	b.WriteString("  x        Stop the engine\n")
	b.WriteString("  a        Toggle traffic interception\n")
	b.WriteString("  r        Request a rule reload\n")
	b.WriteString("  l        Open the log viewer\n\n")

	b.WriteString(highlightStyle.Render("Log viewer") + "\n")
	b.WriteString("  tab, d   Cycle log domain\n")
	b.WriteString("  j/k      Scroll\n")
	b.WriteString("  g/G      Jump to top/bottom\n\n")

	b.WriteString(highlightStyle.Render("Global") + "\n")
	b.WriteString("  esc      Back to dashboard\n")
	b.WriteString("  q        Quit\n\n")

	b.WriteString(dimStyle.Render("Press any key to return."))

	return b.String()
}
