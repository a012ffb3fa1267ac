package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/proxypilot/proxypilot/internal/metrics"
)

// historyRows is how many resource samples the dashboard table shows
const historyRows = 12

// setupHistoryTable initializes the resource-history table
func (m *Model) setupHistoryTable() {
	columns := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "CPU %", Width: 8},
		{Title: "Memory", Width: 12},
		{Title: "Rx/s", Width: 12},
		{Title: "Tx/s", Width: 12},
	}

	height := historyRows
	if m.height > 0 && m.height-14 < height {
		height = m.height - 14
	}
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(m.historyTableRows()),
		table.WithHeight(height),
	)
	t.SetStyles(getTableStyle())
	m.historyTable = t
}

// historyTableRows converts buffered samples to table rows, newest first
func (m *Model) historyTableRows() []table.Row {
	rows := make([]table.Row, 0, len(m.samples))
	for i := len(m.samples) - 1; i >= 0; i-- {
		s := m.samples[i]
		rows = append(rows, sampleRow(s))
	}
	return rows
}

func sampleRow(s metrics.Sample) table.Row {
	return table.Row{
		s.Timestamp.Format("15:04:05"),
		fmt.Sprintf("%.1f", s.CPUUsage),
		formatBytes(s.MemoryUsage),
		formatRate(s.RxSpeed),
		formatRate(s.TxSpeed),
	}
}

// getTableStyle returns the shared bubbles table style
func getTableStyle() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(primaryColor).
		Bold(false)
	return s
}

// formatBytes renders a byte count human-readably
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// formatRate renders a bytes-per-second rate
func formatRate(b uint64) string {
	return formatBytes(b) + "/s"
}

// formatUptime renders seconds of uptime as h/m/s
func formatUptime(seconds uint64) string {
	if seconds == 0 {
		return "-"
	}
	d := time.Duration(seconds) * time.Second
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
