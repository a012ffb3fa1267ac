package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/proxypilot/proxypilot/internal/engine"
	"github.com/proxypilot/proxypilot/internal/metrics"
	"github.com/proxypilot/proxypilot/internal/stats"
)

func newTestModel() Model {
	m := NewModel("http://127.0.0.1:1", "")
	m.width = 100
	m.height = 30
	m.setupHistoryTable()
	m.setupLogViewport()
	return m
}

func keyMsg(s string) tea.KeyMsg {
	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestQuitFromDashboard(t *testing.T) {
	m := newTestModel()

	updated, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q on dashboard returned nil cmd, want tea.Quit")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Errorf("q produced %T, want tea.QuitMsg", msg)
	}
	if !updated.(Model).quitting {
		t.Error("quitting = false after q")
	}
}

func TestQFromLogsReturnsToDashboard(t *testing.T) {
	m := newTestModel()
	m.currentView = viewLogs

	updated, cmd := m.Update(keyMsg("q"))
	if cmd != nil {
		t.Error("q in logs view should not quit")
	}
	if updated.(Model).currentView != viewDashboard {
		t.Error("q in logs view should return to dashboard")
	}
}

func TestHelpViewRoundTrip(t *testing.T) {
	m := newTestModel()

	updated, _ := m.Update(keyMsg("?"))
	if updated.(Model).currentView != viewHelp {
		t.Fatal("? did not open help")
	}

	updated, _ = updated.(Model).Update(keyMsg("z"))
	if updated.(Model).currentView != viewDashboard {
		t.Error("any key in help should return to dashboard")
	}
}

func TestEscReturnsToDashboard(t *testing.T) {
	m := newTestModel()
	m.currentView = viewLogs

	updated, _ := m.Update(keyMsg("esc"))
	if updated.(Model).currentView != viewDashboard {
		t.Error("esc did not return to dashboard")
	}
}

func TestRefreshMsgPopulatesModel(t *testing.T) {
	m := newTestModel()

	samples := []metrics.Sample{
		{Timestamp: time.Now(), EngineStats: stats.EngineStats{MemoryUsage: 1024, CPUUsage: 3.5}},
	}
	updated, _ := m.Update(refreshMsg{
		status:  engine.Status{Running: true, Active: true, ActiveScripts: []string{"a.py"}},
		snap:    stats.EngineStats{MemoryUsage: 2048},
		samples: samples,
	})

	got := updated.(Model)
	if !got.status.Running || !got.status.Active {
		t.Error("refreshMsg did not update status")
	}
	if got.snap.MemoryUsage != 2048 {
		t.Error("refreshMsg did not update snapshot")
	}
	if len(got.historyTable.Rows()) != 1 {
		t.Errorf("history table rows = %d, want 1", len(got.historyTable.Rows()))
	}
}

func TestRefreshMsgErrorKeepsLastState(t *testing.T) {
	m := newTestModel()
	m.status = engine.Status{Running: true}

	updated, _ := m.Update(refreshMsg{err: errors.New("connection refused")})
	got := updated.(Model)
	if got.err == nil {
		t.Error("refresh error not surfaced")
	}
	if !got.status.Running {
		t.Error("stale status discarded on refresh error")
	}
}

func TestActionMsgSetsToastAndRefreshes(t *testing.T) {
	m := newTestModel()

	updated, cmd := m.Update(actionMsg{label: "Engine started"})
	got := updated.(Model)
	if got.toast != "Engine started" {
		t.Errorf("toast = %q", got.toast)
	}
	if cmd == nil {
		t.Error("successful action should trigger an immediate refresh")
	}
}

func TestActionMsgErrorSurfaced(t *testing.T) {
	m := newTestModel()

	updated, _ := m.Update(actionMsg{label: "Engine started", err: errors.New("already running")})
	got := updated.(Model)
	if got.err == nil {
		t.Fatal("action error not surfaced")
	}
	if !strings.Contains(got.err.Error(), "Engine started") {
		t.Errorf("error %q should carry the action label", got.err.Error())
	}
}

func TestLogsMsgFillsViewport(t *testing.T) {
	m := newTestModel()
	m.currentView = viewLogs

	updated, _ := m.Update(logsMsg{domain: "engine", lines: []string{"line one", "line two"}})
	got := updated.(Model)
	if len(got.logLines) != 2 {
		t.Errorf("logLines = %d, want 2", len(got.logLines))
	}
}

func TestTabCyclesLogDomain(t *testing.T) {
	m := newTestModel()
	m.currentView = viewLogs

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	got := updated.(Model)
	if got.logDomain != 1 {
		t.Errorf("logDomain = %d, want 1", got.logDomain)
	}
	if cmd == nil {
		t.Error("domain switch should fetch logs")
	}

	// Cycling past the end wraps to the first domain.
	got.logDomain = len(logDomains) - 1
	updated, _ = got.Update(tea.KeyMsg{Type: tea.KeyTab})
	if updated.(Model).logDomain != 0 {
		t.Error("logDomain did not wrap")
	}
}

func TestToggleActiveTargetsOppositeState(t *testing.T) {
	m := newTestModel()
	m.status = engine.Status{Running: true, Active: true}

	_, cmd := m.Update(keyMsg("a"))
	if cmd == nil {
		t.Fatal("a returned nil cmd")
	}
	msg, ok := cmd().(actionMsg)
	if !ok {
		t.Fatalf("a produced %T, want actionMsg", msg)
	}
	// Active is true, so the action targets pause. The client call fails
	// (no daemon), but the label was chosen before the call.
	if msg.label != "Interception paused" {
		t.Errorf("label = %q, want Interception paused", msg.label)
	}
}

func TestWindowSizeResizesComponents(t *testing.T) {
	m := newTestModel()

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	got := updated.(Model)
	if got.width != 80 || got.height != 24 {
		t.Errorf("size = %dx%d, want 80x24", got.width, got.height)
	}
	if got.logViewport.Width != 78 {
		t.Errorf("viewport width = %d, want 78", got.logViewport.Width)
	}
}

func TestTickRefetchesLogsOnlyInLogsView(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick returned nil cmd")
	}

	m.currentView = viewLogs
	_, cmd = m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick in logs view returned nil cmd")
	}
}
