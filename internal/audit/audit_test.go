package audit

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newCapturedLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewLogger(log, true), &buf
}

func TestNilLoggerDropsEvents(t *testing.T) {
	var l *Logger
	// Must not panic.
	l.EngineStarted(1234, 9080, nil)
	l.EngineCrashed(1234, "signal: killed")
	l.Log(Event{EventType: EventSystemStart})
}

func TestDisabledLoggerDropsEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)), false)

	l.EngineStarted(1234, 9080, nil)
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote output: %s", buf.String())
	}
}

func TestEngineStartedEvent(t *testing.T) {
	l, buf := newCapturedLogger()

	l.EngineStarted(4321, 9080, []string{"a.py", "b.py"})

	out := buf.String()
	if !strings.Contains(out, string(EventEngineStart)) {
		t.Errorf("output missing event type: %s", out)
	}
	if !strings.Contains(out, "4321") {
		t.Errorf("output missing pid: %s", out)
	}
}

func TestEngineCrashedLogsAsFailure(t *testing.T) {
	l, buf := newCapturedLogger()

	l.EngineCrashed(99, "exit status 3")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log record: %v", err)
	}
	if record["level"] != "ERROR" {
		t.Errorf("crash event level = %v, want ERROR", record["level"])
	}
	if record["status"] != string(StatusFailure) {
		t.Errorf("crash event status = %v, want failure", record["status"])
	}
}

func TestEventJSONRoundTrip(t *testing.T) {
	l, buf := newCapturedLogger()

	l.RulesReloaded("rules_dir")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log record: %v", err)
	}

	embedded, ok := record["event_json"].(string)
	if !ok {
		t.Fatalf("event_json missing or not a string: %v", record)
	}

	var event Event
	if err := json.Unmarshal([]byte(embedded), &event); err != nil {
		t.Fatalf("unmarshal embedded event: %v", err)
	}
	if event.EventType != EventRulesReload {
		t.Errorf("embedded event type = %q, want %q", event.EventType, EventRulesReload)
	}
	if event.Timestamp.IsZero() {
		t.Error("embedded event has zero timestamp")
	}
}
