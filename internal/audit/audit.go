package audit

import (
	"encoding/json"
	"log/slog"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// API Events
	EventAPIRequest  EventType = "api.request"
	EventAuthFailure EventType = "auth.failure"

	// Engine Events
	EventEngineStart     EventType = "engine.start"
	EventEngineStop      EventType = "engine.stop"
	EventEngineTerminate EventType = "engine.terminate"
	EventEngineCrash     EventType = "engine.crash"
	EventEngineActive    EventType = "engine.active"

	// Configuration Events
	EventConfigLoad  EventType = "config.load"
	EventRulesReload EventType = "rules.reload"

	// System Events
	EventSystemStart    EventType = "system.start"
	EventSystemShutdown EventType = "system.shutdown"
)

// Status represents the outcome of an audited action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Actor represents who/what performed the action
type Actor struct {
	Type string `json:"type"` // "user", "system", "api"
	ID   string `json:"id"`
	IP   string `json:"ip,omitempty"`
}

// Resource represents what was affected by the action
type Resource struct {
	Type string `json:"type"` // "engine", "rules", "api"
	ID   string `json:"id"`
}

// Event represents a single audit log entry
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType EventType              `json:"event_type"`
	Actor     Actor                  `json:"actor"`
	Action    string                 `json:"action"`
	Resource  Resource               `json:"resource"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Logger provides structured audit logging. A nil *Logger is valid and
// drops every event, so callers never need to guard.
type Logger struct {
	logger  *slog.Logger
	enabled bool
}

// NewLogger creates a new audit logger
func NewLogger(log *slog.Logger, enabled bool) *Logger {
	return &Logger{
		logger:  log.With("subsystem", "audit"),
		enabled: enabled,
	}
}

// Log logs an audit event
func (l *Logger) Log(event Event) {
	if l == nil || !l.enabled {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, _ := json.Marshal(event)

	switch event.Status {
	case StatusFailure:
		l.logger.Error("audit_event",
			"event_type", event.EventType,
			"action", event.Action,
			"resource", event.Resource.ID,
			"status", event.Status,
			"message", event.Message,
			"event_json", string(eventJSON),
		)
	default:
		l.logger.Info("audit_event",
			"event_type", event.EventType,
			"action", event.Action,
			"resource", event.Resource.ID,
			"status", event.Status,
			"message", event.Message,
			"event_json", string(eventJSON),
		)
	}
}

// EngineStarted records a successful engine start.
func (l *Logger) EngineStarted(pid, port int, scripts []string) {
	l.Log(Event{
		EventType: EventEngineStart,
		Actor:     Actor{Type: "system", ID: "supervisor"},
		Action:    "start",
		Resource:  Resource{Type: "engine", ID: "engine"},
		Status:    StatusSuccess,
		Message:   "Engine started",
		Context: map[string]interface{}{
			"pid":     pid,
			"port":    port,
			"scripts": len(scripts),
		},
	})
}

// EngineStopped records a cooperative engine stop.
func (l *Logger) EngineStopped(pid int) {
	l.Log(Event{
		EventType: EventEngineStop,
		Actor:     Actor{Type: "system", ID: "supervisor"},
		Action:    "stop",
		Resource:  Resource{Type: "engine", ID: "engine"},
		Status:    StatusSuccess,
		Message:   "Engine stopped",
		Context:   map[string]interface{}{"pid": pid},
	})
}

// EngineTerminated records an immediate engine teardown.
func (l *Logger) EngineTerminated(pid int) {
	l.Log(Event{
		EventType: EventEngineTerminate,
		Actor:     Actor{Type: "system", ID: "supervisor"},
		Action:    "terminate",
		Resource:  Resource{Type: "engine", ID: "engine"},
		Status:    StatusSuccess,
		Message:   "Engine terminated",
		Context:   map[string]interface{}{"pid": pid},
	})
}

// EngineCrashed records an unexpected engine exit.
func (l *Logger) EngineCrashed(pid int, status string) {
	l.Log(Event{
		EventType: EventEngineCrash,
		Actor:     Actor{Type: "system", ID: "supervisor"},
		Action:    "crash",
		Resource:  Resource{Type: "engine", ID: "engine"},
		Status:    StatusFailure,
		Message:   "Engine exited unexpectedly",
		Context: map[string]interface{}{
			"pid":         pid,
			"exit_status": status,
		},
	})
}

// ActiveChanged records a traffic-processing toggle.
func (l *Logger) ActiveChanged(active bool, actor string) {
	l.Log(Event{
		EventType: EventEngineActive,
		Actor:     Actor{Type: "api", ID: actor},
		Action:    "set_active",
		Resource:  Resource{Type: "engine", ID: "engine"},
		Status:    StatusSuccess,
		Message:   "Traffic processing flag changed",
		Context:   map[string]interface{}{"active": active},
	})
}

// RulesReloaded records a rule-change notification pushed to the engine.
func (l *Logger) RulesReloaded(trigger string) {
	l.Log(Event{
		EventType: EventRulesReload,
		Actor:     Actor{Type: "system", ID: "rules_watcher"},
		Action:    "reload",
		Resource:  Resource{Type: "rules", ID: trigger},
		Status:    StatusSuccess,
		Message:   "Rule reload notification sent",
	})
}

// LogAPIRequest logs an API request
func (l *Logger) LogAPIRequest(ip, method, path string) {
	l.Log(Event{
		EventType: EventAPIRequest,
		Actor:     Actor{Type: "api", IP: ip},
		Action:    method,
		Resource:  Resource{Type: "api", ID: path},
		Status:    StatusSuccess,
		Message:   "API request received",
	})
}

// LogAuthFailure logs authentication failure
func (l *Logger) LogAuthFailure(ip, path, reason string) {
	l.Log(Event{
		EventType: EventAuthFailure,
		Actor:     Actor{Type: "api", IP: ip},
		Action:    "authenticate",
		Resource:  Resource{Type: "api", ID: path},
		Status:    StatusFailure,
		Message:   "Authentication failed",
		Context:   map[string]interface{}{"reason": reason},
	})
}

// SystemStarted records daemon startup.
func (l *Logger) SystemStarted(version string) {
	l.Log(Event{
		EventType: EventSystemStart,
		Actor:     Actor{Type: "system", ID: "proxypilot"},
		Action:    "start",
		Resource:  Resource{Type: "system", ID: "daemon"},
		Status:    StatusSuccess,
		Message:   "Daemon started",
		Context:   map[string]interface{}{"version": version},
	})
}

// SystemShutdown records daemon shutdown.
func (l *Logger) SystemShutdown(reason string) {
	l.Log(Event{
		EventType: EventSystemShutdown,
		Actor:     Actor{Type: "system", ID: "proxypilot"},
		Action:    "shutdown",
		Resource:  Resource{Type: "system", ID: "daemon"},
		Status:    StatusSuccess,
		Message:   "Daemon shutting down",
		Context:   map[string]interface{}{"reason": reason},
	})
}
