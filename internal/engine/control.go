package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Fixed control paths the entry addon registers on the engine's own port.
const (
	controlActivePath = "/_proxypilot/active"
	controlReloadPath = "/_proxypilot/reload"
)

const notifyTimeout = 3 * time.Second

// controlNotifier pushes supervisor-side state into the running engine over
// loopback. Every call is fire-and-forget on a fresh goroutine; failures
// are logged, never returned, because the supervisor's state is the source
// of truth and the push is best-effort synchronization.
type controlNotifier struct {
	client *http.Client
	logger *slog.Logger
}

func newControlNotifier(log *slog.Logger) *controlNotifier {
	return &controlNotifier{
		client: &http.Client{Timeout: notifyTimeout},
		logger: log.With("component", "control_notify"),
	}
}

func (n *controlNotifier) notifyActive(port int, active bool) {
	body := "false"
	if active {
		body = "true"
	}
	go n.post(port, controlActivePath, []byte(body))
}

func (n *controlNotifier) notifyReload(port int) {
	go n.post(port, controlReloadPath, nil)
}

func (n *controlNotifier) post(port int, path string, body []byte) {
	url := fmt.Sprintf("http://127.0.0.1:%d%s", port, path)

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("Engine control notification failed", "path", path, "error", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("Engine control notification rejected",
			"path", path,
			"status", resp.StatusCode,
		)
	}
}
