package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/proxypilot/proxypilot/internal/engine"
	"github.com/proxypilot/proxypilot/internal/metrics"
	"github.com/proxypilot/proxypilot/internal/stats"
)

// APIClient connects to a running ProxyPilot daemon via the control API
type APIClient struct {
	baseURL string
	auth    string
	client  *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL, auth string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		auth:    auth,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Status fetches the engine lifecycle status
func (c *APIClient) Status() (engine.Status, error) {
	var status engine.Status
	err := c.get("/api/v1/engine/status", &status)
	return status, err
}

// Stats fetches a resource snapshot of the engine process tree
func (c *APIClient) Stats() (stats.EngineStats, error) {
	var snapshot stats.EngineStats
	err := c.get("/api/v1/engine/stats", &snapshot)
	return snapshot, err
}

// History fetches up to limit buffered resource samples
func (c *APIClient) History(limit int) ([]metrics.Sample, error) {
	var response struct {
		Data []metrics.Sample `json:"data"`
	}
	path := fmt.Sprintf("/api/v1/engine/stats/history?limit=%d", limit)
	if err := c.get(path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// StartEngine starts the engine with the configured script list
func (c *APIClient) StartEngine() error {
	return c.post("/api/v1/engine/start", nil)
}

// StopEngine stops the engine cooperatively
func (c *APIClient) StopEngine() error {
	return c.post("/api/v1/engine/stop", nil)
}

// SetActive toggles the traffic-processing flag
func (c *APIClient) SetActive(active bool) error {
	body := fmt.Sprintf(`{"active":%t}`, active)
	return c.post("/api/v1/engine/active", []byte(body))
}

// Reload pushes a rule-reload notification to the engine
func (c *APIClient) Reload() error {
	return c.post("/api/v1/engine/reload", nil)
}

// TailLogs fetches the last lines of a domain log
func (c *APIClient) TailLogs(domain string, lines int) ([]string, error) {
	var response struct {
		Lines []string `json:"lines"`
	}
	path := fmt.Sprintf("/api/v1/logs/%s?lines=%d", domain, lines)
	if err := c.get(path, &response); err != nil {
		return nil, err
	}
	return response.Lines, nil
}

func (c *APIClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *APIClient) post(path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, nil)
}

func (c *APIClient) do(req *http.Request, out interface{}) error {
	if c.auth != "" {
		req.Header.Set("Authorization", "Bearer "+c.auth)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if jerr := json.Unmarshal(raw, &apiErr); jerr == nil && apiErr.Error != "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
