package tui

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/engine/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"running":true,"active":false,"active_scripts":["block-ads.py"]}`)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "")
	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.Running {
		t.Error("Running = false, want true")
	}
	if status.Active {
		t.Error("Active = true, want false")
	}
	if len(status.ActiveScripts) != 1 || status.ActiveScripts[0] != "block-ads.py" {
		t.Errorf("ActiveScripts = %v", status.ActiveScripts)
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("Authorization = %q, want Bearer sekrit", got)
		}
		io.WriteString(w, `{"running":false,"active":false,"active_scripts":[]}`)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "sekrit")
	if _, err := client.Status(); err != nil {
		t.Fatalf("Status() error = %v", err)
	}
}

func TestClientStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"memory_usage":1048576,"cpu_usage":12.5,"up_time":90,"rx_speed":2048,"tx_speed":512}`)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "")
	snap, err := client.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if snap.MemoryUsage != 1048576 {
		t.Errorf("MemoryUsage = %d", snap.MemoryUsage)
	}
	if snap.CPUUsage != 12.5 {
		t.Errorf("CPUUsage = %f", snap.CPUUsage)
	}
}

func TestClientHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "12" {
			t.Errorf("limit = %q, want 12", got)
		}
		now := time.Now().Format(time.RFC3339)
		io.WriteString(w, `{"data":[{"timestamp":"`+now+`","memory_usage":100,"cpu_usage":1,"up_time":5,"rx_speed":0,"tx_speed":0}]}`)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "")
	samples, err := client.History(12)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	if samples[0].MemoryUsage != 100 {
		t.Errorf("MemoryUsage = %d", samples[0].MemoryUsage)
	}
}

func TestClientSetActiveBody(t *testing.T) {
	var got struct {
		Active *bool `json:"active"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "")
	if err := client.SetActive(true); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if got.Active == nil || !*got.Active {
		t.Error("request body did not carry active=true")
	}
}

func TestClientErrorPayloadSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"error":"start failed: engine already running"}`)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "")
	err := client.StartEngine()
	if err == nil {
		t.Fatal("StartEngine() on 409, want error")
	}
	want := "API returned status 409: start failed: engine already running"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestClientTailLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/logs/crash" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"domain":"crash","lines":["one","two"]}`)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "")
	lines, err := client.TailLogs("crash", 200)
	if err != nil {
		t.Fatalf("TailLogs() error = %v", err)
	}
	if len(lines) != 2 || lines[1] != "two" {
		t.Errorf("lines = %v", lines)
	}
}

func TestClientConnectionRefused(t *testing.T) {
	client := NewAPIClient("http://127.0.0.1:1", "")
	if _, err := client.Status(); err == nil {
		t.Error("Status() against closed port, want error")
	}
}
