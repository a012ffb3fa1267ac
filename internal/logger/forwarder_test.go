package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// memorySink records writes for assertions
type memorySink struct {
	mu      sync.Mutex
	entries []struct {
		domain  Domain
		message string
	}
}

func (m *memorySink) Write(domain Domain, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, struct {
		domain  Domain
		message string
	}{domain, message})
}

func (m *memorySink) snapshot() []struct {
	domain  Domain
	message string
} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]struct {
		domain  Domain
		message string
	}, len(m.entries))
	copy(out, m.entries)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForwarderClassifiesPerLine(t *testing.T) {
	sink := &memorySink{}
	fw := NewForwarder(sink, testLogger())

	input := strings.NewReader(
		"proxy listening\n[SCRIPT] hook ran\n[PLUGIN] loaded\nplain line\n")
	fw.Attach("stdout", input)
	fw.Wait()

	got := sink.snapshot()
	if len(got) != 4 {
		t.Fatalf("forwarded %d lines, want 4", len(got))
	}

	wantDomains := []Domain{DomainEngine, DomainScript, DomainPlugin, DomainEngine}
	for i, want := range wantDomains {
		if got[i].domain != want {
			t.Errorf("line %d domain = %q, want %q", i, got[i].domain, want)
		}
	}
}

func TestForwarderNilStream(t *testing.T) {
	fw := NewForwarder(&memorySink{}, testLogger())
	fw.Attach("stdout", nil)
	fw.Wait() // must not hang or panic
}

func TestForwarderIndependentStreams(t *testing.T) {
	sink := &memorySink{}
	fw := NewForwarder(sink, testLogger())

	fw.Attach("stdout", strings.NewReader("out line\n"))
	fw.Attach("stderr", strings.NewReader("[CRASH] err line\n"))
	fw.Wait()

	got := sink.snapshot()
	if len(got) != 2 {
		t.Fatalf("forwarded %d lines, want 2", len(got))
	}
}

func TestFileSinkWritesDomainFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	sink.Write(DomainEngine, "engine says hi")
	sink.Write(DomainScript, "script says hi")
	sink.Write(DomainCrash, "[CRASH] engine exited")

	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	engineLog, err := os.ReadFile(filepath.Join(dir, "engine.log"))
	if err != nil {
		t.Fatalf("read engine.log: %v", err)
	}
	if !strings.Contains(string(engineLog), "engine says hi") {
		t.Errorf("engine.log missing message: %q", engineLog)
	}

	scriptLog, err := os.ReadFile(filepath.Join(dir, "script.log"))
	if err != nil {
		t.Fatalf("read script.log: %v", err)
	}
	// Prefix is normalized in when the line does not carry it.
	if !strings.Contains(string(scriptLog), "[SCRIPT] script says hi") {
		t.Errorf("script.log missing prefixed message: %q", scriptLog)
	}

	crashLog, err := os.ReadFile(filepath.Join(dir, "crash.log"))
	if err != nil {
		t.Fatalf("read crash.log: %v", err)
	}
	// Prefix already present is not duplicated.
	if strings.Contains(string(crashLog), "[CRASH] [CRASH]") {
		t.Errorf("crash.log has doubled prefix: %q", crashLog)
	}
}

func TestFileSinkWriteAfterClose(t *testing.T) {
	sink, err := NewFileSink(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Must be a silent no-op.
	sink.Write(DomainEngine, "late message")
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestFileSinkDrainsOnClose(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	for i := 0; i < 100; i++ {
		sink.Write(DomainEngine, "line")
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "engine.log"))
	if err != nil {
		t.Fatalf("read engine.log: %v", err)
	}
	if n := strings.Count(string(data), "line"); n != 100 {
		t.Errorf("engine.log has %d lines, want 100", n)
	}
}
