package metrics

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/proxypilot/proxypilot/internal/stats"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectorPublishesSnapshot(t *testing.T) {
	sampler := stats.NewSampler(int32(os.Getpid()), testLogger())
	history := NewHistoryBuffer(10)
	c := NewCollector(sampler, history, time.Second, testLogger())

	c.collect()

	// The test process is in the sampled tree, so memory must be non-zero.
	if got := testutil.ToFloat64(EngineMemoryBytes); got == 0 {
		t.Error("EngineMemoryBytes = 0 after collect, want > 0")
	}
	if history.Size() != 1 {
		t.Errorf("history Size() = %d after collect, want 1", history.Size())
	}
}

func TestCollectorDefaultInterval(t *testing.T) {
	sampler := stats.NewSampler(int32(os.Getpid()), testLogger())
	c := NewCollector(sampler, nil, 0, testLogger())

	if c.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s default", c.interval)
	}

	// nil history must not panic
	c.collect()
}

func TestSetBuildInfo(t *testing.T) {
	SetBuildInfo("1.2.3", "abcdef")

	if got := testutil.ToFloat64(BuildInfo.WithLabelValues("1.2.3", "abcdef")); got != 1 {
		t.Errorf("BuildInfo = %f, want 1", got)
	}
}
