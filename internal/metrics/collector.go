package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/proxypilot/proxypilot/internal/stats"
)

// Collector periodically samples the application process tree and publishes
// the snapshot to the Prometheus gauges and the history buffer.
type Collector struct {
	sampler  *stats.Sampler
	history  *HistoryBuffer
	interval time.Duration
	logger   *slog.Logger
}

// NewCollector creates a Collector sampling every interval.
func NewCollector(sampler *stats.Sampler, history *HistoryBuffer, interval time.Duration, log *slog.Logger) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Collector{
		sampler:  sampler,
		history:  history,
		interval: interval,
		logger:   log.With("component", "metrics_collector"),
	}
}

// History exposes the backing buffer for API/TUI queries.
func (c *Collector) History() *HistoryBuffer {
	return c.history
}

// Run blocks, collecting until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	c.logger.Info("Starting resource collection", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Resource collection stopped")
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Collector) collect() {
	snapshot, err := c.sampler.Stats()
	if err != nil {
		c.logger.Warn("Resource sampling failed", "error", err)
		return
	}

	EngineMemoryBytes.Set(float64(snapshot.MemoryUsage))
	EngineCPUPercent.Set(snapshot.CPUUsage)
	EngineUptimeSeconds.Set(float64(snapshot.UpTime))
	NetworkRxBytesPerSecond.Set(float64(snapshot.RxSpeed))
	NetworkTxBytesPerSecond.Set(float64(snapshot.TxSpeed))

	if c.history != nil {
		c.history.Add(Sample{Timestamp: time.Now(), EngineStats: snapshot})
	}
}
