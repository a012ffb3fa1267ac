package metrics

import (
	"sync"
	"time"

	"github.com/proxypilot/proxypilot/internal/stats"
)

// Sample is a timestamped resource snapshot kept for history queries.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	stats.EngineStats
}

// HistoryBuffer stores resource samples in a fixed-size ring so the API and
// TUI can render short-term usage graphs without a time-series database.
type HistoryBuffer struct {
	samples    []Sample
	head       int
	size       int
	maxSamples int
	mu         sync.RWMutex
}

// NewHistoryBuffer creates a ring buffer holding up to maxSamples entries.
func NewHistoryBuffer(maxSamples int) *HistoryBuffer {
	if maxSamples < 1 {
		maxSamples = 720 // 1 hour at 5s interval
	}
	return &HistoryBuffer{
		samples:    make([]Sample, maxSamples),
		maxSamples: maxSamples,
	}
}

// Add appends a sample, evicting the oldest when full.
func (b *HistoryBuffer) Add(sample Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples[b.head] = sample
	b.head = (b.head + 1) % b.maxSamples
	if b.size < b.maxSamples {
		b.size++
	}
}

// GetRange returns samples at or after since, oldest first, up to limit.
func (b *HistoryBuffer) GetRange(since time.Time, limit int) []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return []Sample{}
	}
	if limit <= 0 || limit > b.size {
		limit = b.size
	}

	result := make([]Sample, 0, limit)

	// Walk backwards from head (newest to oldest), prepending to keep
	// chronological order.
	for i := 0; i < b.size && len(result) < limit; i++ {
		idx := (b.head - 1 - i + b.maxSamples) % b.maxSamples
		sample := b.samples[idx]
		if !sample.Timestamp.Before(since) {
			result = append([]Sample{sample}, result...)
		}
	}

	return result
}

// GetLast returns the newest n samples, oldest first.
func (b *HistoryBuffer) GetLast(n int) []Sample {
	return b.GetRange(time.Time{}, n)
}

// Size returns the number of stored samples.
func (b *HistoryBuffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Clear empties the buffer, keeping the allocation.
func (b *HistoryBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.size = 0
}
