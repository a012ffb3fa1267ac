package metrics

import (
	"testing"
	"time"

	"github.com/proxypilot/proxypilot/internal/stats"
)

func sampleAt(ts time.Time, mem uint64) Sample {
	return Sample{
		Timestamp:   ts,
		EngineStats: stats.EngineStats{MemoryUsage: mem},
	}
}

func TestHistoryBufferAddAndSize(t *testing.T) {
	b := NewHistoryBuffer(3)

	if b.Size() != 0 {
		t.Fatalf("new buffer Size() = %d, want 0", b.Size())
	}

	now := time.Now()
	b.Add(sampleAt(now, 1))
	b.Add(sampleAt(now.Add(time.Second), 2))

	if b.Size() != 2 {
		t.Errorf("Size() = %d, want 2", b.Size())
	}
}

func TestHistoryBufferEvictsOldest(t *testing.T) {
	b := NewHistoryBuffer(3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		b.Add(sampleAt(now.Add(time.Duration(i)*time.Second), uint64(i)))
	}

	if b.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", b.Size())
	}

	got := b.GetLast(3)
	if len(got) != 3 {
		t.Fatalf("GetLast(3) returned %d samples, want 3", len(got))
	}

	// Oldest first: samples 2, 3, 4 survive.
	for i, want := range []uint64{2, 3, 4} {
		if got[i].MemoryUsage != want {
			t.Errorf("sample %d MemoryUsage = %d, want %d", i, got[i].MemoryUsage, want)
		}
	}
}

func TestHistoryBufferGetRangeSince(t *testing.T) {
	b := NewHistoryBuffer(10)
	now := time.Now()

	for i := 0; i < 5; i++ {
		b.Add(sampleAt(now.Add(time.Duration(i)*time.Minute), uint64(i)))
	}

	got := b.GetRange(now.Add(3*time.Minute), 10)
	if len(got) != 2 {
		t.Fatalf("GetRange() returned %d samples, want 2", len(got))
	}
	if got[0].MemoryUsage != 3 || got[1].MemoryUsage != 4 {
		t.Errorf("GetRange() = [%d, %d], want [3, 4]",
			got[0].MemoryUsage, got[1].MemoryUsage)
	}
}

func TestHistoryBufferGetLastLimit(t *testing.T) {
	b := NewHistoryBuffer(10)
	now := time.Now()

	for i := 0; i < 5; i++ {
		b.Add(sampleAt(now.Add(time.Duration(i)*time.Second), uint64(i)))
	}

	got := b.GetLast(2)
	if len(got) != 2 {
		t.Fatalf("GetLast(2) returned %d samples, want 2", len(got))
	}
	if got[0].MemoryUsage != 3 || got[1].MemoryUsage != 4 {
		t.Errorf("GetLast(2) = [%d, %d], want [3, 4]",
			got[0].MemoryUsage, got[1].MemoryUsage)
	}
}

func TestHistoryBufferClear(t *testing.T) {
	b := NewHistoryBuffer(3)
	b.Add(sampleAt(time.Now(), 1))
	b.Clear()

	if b.Size() != 0 {
		t.Errorf("Size() after Clear() = %d, want 0", b.Size())
	}
	if got := b.GetLast(3); len(got) != 0 {
		t.Errorf("GetLast() after Clear() returned %d samples, want 0", len(got))
	}
}
