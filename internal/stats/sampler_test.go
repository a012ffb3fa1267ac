package stats

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	psnet "github.com/shirou/gopsutil/v4/net"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDescendants(t *testing.T) {
	tests := []struct {
		name    string
		root    int32
		parents map[int32]int32
		want    []int32
	}{
		{
			name:    "root only",
			root:    100,
			parents: map[int32]int32{100: 1},
			want:    []int32{100},
		},
		{
			name: "direct child",
			root: 100,
			parents: map[int32]int32{
				100: 1,
				200: 100,
			},
			want: []int32{100, 200},
		},
		{
			name: "grandchildren",
			root: 100,
			parents: map[int32]int32{
				100: 1,
				200: 100,
				300: 200,
				301: 200,
			},
			want: []int32{100, 200, 300, 301},
		},
		{
			name: "unrelated processes excluded",
			root: 100,
			parents: map[int32]int32{
				100: 1,
				200: 100,
				999: 1,
				888: 999,
			},
			want: []int32{100, 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := descendants(tt.root, tt.parents)

			gotSet := make(map[int32]bool, len(got))
			for _, pid := range got {
				gotSet[pid] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("descendants() = %v, want %v", got, tt.want)
			}
			for _, pid := range tt.want {
				if !gotSet[pid] {
					t.Errorf("descendants() missing pid %d: got %v", pid, got)
				}
			}
		})
	}
}

func TestSamplerStatsOwnTree(t *testing.T) {
	s := NewSampler(int32(os.Getpid()), testLogger())

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	// The test process itself is in the tree, so memory must be non-zero.
	if stats.MemoryUsage == 0 {
		t.Error("MemoryUsage = 0, want > 0 for own process tree")
	}
	if stats.CPUUsage < 0 || stats.CPUUsage > 100 {
		t.Errorf("CPUUsage = %f, want within [0, 100]", stats.CPUUsage)
	}
}

func TestSamplerCacheReuse(t *testing.T) {
	s := NewSampler(int32(os.Getpid()), testLogger())

	if _, err := s.Stats(); err != nil {
		t.Fatalf("first Stats() error = %v", err)
	}
	firstRefresh := s.lastRefresh

	if _, err := s.Stats(); err != nil {
		t.Fatalf("second Stats() error = %v", err)
	}

	// Second call within the refresh interval must not rediscover.
	if !s.lastRefresh.Equal(firstRefresh) {
		t.Error("cache was rebuilt within the refresh interval")
	}
}

func TestSamplerInvalidateCache(t *testing.T) {
	s := NewSampler(int32(os.Getpid()), testLogger())

	if _, err := s.Stats(); err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	s.InvalidateCache()

	if len(s.cached) != 0 {
		t.Error("InvalidateCache() left cached PIDs behind")
	}

	if _, err := s.Stats(); err != nil {
		t.Fatalf("Stats() after invalidate error = %v", err)
	}
	if len(s.cached) == 0 {
		t.Error("Stats() after invalidate did not rediscover")
	}
}

func TestClampPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{250, 100},
	}
	for _, tt := range tests {
		if got := clampPercent(tt.in); got != tt.want {
			t.Errorf("clampPercent(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestNetSamplerSpeeds(t *testing.T) {
	var rx, tx uint64 = 1000, 500

	n := &netSampler{
		ioCounters: func(pernic bool) ([]psnet.IOCountersStat, error) {
			return []psnet.IOCountersStat{{BytesRecv: rx, BytesSent: tx}}, nil
		},
	}

	// First sample establishes the baseline; no rate yet.
	gotRx, gotTx := n.speeds()
	if gotRx != 0 || gotTx != 0 {
		t.Errorf("first sample speeds = (%d, %d), want (0, 0)", gotRx, gotTx)
	}

	// Backdate the sample so elapsed time is a clean 1s.
	n.mu.Lock()
	n.lastSample = time.Now().Add(-1 * time.Second)
	n.mu.Unlock()

	rx, tx = 3000, 1500
	gotRx, gotTx = n.speeds()

	// ~2000 rx and ~1000 tx bytes over ~1s; allow slack for timer skew.
	if gotRx < 1800 || gotRx > 2200 {
		t.Errorf("rx speed = %d, want ~2000", gotRx)
	}
	if gotTx < 900 || gotTx > 1100 {
		t.Errorf("tx speed = %d, want ~1000", gotTx)
	}
}

func TestNetSamplerCounterReset(t *testing.T) {
	calls := 0
	n := &netSampler{
		ioCounters: func(pernic bool) ([]psnet.IOCountersStat, error) {
			calls++
			if calls == 1 {
				return []psnet.IOCountersStat{{BytesRecv: 5000, BytesSent: 5000}}, nil
			}
			// Counters went backwards (interface reset); must not underflow.
			return []psnet.IOCountersStat{{BytesRecv: 100, BytesSent: 100}}, nil
		},
	}

	n.speeds()
	n.mu.Lock()
	n.lastSample = time.Now().Add(-1 * time.Second)
	n.mu.Unlock()

	rx, tx := n.speeds()
	if rx != 0 || tx != 0 {
		t.Errorf("speeds after counter reset = (%d, %d), want (0, 0)", rx, tx)
	}
}
