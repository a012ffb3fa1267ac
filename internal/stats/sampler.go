// Package stats aggregates CPU, memory, and network usage for the whole
// application process tree: the supervisor itself, the interception engine
// it spawned, and any grandchildren the engine forked.
package stats

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

// refreshInterval bounds how often the full process-table scan runs.
// Between rebuilds only the cached PIDs are refreshed, which keeps a
// sub-second UI poll cheap.
const refreshInterval = 30 * time.Second

// EngineStats is a point-in-time resource snapshot of the application tree.
type EngineStats struct {
	MemoryUsage uint64  `json:"memory_usage"` // bytes, summed across the tree
	CPUUsage    float64 `json:"cpu_usage"`    // percent, normalized by core count
	UpTime      uint64  `json:"up_time"`      // seconds, main process only
	RxSpeed     uint64  `json:"rx_speed"`     // bytes/sec across interfaces
	TxSpeed     uint64  `json:"tx_speed"`     // bytes/sec across interfaces
}

// Sampler answers resource queries for the supervisor's process tree with a
// time-based PID cache: discovery (full table walk) every refreshInterval,
// targeted per-PID refresh otherwise.
type Sampler struct {
	rootPID int32
	logger  *slog.Logger

	mu          sync.Mutex
	cached      map[int32]*process.Process
	lastRefresh time.Time

	net *netSampler
}

// NewSampler creates a Sampler rooted at rootPID (normally the supervisor's
// own PID, so the engine and its children are picked up as descendants).
func NewSampler(rootPID int32, log *slog.Logger) *Sampler {
	return &Sampler{
		rootPID: rootPID,
		logger:  log.With("component", "stats"),
		cached:  make(map[int32]*process.Process),
		net:     newNetSampler(),
	}
}

// Stats returns the aggregated snapshot. A PID that vanished between
// discovery and refresh is skipped, never an error.
func (s *Sampler) Stats() (EngineStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cached) == 0 || time.Since(s.lastRefresh) > refreshInterval {
		if err := s.discover(); err != nil {
			return EngineStats{}, err
		}
	}

	var stats EngineStats

	for pid, proc := range s.cached {
		if running, err := proc.IsRunning(); err != nil || !running {
			continue
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			stats.MemoryUsage += mem.RSS
		}
		if pct, err := proc.CPUPercent(); err == nil {
			stats.CPUUsage += pct
		}
		if pid == s.rootPID {
			if created, err := proc.CreateTime(); err == nil {
				elapsed := time.Since(time.UnixMilli(created))
				if elapsed > 0 {
					stats.UpTime = uint64(elapsed.Seconds())
				}
			}
		}
	}

	// Normalize to whole-machine percentage, task-manager style: one
	// saturated core on an 8-core box reads ~12.5%.
	if cores, err := cpu.Counts(true); err == nil && cores > 0 {
		stats.CPUUsage /= float64(cores)
	}
	stats.CPUUsage = clampPercent(stats.CPUUsage)

	stats.RxSpeed, stats.TxSpeed = s.net.speeds()

	return stats, nil
}

// InvalidateCache forces the next Stats call to re-run discovery. The
// supervisor calls this right after spawning the engine so the new child
// shows up without waiting out the refresh interval.
func (s *Sampler) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefresh = time.Time{}
	s.cached = make(map[int32]*process.Process)
}

// discover rebuilds the PID cache with a BFS over the parent relationship,
// starting at the root PID. Existing process handles are reused so gopsutil's
// per-handle CPU deltas survive the rebuild. Caller holds s.mu.
func (s *Sampler) discover() error {
	procs, err := process.Processes()
	if err != nil {
		return err
	}

	parents := make(map[int32]int32, len(procs))
	handles := make(map[int32]*process.Process, len(procs))
	for _, p := range procs {
		handles[p.Pid] = p
		if ppid, err := p.Ppid(); err == nil {
			parents[p.Pid] = ppid
		}
	}

	tree := descendants(s.rootPID, parents)

	cached := make(map[int32]*process.Process, len(tree))
	for _, pid := range tree {
		if existing, ok := s.cached[pid]; ok {
			cached[pid] = existing
		} else if h, ok := handles[pid]; ok {
			cached[pid] = h
		}
	}

	s.cached = cached
	s.lastRefresh = time.Now()
	s.logger.Debug("Refreshed application PID tree cache", "processes", len(cached))
	return nil
}

// descendants returns root plus every PID reachable from it through the
// child→parent map, breadth-first.
func descendants(root int32, parents map[int32]int32) []int32 {
	tree := []int32{root}
	queue := []int32{root}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		for pid, ppid := range parents {
			if ppid == parent && pid != parent {
				queue = append(queue, pid)
				tree = append(tree, pid)
			}
		}
	}

	return tree
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
