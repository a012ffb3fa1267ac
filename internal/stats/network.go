package stats

import (
	"sync"
	"time"

	psnet "github.com/shirou/gopsutil/v4/net"
)

// ioCountersFunc matches gopsutil's net.IOCounters, seam for tests.
type ioCountersFunc func(pernic bool) ([]psnet.IOCountersStat, error)

// netSampler derives rx/tx byte rates from successive interface counter
// reads. The first call has no baseline and reports zero.
type netSampler struct {
	mu         sync.Mutex
	ioCounters ioCountersFunc
	lastRx     uint64
	lastTx     uint64
	lastSample time.Time
	rxSpeed    uint64
	txSpeed    uint64
}

func newNetSampler() *netSampler {
	return &netSampler{ioCounters: psnet.IOCounters}
}

// speeds returns the latest rx/tx rates in bytes per second. Samples taken
// less than 100ms apart reuse the previous rates to avoid noisy deltas.
func (n *netSampler) speeds() (rx, tx uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	counters, err := n.ioCounters(false)
	if err != nil || len(counters) == 0 {
		return n.rxSpeed, n.txSpeed
	}

	var currentRx, currentTx uint64
	for _, c := range counters {
		currentRx += c.BytesRecv
		currentTx += c.BytesSent
	}

	now := time.Now()
	elapsed := now.Sub(n.lastSample).Seconds()

	if elapsed > 0.1 {
		if n.lastRx > 0 && currentRx >= n.lastRx {
			n.rxSpeed = uint64(float64(currentRx-n.lastRx) / elapsed)
		}
		if n.lastTx > 0 && currentTx >= n.lastTx {
			n.txSpeed = uint64(float64(currentTx-n.lastTx) / elapsed)
		}

		n.lastRx = currentRx
		n.lastTx = currentTx
		n.lastSample = now
	}

	return n.rxSpeed, n.txSpeed
}
