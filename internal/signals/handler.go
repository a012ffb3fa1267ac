//go:build !windows

// Package signals handles zombie reaping for containerized deployments.
package signals

import (
	"log/slog"
	"os"
	"syscall"
	"time"
)

// ReapZombies continuously reaps zombie processes.
// This is critical when running as PID 1 in a container: without it,
// defunct helper processes accumulate and can exhaust PIDs.
//
// Only call this when IsPID1() is true. Outside of PID 1 the engine
// child is reaped by the supervisor's own waiter, and a global wait
// would race with it.
func ReapZombies() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		reapAll()
	}
}

// reapAll reaps all zombie child processes
func reapAll() {
	for {
		var status syscall.WaitStatus
		pid, err := syscall.Wait4(-1, &status, syscall.WNOHANG, nil)

		if err != nil || pid <= 0 {
			// No more zombies to reap
			break
		}

		slog.Debug("Reaped zombie process",
			"pid", pid,
			"status", status,
		)
	}
}

// IsPID1 returns true if the current process is PID 1
func IsPID1() bool {
	return os.Getpid() == 1
}
