package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyRunning is returned by Start while a live engine child is held.
// The caller should stop the engine first.
var ErrAlreadyRunning = errors.New("engine is already running")

// NotFoundError indicates the engine executable (or a mandatory addon file)
// could not be located under any candidate path. Fatal to the start attempt;
// usually means the installation needs repair.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("engine component not found: %s (reinstall the application or check permissions)", e.Name)
}

// StartupTimeoutError indicates the engine never became network-ready within
// the startup budget. Often transient: first-run antivirus or OS verification
// scans can delay readiness, so the caller may retry.
type StartupTimeoutError struct {
	Port    int
	Elapsed time.Duration
}

func (e *StartupTimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for engine on port %d after %s (check if something is blocking the port or antivirus is interfering)",
		e.Port, e.Elapsed.Round(time.Second))
}

// CrashError indicates the engine exited before becoming ready. The exit
// status is surfaced verbatim.
type CrashError struct {
	PID    int
	Status string
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("engine (pid %d) crashed during startup: %s", e.PID, e.Status)
}
