// Package testutil provides common testing utilities for proxypilot.
package testutil

import (
	"fmt"
	"testing"
	"time"
)

// DefaultTimeout is the default timeout for polling operations.
const DefaultTimeout = 5 * time.Second

// DefaultInterval is the default polling interval.
const DefaultInterval = 10 * time.Millisecond

// WaitForCondition polls until condition returns true or timeout is reached.
// Returns an error if the condition is not met within the timeout.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, description string) error {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return nil
		}
		time.Sleep(DefaultInterval)
	}
	return fmt.Errorf("timeout waiting for %s after %v", description, timeout)
}

// MustWaitForCondition is like WaitForCondition but fails the test on timeout.
func MustWaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, description string) {
	t.Helper()
	if err := WaitForCondition(t, timeout, condition, description); err != nil {
		t.Fatalf("%v", err)
	}
}

// Eventually asserts that condition becomes true within timeout.
// This is the most commonly used function for replacing time.Sleep patterns.
func Eventually(t *testing.T, condition func() bool, description string, timeoutOpts ...time.Duration) {
	t.Helper()
	timeout := DefaultTimeout
	if len(timeoutOpts) > 0 {
		timeout = timeoutOpts[0]
	}
	MustWaitForCondition(t, timeout, condition, description)
}

// WaitForEngineStart polls until checkFn returns true, indicating the engine
// has started.
func WaitForEngineStart(t *testing.T, checkFn func() bool) {
	t.Helper()
	MustWaitForCondition(t, 2*time.Second, checkFn, "engine to start")
}

// WaitForEngineStop polls until checkFn returns true, indicating the engine
// has stopped.
func WaitForEngineStop(t *testing.T, checkFn func() bool) {
	t.Helper()
	MustWaitForCondition(t, 5*time.Second, checkFn, "engine to stop")
}
