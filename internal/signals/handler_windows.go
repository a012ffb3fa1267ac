//go:build windows

// Package signals handles zombie reaping for containerized deployments.
package signals

// ReapZombies is a no-op on Windows, which has no zombie processes.
func ReapZombies() {}

// IsPID1 always returns false on Windows.
func IsPID1() bool {
	return false
}
