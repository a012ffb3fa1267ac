//go:build !windows

package engine

import (
	"os/exec"
	"syscall"
)

// configureSysProc places the child in its own process group so the whole
// engine tree can be signalled at once.
func configureSysProc(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree force-kills the engine and every process in its group.
func killTree(c *child) {
	// Negative PID targets the process group created at spawn.
	if err := syscall.Kill(-c.pid, syscall.SIGKILL); err != nil {
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
	}
}
