//go:build windows

package engine

import (
	"os/exec"
	"strconv"
	"syscall"
)

// configureSysProc hides the engine's console window.
func configureSysProc(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: 0x08000000, // CREATE_NO_WINDOW
	}
}

// killTree force-kills the engine and its descendants via taskkill /T,
// which walks the child tree for us.
func killTree(c *child) {
	kill := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(c.pid))
	kill.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: 0x08000000,
	}
	if err := kill.Run(); err != nil {
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
	}
}
