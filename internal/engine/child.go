package engine

import (
	"os"
	"os/exec"
)

// child wraps a spawned engine process with a non-blocking exit probe.
// A dedicated goroutine runs Wait (which also reaps the process), then
// closes done; exited() can then be polled without blocking.
type child struct {
	cmd  *exec.Cmd
	pid  int
	done chan struct{}

	// written by the waiter goroutine before done is closed,
	// read only after done is observed closed
	state *os.ProcessState
}

func startChild(cmd *exec.Cmd) (*child, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	c := &child{
		cmd:  cmd,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}

	go func() {
		_ = cmd.Wait()
		c.state = cmd.ProcessState
		close(c.done)
	}()

	return c, nil
}

// exited reports whether the process has terminated, and its final state
// when it has. Never blocks.
func (c *child) exited() (*os.ProcessState, bool) {
	select {
	case <-c.done:
		return c.state, true
	default:
		return nil, false
	}
}

// wait blocks until the process has terminated and returns its final state.
func (c *child) wait() *os.ProcessState {
	<-c.done
	return c.state
}
