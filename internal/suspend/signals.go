package suspend

import (
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

// Signaler delivers stop/continue signals and answers process-state
// queries.
type Signaler interface {
	Stop(pid int32) error
	Continue(pid int32) error
	// Stopped reports whether the process is in a stopped state, by
	// whatever means it got there.
	Stopped(pid int32) (bool, error)
}

// UnixSignaler signals processes directly via kill(2).
type UnixSignaler struct{}

// Stop delivers SIGSTOP.
func (UnixSignaler) Stop(pid int32) error {
	if err := unix.Kill(int(pid), unix.SIGSTOP); err != nil {
		return fmt.Errorf("SIGSTOP pid %d: %w", pid, err)
	}
	return nil
}

// Continue delivers SIGCONT.
func (UnixSignaler) Continue(pid int32) error {
	if err := unix.Kill(int(pid), unix.SIGCONT); err != nil {
		return fmt.Errorf("SIGCONT pid %d: %w", pid, err)
	}
	return nil
}

// Stopped queries the OS process state.
func (UnixSignaler) Stopped(pid int32) (bool, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return false, fmt.Errorf("process %d lookup: %w", pid, err)
	}
	statuses, err := p.Status()
	if err != nil {
		return false, fmt.Errorf("process %d status: %w", pid, err)
	}
	return slices.Contains(statuses, process.Stop), nil
}
