package suspend

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Freezer acquires kernel-level freeze handles for processes.
type Freezer interface {
	Acquire(pid int32) (FreezeHandle, error)
}

// FreezeHandle is an owned kernel resource controlling one process's
// frozen state. Release must be safe to call exactly once after any
// sequence of Freeze/Thaw calls.
type FreezeHandle interface {
	Freeze() error
	Thaw() error
	Release() error
}

// CgroupFreezer freezes processes through the cgroup v2 freezer. The
// handle is the open cgroup.freeze control file of the process's cgroup.
type CgroupFreezer struct {
	// Root is the cgroupfs mount point, normally /sys/fs/cgroup.
	Root string
}

// NewCgroupFreezer creates a freezer over the given cgroupfs root.
func NewCgroupFreezer(root string) *CgroupFreezer {
	return &CgroupFreezer{Root: root}
}

// Acquire resolves the process's cgroup and opens its freeze control
// file. Fails when the process is gone, uses cgroup v1, sits in the
// root cgroup, or the file is not writable for this user.
func (f *CgroupFreezer) Acquire(pid int32) (FreezeHandle, error) {
	rel, err := cgroupPath(pid)
	if err != nil {
		return nil, err
	}
	if rel == "/" || rel == "" {
		// Freezing the root cgroup would stop the whole system.
		return nil, fmt.Errorf("pid %d is in the root cgroup", pid)
	}

	path := filepath.Join(f.Root, rel, "cgroup.freeze")
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open freeze control: %w", err)
	}
	return &cgroupHandle{file: file}, nil
}

type cgroupHandle struct {
	file     *os.File
	released sync.Once
}

func (h *cgroupHandle) Freeze() error {
	if _, err := h.file.WriteAt([]byte("1"), 0); err != nil {
		return fmt.Errorf("write freeze: %w", err)
	}
	return nil
}

func (h *cgroupHandle) Thaw() error {
	if _, err := h.file.WriteAt([]byte("0"), 0); err != nil {
		return fmt.Errorf("write thaw: %w", err)
	}
	return nil
}

func (h *cgroupHandle) Release() error {
	var err error
	h.released.Do(func() {
		err = h.file.Close()
	})
	return err
}

// cgroupPath returns the process's cgroup v2 path relative to the
// cgroupfs root, from the "0::" line of /proc/<pid>/cgroup.
func cgroupPath(pid int32) (string, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/cgroup", pid))
	if err != nil {
		return "", fmt.Errorf("read cgroup membership: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if rel, ok := strings.CutPrefix(line, "0::"); ok {
			return rel, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan cgroup membership: %w", err)
	}
	return "", fmt.Errorf("pid %d has no cgroup v2 membership", pid)
}
