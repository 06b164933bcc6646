package suspend

import "time"

// Tier identifies one rung of the suspend fallback ladder.
type Tier int

const (
	// TierKernelTask suspends through the kernel cgroup freezer.
	TierKernelTask Tier = iota
	// TierSignal suspends via SIGSTOP.
	TierSignal
	// TierVirtual tracks the process as suspended without any OS effect.
	TierVirtual
)

// String returns the tier name used in logs, metrics and the journal.
func (t Tier) String() string {
	switch t {
	case TierKernelTask:
		return "kernel_task"
	case TierSignal:
		return "signal"
	case TierVirtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// ParseTier parses a tier name from the journal. Unknown names map to
// TierVirtual so a corrupt journal entry degrades to bookkeeping-only.
func ParseTier(s string) Tier {
	switch s {
	case "kernel_task":
		return TierKernelTask
	case "signal":
		return TierSignal
	default:
		return TierVirtual
	}
}

// Record is the bookkeeping entry for one currently-suspended PID.
type Record struct {
	PID         int32     `json:"pid"`
	Tier        Tier      `json:"tier"`
	SuspendedAt time.Time `json:"suspended_at"`

	// handle is present only for TierKernelTask and must be released
	// exactly once on the resume or shutdown path.
	handle FreezeHandle
}

// Outcome is the caller-visible result of a Suspend call. There is no
// failure variant: the virtual tier makes suspend total.
type Outcome struct {
	PID              int32
	Tier             Tier
	AlreadySuspended bool
}
