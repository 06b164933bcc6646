package suspend

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/headroom-sh/headroom/internal/infrastructure/monitoring"
	"github.com/headroom-sh/headroom/internal/logging"
)

// Controller owns the suspended-PID map and walks the tier ladder. All
// suspend/resume calls serialize on one lock; OS calls are infrequent
// and low-latency enough that finer per-PID locking buys nothing.
type Controller struct {
	freezer Freezer
	signals Signaler
	journal *Journal // nil disables persistence
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	records map[int32]*Record
}

// NewController creates a controller. journal may be nil.
func NewController(freezer Freezer, signals Signaler, journal *Journal, logger *logging.Logger, metrics *monitoring.Metrics) *Controller {
	return &Controller{
		freezer: freezer,
		signals: signals,
		journal: journal,
		logger:  logger,
		metrics: metrics,
		records: make(map[int32]*Record),
	}
}

// Suspend pauses the process, falling down the tier ladder until one
// rung holds. It never reports failure: the virtual tier always
// succeeds. Calling it on an already-suspended PID returns the existing
// state without touching the OS or re-acquiring a kernel handle.
func (c *Controller) Suspend(pid int32) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, ok := c.records[pid]; ok {
		return Outcome{PID: pid, Tier: rec.Tier, AlreadySuspended: true}
	}

	rec := c.suspendLadder(pid)
	c.records[pid] = rec
	c.metrics.RecordSuspension(rec.Tier.String())
	c.metrics.SetSuspendedProcesses(len(c.records))
	c.persistLocked()

	c.logger.Info("process suspended",
		zap.Int32("pid", pid),
		zap.String("tier", rec.Tier.String()),
	)
	return Outcome{PID: pid, Tier: rec.Tier}
}

// suspendLadder walks kernel -> signal -> virtual and returns the record
// for the first tier that held. Failures are logged, never returned.
func (c *Controller) suspendLadder(pid int32) *Record {
	now := time.Now()

	handle, err := c.freezer.Acquire(pid)
	if err != nil {
		c.logger.Warn("kernel freeze handle acquisition failed",
			zap.Int32("pid", pid),
			zap.Error(err),
		)
	} else if freezeErr := handle.Freeze(); freezeErr != nil {
		c.logger.Warn("kernel freeze failed",
			zap.Int32("pid", pid),
			zap.Error(freezeErr),
		)
		if relErr := handle.Release(); relErr != nil {
			c.logger.Warn("freeze handle release failed",
				zap.Int32("pid", pid),
				zap.Error(relErr),
			)
		}
	} else {
		return &Record{PID: pid, Tier: TierKernelTask, SuspendedAt: now, handle: handle}
	}
	c.metrics.RecordTierFallback(TierKernelTask.String(), TierSignal.String())

	if err := c.signals.Stop(pid); err != nil {
		c.logger.Warn("stop signal delivery failed",
			zap.Int32("pid", pid),
			zap.Error(err),
		)
	} else {
		return &Record{PID: pid, Tier: TierSignal, SuspendedAt: now}
	}
	c.metrics.RecordTierFallback(TierSignal.String(), TierVirtual.String())

	return &Record{PID: pid, Tier: TierVirtual, SuspendedAt: now}
}

// Resume unpauses the process and clears its record. Resuming an
// untracked PID is a no-op. Like Suspend, it never reports failure;
// it returns whether the PID was tracked.
func (c *Controller) Resume(pid int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[pid]
	if !ok {
		return false
	}
	c.resumeLocked(rec)
	return true
}

// resumeLocked undoes one record's OS effect and removes it from the
// map. Caller holds c.mu.
func (c *Controller) resumeLocked(rec *Record) {
	switch rec.Tier {
	case TierKernelTask:
		thawErr := rec.handle.Thaw()
		// Release unconditionally: a leaked freeze handle outlives the
		// record and can never be clawed back.
		if err := rec.handle.Release(); err != nil {
			c.logger.Warn("freeze handle release failed",
				zap.Int32("pid", rec.PID),
				zap.Error(err),
			)
		}
		if thawErr != nil {
			c.logger.Warn("kernel thaw failed, falling back to continue signal",
				zap.Int32("pid", rec.PID),
				zap.Error(thawErr),
			)
			if err := c.signals.Continue(rec.PID); err != nil {
				c.logger.Warn("continue signal delivery failed",
					zap.Int32("pid", rec.PID),
					zap.Error(err),
				)
			}
		}
	case TierSignal:
		if err := c.signals.Continue(rec.PID); err != nil {
			c.logger.Warn("continue signal delivery failed",
				zap.Int32("pid", rec.PID),
				zap.Error(err),
			)
		}
	case TierVirtual:
		// Bookkeeping only.
	}

	delete(c.records, rec.PID)
	c.metrics.RecordResume(rec.Tier.String())
	c.metrics.SetSuspendedProcesses(len(c.records))
	c.persistLocked()

	c.logger.Info("process resumed",
		zap.Int32("pid", rec.PID),
		zap.String("tier", rec.Tier.String()),
	)
}

// IsSuspended reports whether a record exists for the PID, or the OS
// reports the process stopped by means outside this controller. It
// never mutates the map.
func (c *Controller) IsSuspended(pid int32) bool {
	c.mu.Lock()
	_, tracked := c.records[pid]
	c.mu.Unlock()
	if tracked {
		return true
	}

	stopped, err := c.signals.Stopped(pid)
	if err != nil {
		return false
	}
	return stopped
}

// Suspended returns a snapshot of current records, sorted by PID.
func (c *Controller) Suspended() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, Record{PID: rec.PID, Tier: rec.Tier, SuspendedAt: rec.SuspendedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// SuspendedPIDs returns the set of currently tracked PIDs.
func (c *Controller) SuspendedPIDs() map[int32]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pids := make(map[int32]bool, len(c.records))
	for pid := range c.records {
		pids[pid] = true
	}
	return pids
}

// ResumeOlderThan resumes every process suspended longer than age and
// returns the resumed records. Used for optional time-based auto-expiry.
func (c *Controller) ResumeOlderThan(age time.Duration) []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-age)
	var stale []*Record
	for _, rec := range c.records {
		if rec.SuspendedAt.Before(cutoff) {
			stale = append(stale, rec)
		}
	}

	resumed := make([]Record, 0, len(stale))
	for _, rec := range stale {
		resumed = append(resumed, Record{PID: rec.PID, Tier: rec.Tier, SuspendedAt: rec.SuspendedAt})
		c.resumeLocked(rec)
	}
	return resumed
}

// Shutdown resumes every tracked process and releases every handle.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	recs := make([]*Record, 0, len(c.records))
	for _, rec := range c.records {
		recs = append(recs, rec)
	}
	for _, rec := range recs {
		c.resumeLocked(rec)
	}
}

// Recover replays the journal left by a previous run: every journaled
// PID gets a best-effort thaw and continue, then the journal is
// cleared. Processes that died in the meantime are skipped silently.
func (c *Controller) Recover() {
	if c.journal == nil {
		return
	}

	entries, err := c.journal.Load()
	if err != nil {
		c.logger.Warn("journal load failed, skipping recovery", zap.Error(err))
		return
	}
	if len(entries) == 0 {
		return
	}

	c.logger.Info("recovering suspensions from previous run",
		zap.Int("count", len(entries)),
	)
	for _, entry := range entries {
		tier := ParseTier(entry.Tier)
		if tier == TierKernelTask {
			if handle, err := c.freezer.Acquire(entry.PID); err == nil {
				if thawErr := handle.Thaw(); thawErr != nil {
					c.logger.Warn("recovery thaw failed",
						zap.Int32("pid", entry.PID),
						zap.Error(thawErr),
					)
				}
				if relErr := handle.Release(); relErr != nil {
					c.logger.Warn("recovery handle release failed",
						zap.Int32("pid", entry.PID),
						zap.Error(relErr),
					)
				}
			}
		}
		if tier == TierKernelTask || tier == TierSignal {
			if err := c.signals.Continue(entry.PID); err != nil {
				c.logger.Debug("recovery continue signal failed",
					zap.Int32("pid", entry.PID),
					zap.Error(err),
				)
			}
		}
	}

	if err := c.journal.Clear(); err != nil {
		c.logger.Warn("journal clear failed", zap.Error(err))
	}
}

// persistLocked writes the journal. Persistence failures are logged and
// swallowed; they must not leak into the suspend/resume contract.
// Caller holds c.mu.
func (c *Controller) persistLocked() {
	if c.journal == nil {
		return
	}

	entries := make([]Entry, 0, len(c.records))
	for _, rec := range c.records {
		entries = append(entries, Entry{
			PID:         rec.PID,
			Tier:        rec.Tier.String(),
			SuspendedAt: rec.SuspendedAt,
		})
	}
	if err := c.journal.Save(entries); err != nil {
		c.logger.Warn("journal save failed", zap.Error(err))
	}
}
