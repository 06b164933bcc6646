// Package governor runs the periodic memory-pressure control loop:
// sample, score, select victims, suspend, report.
package governor

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/headroom-sh/headroom/internal/infrastructure/monitoring"
	"github.com/headroom-sh/headroom/internal/logging"
	"github.com/headroom-sh/headroom/internal/sampler"
	"github.com/headroom-sh/headroom/internal/scoring"
	"github.com/headroom-sh/headroom/internal/suspend"
)

// Config holds the control loop tunables.
type Config struct {
	// MemoryThresholdPercent is the RAM% above which a tick intervenes.
	MemoryThresholdPercent float64
	// CandidateCutoff is the score above which a process is a clear
	// candidate. Scores in the ambiguous band below it are never
	// auto-suspended.
	CandidateCutoff float64
	// MaxVictimsPerTick caps suspensions per tick so one spike never
	// triggers an over-reaction.
	MaxVictimsPerTick int
	// TickInterval is the loop cadence for Run.
	TickInterval time.Duration
	// MaxSuspendAge resumes processes suspended longer than this.
	// Zero disables auto-expiry.
	MaxSuspendAge time.Duration
	// HistorySize bounds the kept intervention history.
	HistorySize int
}

// DefaultConfig returns the standard control loop tunables.
func DefaultConfig() Config {
	return Config{
		MemoryThresholdPercent: 85,
		CandidateCutoff:        0.7,
		MaxVictimsPerTick:      3,
		TickInterval:           2 * time.Second,
		MaxSuspendAge:          0,
		HistorySize:            100,
	}
}

// Governor drives the suspension controller from sampled metrics.
type Governor struct {
	cfg        Config
	sampler    *sampler.Sampler
	controller *suspend.Controller
	logger     *logging.Logger
	metrics    *monitoring.Metrics

	mu        sync.Mutex
	mode      scoring.Mode
	ticks     uint64
	history   []InterventionEvent
	lastEvent *InterventionEvent
	subs      map[int]chan InterventionEvent
	nextSubID int
}

// New creates a governor. The mode starts at ModeFocus.
func New(cfg Config, smp *sampler.Sampler, controller *suspend.Controller, logger *logging.Logger, metrics *monitoring.Metrics) *Governor {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultConfig().HistorySize
	}
	return &Governor{
		cfg:        cfg,
		sampler:    smp,
		controller: controller,
		logger:     logger,
		metrics:    metrics,
		subs:       make(map[int]chan InterventionEvent),
	}
}

// Run ticks the governor at the configured interval until ctx is done.
func (g *Governor) Run(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()

	g.logger.Info("governor loop started",
		zap.Duration("interval", g.cfg.TickInterval),
		zap.Float64("memory_threshold", g.cfg.MemoryThresholdPercent),
	)
	for {
		select {
		case <-ctx.Done():
			g.logger.Info("governor loop stopped")
			return
		case <-ticker.C:
			g.Tick()
		}
	}
}

// Tick runs one pressure check: sample, and intervene only when RAM%
// exceeds the threshold. A tick is a strict pipeline; sampling happens
// before scoring, scoring before selection, selection before suspension.
func (g *Governor) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tickLocked()
}

func (g *Governor) tickLocked() {
	g.ticks++
	g.metrics.RecordTick()

	if g.cfg.MaxSuspendAge > 0 {
		if expired := g.controller.ResumeOlderThan(g.cfg.MaxSuspendAge); len(expired) > 0 {
			g.logger.Info("auto-expired suspensions",
				zap.Int("count", len(expired)),
				zap.Duration("max_age", g.cfg.MaxSuspendAge),
			)
		}
	}

	memStat := g.sampler.Memory()
	if memStat.Percent <= g.cfg.MemoryThresholdPercent {
		return
	}

	g.logger.Info("memory pressure detected",
		zap.Float64("percent", memStat.Percent),
		zap.Float64("threshold", g.cfg.MemoryThresholdPercent),
		zap.String("mode", g.mode.String()),
	)

	procs := g.sampler.Processes()
	scores := scoring.AdviseAll(procs, g.mode)

	type candidate struct {
		desc  sampler.ProcessDescriptor
		score float64
	}
	candidates := make([]candidate, 0, len(procs))
	for _, p := range procs {
		if score := scores[p.PID]; score > g.cfg.CandidateCutoff {
			candidates = append(candidates, candidate{desc: p, score: score})
		}
	}
	// Stable sort keeps ties in input order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > g.cfg.MaxVictimsPerTick {
		candidates = candidates[:g.cfg.MaxVictimsPerTick]
	}

	var victims []Victim
	var reclaimMB float64
	for _, cand := range candidates {
		out := g.controller.Suspend(cand.desc.PID)
		if out.AlreadySuspended {
			continue
		}
		victims = append(victims, Victim{
			PID:      cand.desc.PID,
			Name:     cand.desc.Name,
			MemoryMB: cand.desc.MemoryMB,
		})
		reclaimMB += cand.desc.MemoryMB
	}
	if len(victims) == 0 {
		return
	}

	g.emitLocked(newEvent(EventAuto, "suspend", victims, reclaimMB))
}

// SetMode stores the intent mode and immediately runs a pressure check:
// a mode switch doubles as an eager tick.
func (g *Governor) SetMode(mode scoring.Mode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.mode != mode {
		g.logger.Info("intent mode changed",
			zap.String("from", g.mode.String()),
			zap.String("to", mode.String()),
		)
	}
	g.mode = mode
	g.tickLocked()
}

// Mode returns the current intent mode.
func (g *Governor) Mode() scoring.Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

// ManualSuspend suspends one process directly, bypassing scoring, and
// emits a manual event. Like every suspend it always succeeds.
func (g *Governor) ManualSuspend(pid int32) suspend.Outcome {
	desc, _ := g.findDescriptor(pid)
	out := g.controller.Suspend(pid)
	if !out.AlreadySuspended {
		victim := Victim{PID: pid, Name: desc.Name, MemoryMB: desc.MemoryMB}
		g.mu.Lock()
		g.emitLocked(newEvent(EventManual, "suspend", []Victim{victim}, desc.MemoryMB))
		g.mu.Unlock()
	}
	return out
}

// ManualResume resumes one process directly and emits a manual event
// when the PID was tracked. Resuming an untracked PID is a no-op.
func (g *Governor) ManualResume(pid int32) bool {
	desc, _ := g.findDescriptor(pid)
	tracked := g.controller.Resume(pid)
	if tracked {
		victim := Victim{PID: pid, Name: desc.Name, MemoryMB: desc.MemoryMB}
		g.mu.Lock()
		g.emitLocked(newEvent(EventManual, "resume", []Victim{victim}, 0))
		g.mu.Unlock()
	}
	return tracked
}

// findDescriptor looks up the process in the current sample for event
// enrichment. A miss returns an empty descriptor, not an error.
func (g *Governor) findDescriptor(pid int32) (sampler.ProcessDescriptor, bool) {
	for _, p := range g.sampler.Processes() {
		if p.PID == pid {
			return p, true
		}
	}
	return sampler.ProcessDescriptor{PID: pid}, false
}

// Events returns a copy of the intervention history, oldest first.
func (g *Governor) Events() []InterventionEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]InterventionEvent, len(g.history))
	copy(out, g.history)
	return out
}

// Subscribe registers a listener for future intervention events. The
// returned cancel function must be called to release the subscription.
// Slow listeners drop events rather than blocking the loop.
func (g *Governor) Subscribe() (<-chan InterventionEvent, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextSubID
	g.nextSubID++
	ch := make(chan InterventionEvent, 16)
	g.subs[id] = ch

	cancel := func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if sub, ok := g.subs[id]; ok {
			delete(g.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// emitLocked appends to history and fans out to subscribers. Caller
// holds g.mu.
func (g *Governor) emitLocked(event InterventionEvent) {
	g.history = append(g.history, event)
	if len(g.history) > g.cfg.HistorySize {
		g.history = g.history[len(g.history)-g.cfg.HistorySize:]
	}
	g.lastEvent = &g.history[len(g.history)-1]
	g.metrics.RecordIntervention(string(event.Kind), event.EstimatedReclaimMB)

	for _, ch := range g.subs {
		select {
		case ch <- event:
		default:
		}
	}

	g.logger.Info("intervention",
		zap.String("kind", string(event.Kind)),
		zap.String("action", event.Action),
		zap.Int("victims", len(event.Victims)),
		zap.Float64("estimated_reclaim_mb", event.EstimatedReclaimMB),
	)
}
