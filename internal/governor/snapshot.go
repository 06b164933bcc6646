package governor

import (
	"time"

	"github.com/headroom-sh/headroom/internal/sampler"
	"github.com/headroom-sh/headroom/internal/scoring"
	"github.com/headroom-sh/headroom/internal/suspend"
)

// ScoredProcess pairs a sampled process with its current advisor score.
type ScoredProcess struct {
	sampler.ProcessDescriptor
	Score     float64 `json:"score"`
	Suspended bool    `json:"suspended"`
}

// Snapshot is the read-only state view consumed by the UI and
// notification collaborators.
type Snapshot struct {
	Timestamp         time.Time          `json:"timestamp"`
	Mode              string             `json:"mode"`
	Memory            sampler.MemoryStat `json:"memory"`
	CPUPercent        float64            `json:"cpu_percent"`
	MemoryMeanPercent float64            `json:"memory_mean_percent"`
	CPUMeanPercent    float64            `json:"cpu_mean_percent"`
	Processes         []ScoredProcess    `json:"processes"`
	Suspended         []suspend.Record   `json:"suspended"`
	LastEvent         *InterventionEvent `json:"last_event,omitempty"`
	Ticks             uint64             `json:"ticks"`
}

// Snapshot returns the current state: live metrics and process list
// with scores, the suspended set, and the most recent event.
func (g *Governor) Snapshot() Snapshot {
	memStat := g.sampler.Memory()
	cpu := g.sampler.CPU()
	procs := g.sampler.Processes()

	g.mu.Lock()
	mode := g.mode
	ticks := g.ticks
	var lastEvent *InterventionEvent
	if g.lastEvent != nil {
		ev := *g.lastEvent
		lastEvent = &ev
	}
	g.mu.Unlock()

	scores := scoring.AdviseAll(procs, mode)
	suspended := g.controller.SuspendedPIDs()

	scored := make([]ScoredProcess, 0, len(procs))
	for _, p := range procs {
		scored = append(scored, ScoredProcess{
			ProcessDescriptor: p,
			Score:             scores[p.PID],
			Suspended:         suspended[p.PID],
		})
	}

	return Snapshot{
		Timestamp:         time.Now(),
		Mode:              mode.String(),
		Memory:            memStat,
		CPUPercent:        cpu,
		MemoryMeanPercent: g.sampler.MemoryMean(),
		CPUMeanPercent:    g.sampler.CPUMean(),
		Processes:         scored,
		Suspended:         g.controller.Suspended(),
		LastEvent:         lastEvent,
		Ticks:             ticks,
	}
}
