package scoring

import (
	"strings"

	"github.com/headroom-sh/headroom/internal/sampler"
)

// Contextual adjustment thresholds and bonuses.
const (
	// ProtectedPIDFloor marks PIDs below it as OS-critical, never eligible.
	ProtectedPIDFloor = 100

	largeMemoryMB  = 500.0
	idleCPUPercent = 1.0

	largeMemoryBonus       = 0.10
	idleBonus              = 0.15
	backgroundServiceBonus = 0.20
)

// backgroundKeywords mark helper/agent/daemon-style processes that users
// rarely interact with directly.
var backgroundKeywords = []string{
	"helper", "agent", "daemon", "service", "updater",
	"sync", "background", "renderer",
}

// systemKeywords mark kernel and core OS processes that must never be
// suspended regardless of any stacked bonuses. They match the whole
// name or a prefix ending at a word boundary, so "systemd" covers
// "systemd-journald" while "dock" leaves "docker" classifiable.
var systemKeywords = []string{
	"kernel", "launchd", "systemd", "init", "windowserver",
	"loginwindow", "finder", "dock", "systemuiserver",
}

func isSystemName(lower string) bool {
	for _, k := range systemKeywords {
		if !strings.HasPrefix(lower, k) {
			continue
		}
		if len(lower) == len(k) {
			return true
		}
		if c := lower[len(k)]; (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return true
		}
	}
	return false
}

// Advise returns the adjusted suspend-worthiness score for one process:
// the intent base score plus contextual bonuses, clamped to [0,1]. The
// protective override runs last and unconditionally: a system-keyword
// name or a PID below the protected floor scores exactly 0, no matter
// what the additive adjustments produced.
func Advise(desc sampler.ProcessDescriptor, mode Mode) float64 {
	score := Score(desc.Name, mode)

	if desc.MemoryMB > largeMemoryMB {
		score += largeMemoryBonus
	}
	if desc.CPUPercent < idleCPUPercent {
		score += idleBonus
	}
	lower := strings.ToLower(desc.Name)
	if matchesAny(lower, backgroundKeywords) {
		score += backgroundServiceBonus
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	// Protection dominates everything above.
	if desc.PID < ProtectedPIDFloor || isSystemName(lower) {
		return 0
	}
	return score
}

// AdviseAll scores every descriptor for the given mode.
func AdviseAll(descs []sampler.ProcessDescriptor, mode Mode) map[int32]float64 {
	scores := make(map[int32]float64, len(descs))
	for _, d := range descs {
		scores[d.PID] = Advise(d, mode)
	}
	return scores
}
