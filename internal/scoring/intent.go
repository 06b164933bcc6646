// Package scoring ranks processes for suspend-worthiness under the
// current user intent. All scoring is pure: no I/O, no clock, no state.
package scoring

import "strings"

// Mode is the user-declared intent that reweights which process
// categories are suspend-worthy. The zero value is ModeFocus.
type Mode int

const (
	// ModeFocus deprioritizes distractions while keeping tools alive.
	ModeFocus Mode = iota
	// ModeBuild favors suspending media so development tools get headroom.
	ModeBuild
	// ModeChill favors suspending development tools so media stays smooth.
	ModeChill
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeBuild:
		return "build"
	case ModeChill:
		return "chill"
	case ModeFocus:
		return "focus"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name, case-insensitive. Unknown names fall
// back to ModeFocus.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(s) {
	case "build":
		return ModeBuild, true
	case "chill":
		return ModeChill, true
	case "focus":
		return ModeFocus, true
	default:
		return ModeFocus, false
	}
}

// Process class keyword sets, matched case-insensitively as substrings.
var (
	mediaKeywords = []string{
		"chrome", "safari", "firefox", "brave", "edge",
		"spotify", "music", "vlc", "netflix", "youtube",
		"twitch", "plex", "tv",
	}

	devKeywords = []string{
		"docker", "node", "npm", "yarn", "cargo", "rustc",
		"gradle", "maven", "make", "gcc", "clang",
		"code", "idea", "goland", "vim", "emacs",
		"terminal", "iterm", "zsh", "bash",
		"postgres", "mysql", "redis",
	}
)

// Per-mode base scores. Higher means more suspend-worthy.
const (
	scoreUnclassified = 0.50

	buildMediaScore = 0.95
	buildDevScore   = 0.05

	chillMediaScore = 0.05
	chillDevScore   = 0.95

	focusMediaScore = 0.90
	focusDevScore   = 0.10
)

// Score maps a process name and the active mode to a base
// suspend-priority score in [0,1]. When a name matches both keyword
// sets, the media classification wins: media keywords are checked
// first and short-circuit.
func Score(name string, mode Mode) float64 {
	lower := strings.ToLower(name)

	if matchesAny(lower, mediaKeywords) {
		switch mode {
		case ModeBuild:
			return buildMediaScore
		case ModeChill:
			return chillMediaScore
		default:
			return focusMediaScore
		}
	}

	if matchesAny(lower, devKeywords) {
		switch mode {
		case ModeBuild:
			return buildDevScore
		case ModeChill:
			return chillDevScore
		default:
			return focusDevScore
		}
	}

	return scoreUnclassified
}

func matchesAny(lowerName string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}
