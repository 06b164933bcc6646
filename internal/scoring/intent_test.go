package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreTable(t *testing.T) {
	tests := []struct {
		name     string
		procName string
		mode     Mode
		expected float64
	}{
		{"build suspends media", "Google Chrome", ModeBuild, 0.95},
		{"build protects dev", "Docker Desktop", ModeBuild, 0.05},
		{"build unclassified", "Calculator", ModeBuild, 0.50},
		{"chill protects media", "Spotify", ModeChill, 0.05},
		{"chill suspends dev", "node", ModeChill, 0.95},
		{"chill unclassified", "Calculator", ModeChill, 0.50},
		{"focus suspends media", "Firefox", ModeFocus, 0.90},
		{"focus protects dev", "goland", ModeFocus, 0.10},
		{"focus unclassified", "Calculator", ModeFocus, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.procName, tt.mode))
		})
	}
}

func TestScoreCaseInsensitive(t *testing.T) {
	assert.Equal(t, Score("CHROME", ModeBuild), Score("chrome", ModeBuild))
	assert.Equal(t, Score("Docker", ModeChill), Score("docker", ModeChill))
}

func TestScoreDeterministicAndBounded(t *testing.T) {
	names := []string{"Chrome", "docker", "random-app", "", "Spotify Helper", "node"}
	modes := []Mode{ModeBuild, ModeChill, ModeFocus}

	for _, name := range names {
		for _, mode := range modes {
			first := Score(name, mode)
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, Score(name, mode))
			}
			assert.GreaterOrEqual(t, first, 0.0)
			assert.LessOrEqual(t, first, 1.0)
		}
	}
}

func TestScoreSymmetryAcrossBuildAndChill(t *testing.T) {
	// Build's media score mirrors Chill's dev score and vice versa.
	assert.Equal(t, Score("Chrome", ModeBuild), Score("docker", ModeChill))
	assert.Equal(t, Score("Chrome", ModeChill), Score("docker", ModeBuild))
}

func TestMediaWinsSubstringCollision(t *testing.T) {
	// "chrome-node" matches both keyword sets; media precedence means it
	// scores as media in every mode.
	assert.Equal(t, 0.95, Score("chrome-node", ModeBuild))
	assert.Equal(t, 0.05, Score("chrome-node", ModeChill))
	assert.Equal(t, 0.90, Score("chrome-node", ModeFocus))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		mode Mode
		ok   bool
	}{
		{"build", ModeBuild, true},
		{"Chill", ModeChill, true},
		{"FOCUS", ModeFocus, true},
		{"zen", ModeFocus, false},
		{"", ModeFocus, false},
	}

	for _, tt := range tests {
		mode, ok := ParseMode(tt.in)
		assert.Equal(t, tt.mode, mode, "input %q", tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "build", ModeBuild.String())
	assert.Equal(t, "chill", ModeChill.String())
	assert.Equal(t, "focus", ModeFocus.String())
	assert.Equal(t, "focus", Mode(0).String()) // zero value defaults to focus
}
