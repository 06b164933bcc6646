package suspend

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headroom-sh/headroom/internal/infrastructure/monitoring"
	"github.com/headroom-sh/headroom/internal/logging"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	return NewJournal(filepath.Join(t.TempDir(), "state", "journal.json"))
}

func TestJournalRoundTrip(t *testing.T) {
	j := newTestJournal(t)

	entries := []Entry{
		{PID: 100, Tier: "kernel_task", SuspendedAt: time.Now().UTC().Truncate(time.Second)},
		{PID: 200, Tier: "signal", SuspendedAt: time.Now().UTC().Truncate(time.Second)},
	}
	require.NoError(t, j.Save(entries))

	loaded, err := j.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, int32(100), loaded[0].PID)
	assert.Equal(t, "kernel_task", loaded[0].Tier)
}

func TestJournalMissingFileIsEmpty(t *testing.T) {
	j := newTestJournal(t)

	entries, err := j.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournalClear(t *testing.T) {
	j := newTestJournal(t)
	require.NoError(t, j.Save([]Entry{{PID: 100, Tier: "virtual"}}))
	require.NoError(t, j.Clear())

	entries, err := j.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestControllerPersistsJournal(t *testing.T) {
	j := newTestJournal(t)
	c := NewController(&fakeFreezer{}, &fakeSignaler{}, j, logging.NewNop(), monitoring.NewMetrics())

	c.Suspend(1234)

	entries, err := j.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int32(1234), entries[0].PID)
	assert.Equal(t, "kernel_task", entries[0].Tier)

	c.Resume(1234)

	entries, err = j.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecoverReplaysAndClears(t *testing.T) {
	j := newTestJournal(t)
	require.NoError(t, j.Save([]Entry{
		{PID: 100, Tier: "kernel_task", SuspendedAt: time.Now()},
		{PID: 200, Tier: "signal", SuspendedAt: time.Now()},
		{PID: 300, Tier: "virtual", SuspendedAt: time.Now()},
	}))

	freezer := &fakeFreezer{}
	signals := &fakeSignaler{}
	c := NewController(freezer, signals, j, logging.NewNop(), monitoring.NewMetrics())

	c.Recover()

	// Kernel entry gets a thaw attempt plus a continue; signal entry a
	// continue; virtual entry nothing.
	require.Len(t, freezer.handles, 1)
	assert.Equal(t, 1, freezer.handles[0].thawCalls)
	assert.Equal(t, 1, freezer.handles[0].releaseCalls)
	assert.ElementsMatch(t, []int32{100, 200}, signals.contCalls)

	entries, err := j.Load()
	require.NoError(t, err)
	assert.Empty(t, entries, "recovery must clear the journal")
}

func TestRecoverSurvivesDeadProcesses(t *testing.T) {
	j := newTestJournal(t)
	require.NoError(t, j.Save([]Entry{{PID: 100, Tier: "signal", SuspendedAt: time.Now()}}))

	signals := &fakeSignaler{contErr: errors.New("no such process")}
	c := NewController(&fakeFreezer{acquireErr: errors.New("gone")}, signals, j, logging.NewNop(), monitoring.NewMetrics())

	c.Recover() // must not panic or error out

	entries, err := j.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
