package suspend

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headroom-sh/headroom/internal/infrastructure/monitoring"
	"github.com/headroom-sh/headroom/internal/logging"
)

// fakeHandle records freeze/thaw/release calls and can fail each one.
type fakeHandle struct {
	frozen       bool
	freezeCalls  int
	thawCalls    int
	releaseCalls int
	freezeErr    error
	thawErr      error
	releaseErr   error
}

func (h *fakeHandle) Freeze() error {
	h.freezeCalls++
	if h.freezeErr != nil {
		return h.freezeErr
	}
	h.frozen = true
	return nil
}

func (h *fakeHandle) Thaw() error {
	h.thawCalls++
	if h.thawErr != nil {
		return h.thawErr
	}
	h.frozen = false
	return nil
}

func (h *fakeHandle) Release() error {
	h.releaseCalls++
	return h.releaseErr
}

// fakeFreezer hands out fakeHandles, failing acquisition on demand.
type fakeFreezer struct {
	acquireErr   error
	acquireCalls int
	handles      []*fakeHandle
	nextHandle   func() *fakeHandle
}

func (f *fakeFreezer) Acquire(pid int32) (FreezeHandle, error) {
	f.acquireCalls++
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	h := &fakeHandle{}
	if f.nextHandle != nil {
		h = f.nextHandle()
	}
	f.handles = append(f.handles, h)
	return h, nil
}

// fakeSignaler records signal deliveries and can fail each operation.
type fakeSignaler struct {
	stopErr     error
	contErr     error
	stopped     map[int32]bool
	stoppedErr  error
	stopCalls   []int32
	contCalls   []int32
}

func (s *fakeSignaler) Stop(pid int32) error {
	s.stopCalls = append(s.stopCalls, pid)
	return s.stopErr
}

func (s *fakeSignaler) Continue(pid int32) error {
	s.contCalls = append(s.contCalls, pid)
	return s.contErr
}

func (s *fakeSignaler) Stopped(pid int32) (bool, error) {
	if s.stoppedErr != nil {
		return false, s.stoppedErr
	}
	return s.stopped[pid], nil
}

func newTestController(freezer Freezer, signals Signaler) *Controller {
	return NewController(freezer, signals, nil, logging.NewNop(), monitoring.NewMetrics())
}

func TestSuspendKernelTier(t *testing.T) {
	freezer := &fakeFreezer{}
	signals := &fakeSignaler{}
	c := newTestController(freezer, signals)

	out := c.Suspend(1234)

	assert.Equal(t, TierKernelTask, out.Tier)
	assert.False(t, out.AlreadySuspended)
	require.Len(t, freezer.handles, 1)
	assert.True(t, freezer.handles[0].frozen)
	assert.Empty(t, signals.stopCalls, "signal tier must not run when kernel tier holds")
	assert.True(t, c.IsSuspended(1234))
}

func TestSuspendFallsToSignalTier(t *testing.T) {
	freezer := &fakeFreezer{acquireErr: errors.New("permission denied")}
	signals := &fakeSignaler{}
	c := newTestController(freezer, signals)

	out := c.Suspend(1234)

	assert.Equal(t, TierSignal, out.Tier)
	assert.Equal(t, []int32{1234}, signals.stopCalls)
}

func TestSuspendFreezeFailureReleasesHandle(t *testing.T) {
	freezer := &fakeFreezer{nextHandle: func() *fakeHandle {
		return &fakeHandle{freezeErr: errors.New("EBUSY")}
	}}
	signals := &fakeSignaler{}
	c := newTestController(freezer, signals)

	out := c.Suspend(1234)

	assert.Equal(t, TierSignal, out.Tier)
	require.Len(t, freezer.handles, 1)
	assert.Equal(t, 1, freezer.handles[0].releaseCalls, "failed freeze must not leak its handle")
}

func TestSuspendFallsToVirtualTier(t *testing.T) {
	freezer := &fakeFreezer{acquireErr: errors.New("permission denied")}
	signals := &fakeSignaler{stopErr: errors.New("no such process")}
	c := newTestController(freezer, signals)

	out := c.Suspend(1234)

	assert.Equal(t, TierVirtual, out.Tier)
	assert.True(t, c.IsSuspended(1234), "virtual suspension is tracked")
}

func TestSuspendIsTotal(t *testing.T) {
	// Every combination of injected failures still yields a tracked
	// suspension; there is no failure outcome.
	combos := []struct {
		name    string
		freezer *fakeFreezer
		signals *fakeSignaler
		tier    Tier
	}{
		{"all tiers healthy", &fakeFreezer{}, &fakeSignaler{}, TierKernelTask},
		{"acquire fails", &fakeFreezer{acquireErr: errors.New("x")}, &fakeSignaler{}, TierSignal},
		{"freeze fails", &fakeFreezer{nextHandle: func() *fakeHandle { return &fakeHandle{freezeErr: errors.New("x")} }}, &fakeSignaler{}, TierSignal},
		{"acquire and stop fail", &fakeFreezer{acquireErr: errors.New("x")}, &fakeSignaler{stopErr: errors.New("y")}, TierVirtual},
		{"freeze and stop fail", &fakeFreezer{nextHandle: func() *fakeHandle { return &fakeHandle{freezeErr: errors.New("x")} }}, &fakeSignaler{stopErr: errors.New("y")}, TierVirtual},
	}

	for _, tt := range combos {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(tt.freezer, tt.signals)
			out := c.Suspend(99)
			assert.Equal(t, tt.tier, out.Tier)
			assert.True(t, c.IsSuspended(99))
		})
	}
}

func TestSuspendIdempotent(t *testing.T) {
	freezer := &fakeFreezer{}
	signals := &fakeSignaler{}
	c := newTestController(freezer, signals)

	first := c.Suspend(1234)
	second := c.Suspend(1234)

	assert.False(t, first.AlreadySuspended)
	assert.True(t, second.AlreadySuspended)
	assert.Equal(t, first.Tier, second.Tier)
	assert.Equal(t, 1, freezer.acquireCalls, "second suspend must not re-acquire a handle")
	assert.Len(t, c.Suspended(), 1)
}

func TestResumeUntrackedIsNoop(t *testing.T) {
	signals := &fakeSignaler{}
	c := newTestController(&fakeFreezer{}, signals)

	assert.False(t, c.Resume(9999))
	assert.Empty(t, signals.contCalls)
}

func TestRoundTripAllTiers(t *testing.T) {
	tests := []struct {
		name    string
		freezer *fakeFreezer
		signals *fakeSignaler
	}{
		{"kernel tier", &fakeFreezer{}, &fakeSignaler{}},
		{"signal tier", &fakeFreezer{acquireErr: errors.New("denied")}, &fakeSignaler{}},
		{"virtual tier", &fakeFreezer{acquireErr: errors.New("denied")}, &fakeSignaler{stopErr: errors.New("gone")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(tt.freezer, tt.signals)
			c.Suspend(1234)
			assert.True(t, c.Resume(1234))
			assert.Empty(t, c.Suspended(), "round trip must leave the map empty")
			assert.False(t, c.IsSuspended(1234))
		})
	}
}

func TestResumeKernelTierThawsAndReleases(t *testing.T) {
	freezer := &fakeFreezer{}
	signals := &fakeSignaler{}
	c := newTestController(freezer, signals)

	c.Suspend(1234)
	c.Resume(1234)

	h := freezer.handles[0]
	assert.Equal(t, 1, h.thawCalls)
	assert.Equal(t, 1, h.releaseCalls)
	assert.Empty(t, signals.contCalls, "healthy thaw needs no signal fallback")
}

func TestResumeThawFailureReleasesAndFallsBackToSignal(t *testing.T) {
	freezer := &fakeFreezer{nextHandle: func() *fakeHandle {
		return &fakeHandle{thawErr: errors.New("EIO")}
	}}
	signals := &fakeSignaler{}
	c := newTestController(freezer, signals)

	c.Suspend(1234)
	c.Resume(1234)

	h := freezer.handles[0]
	assert.Equal(t, 1, h.releaseCalls, "handle must be released even when thaw fails")
	assert.Equal(t, []int32{1234}, signals.contCalls, "thaw failure falls back to SIGCONT")
	assert.Empty(t, c.Suspended())
}

func TestResumeSignalTierSendsContinue(t *testing.T) {
	freezer := &fakeFreezer{acquireErr: errors.New("denied")}
	signals := &fakeSignaler{}
	c := newTestController(freezer, signals)

	c.Suspend(1234)
	c.Resume(1234)

	assert.Equal(t, []int32{1234}, signals.contCalls)
}

func TestResumeVirtualTierMakesNoOSCalls(t *testing.T) {
	freezer := &fakeFreezer{acquireErr: errors.New("denied")}
	signals := &fakeSignaler{stopErr: errors.New("gone")}
	c := newTestController(freezer, signals)

	c.Suspend(1234)
	c.Resume(1234)

	assert.Empty(t, signals.contCalls)
	assert.Empty(t, c.Suspended())
}

func TestIsSuspendedReconcilesWithOSState(t *testing.T) {
	signals := &fakeSignaler{stopped: map[int32]bool{777: true}}
	c := newTestController(&fakeFreezer{}, signals)

	// Stopped by means outside the controller.
	assert.True(t, c.IsSuspended(777))
	// Untracked and running.
	assert.False(t, c.IsSuspended(778))
	// OS query failure degrades to "not suspended".
	signals.stoppedErr = errors.New("query failed")
	assert.False(t, c.IsSuspended(777))

	// Reconciliation never mutates the map.
	assert.Empty(t, c.Suspended())
}

func TestResumeOlderThan(t *testing.T) {
	freezer := &fakeFreezer{}
	signals := &fakeSignaler{}
	c := newTestController(freezer, signals)

	c.Suspend(100)
	c.Suspend(200)

	// Age the first record by hand.
	c.mu.Lock()
	c.records[100].SuspendedAt = time.Now().Add(-time.Hour)
	c.mu.Unlock()

	resumed := c.ResumeOlderThan(30 * time.Minute)

	require.Len(t, resumed, 1)
	assert.Equal(t, int32(100), resumed[0].PID)
	assert.Len(t, c.Suspended(), 1)
	assert.True(t, c.IsSuspended(200))
}

func TestShutdownResumesEverything(t *testing.T) {
	freezer := &fakeFreezer{}
	signals := &fakeSignaler{}
	c := newTestController(freezer, signals)

	c.Suspend(100)
	c.Suspend(200)
	c.Shutdown()

	assert.Empty(t, c.Suspended())
	for _, h := range freezer.handles {
		assert.Equal(t, 1, h.releaseCalls, "shutdown must release every handle")
	}
}

func TestSuspendedSnapshotSorted(t *testing.T) {
	c := newTestController(&fakeFreezer{}, &fakeSignaler{})

	c.Suspend(300)
	c.Suspend(100)
	c.Suspend(200)

	recs := c.Suspended()
	require.Len(t, recs, 3)
	assert.Equal(t, int32(100), recs[0].PID)
	assert.Equal(t, int32(200), recs[1].PID)
	assert.Equal(t, int32(300), recs[2].PID)
}
