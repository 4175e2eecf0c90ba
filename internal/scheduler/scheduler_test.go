// Copyright 2025 James Ross
package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// TestFrameAdvanceLoopScenario implements spec scenario 2: a plugin's main
// loop calls frame-advance three times then returns. Firing four
// scheduler-driven single passes should observe vsync three times then a
// main-loop completion once.
func TestFrameAdvanceLoopScenario(t *testing.T) {
	log := zaptest.NewLogger(t)

	r := NewRecord("plugin_x.so", "x", nil, nil, nil, nil, nil, log)
	r.mainLoopFn = func() {
		// Each FrameAdvance call blocks until the scheduler hands the
		// baton back, modeling three host-call suspensions before return.
		r.FrameAdvance()
		r.FrameAdvance()
		r.FrameAdvance()
	}

	alwaysLoaded := func(string) bool { return true }

	require.True(t, r.parkedAtMainLoop(), "record starts parked at a main-loop boundary")

	// Pass 1-3: each ends parked at vsync.
	for i := 0; i < 3; i++ {
		needsTeardown := r.SinglePass(TriggerVsync, alwaysLoaded)
		assert.False(t, needsTeardown)
		assert.True(t, r.parkedAtVsync(), "pass %d should park at vsync", i+1)
	}

	// Pass 4: the pending mainLoopFn call returns, parking at main-loop.
	needsTeardown := r.SinglePass(TriggerVsync, alwaysLoaded)
	assert.False(t, needsTeardown)
	assert.True(t, r.parkedAtMainLoop(), "pass 4 should park at main-loop boundary")
}

// TestParkedStateExclusivity asserts that a record observed at a
// scheduler return is parked at exactly one boundary, never both/neither.
func TestParkedStateExclusivity(t *testing.T) {
	log := zaptest.NewLogger(t)
	r := NewRecord("plugin_y.so", "y", nil, nil, nil, nil, nil, log)
	r.mainLoopFn = func() {}

	alwaysLoaded := func(string) bool { return true }
	for i := 0; i < 5; i++ {
		r.SinglePass(TriggerMainLoopPace, alwaysLoaded)
		vsync := r.parkedAtVsync()
		mainLoop := r.parkedAtMainLoop()
		assert.True(t, vsync != mainLoop, "exactly one boundary must hold, never both, never neither")
	}
}

// TestTeardownRequestedWhenKeyAbsent asserts teardown's preconditions:
// it is only ever signalled at a main-loop boundary, and only when
// the key-set no longer contains the plugin's path.
func TestTeardownRequestedWhenKeyAbsent(t *testing.T) {
	log := zaptest.NewLogger(t)
	r := NewRecord("plugin_z.so", "z", nil, nil, nil, nil, nil, log)
	r.mainLoopFn = func() {}

	notLoaded := func(string) bool { return false }
	needsTeardown := r.SinglePass(TriggerMainLoopPace, notLoaded)

	assert.True(t, needsTeardown)
	assert.True(t, r.parkedAtMainLoop(), "teardown only signalled at a main-loop boundary")
}

// TestTeardownNotRequestedAtVsyncBoundary ensures a plugin parked at vsync
// is never torn down even if absent from the key-set — teardown is
// boundary-only.
func TestTeardownNotRequestedAtVsyncBoundary(t *testing.T) {
	log := zaptest.NewLogger(t)
	r := NewRecord("plugin_w.so", "w", nil, nil, nil, nil, nil, log)
	r.mainLoopFn = func() {
		r.FrameAdvance()
	}

	notLoaded := func(string) bool { return false }
	needsTeardown := r.SinglePass(TriggerVsync, notLoaded)

	assert.False(t, needsTeardown)
	assert.True(t, r.parkedAtVsync())
}

// TestRequestStopAndJoinExitsWorker covers the "any parked -> exiting"
// transition: the worker must observe the stop request and return, letting
// the scheduler's join complete.
func TestRequestStopAndJoinExitsWorker(t *testing.T) {
	log := zaptest.NewLogger(t)
	r := NewRecord("plugin_v.so", "v", nil, nil, nil, nil, nil, log)
	r.mainLoopFn = func() {}

	alwaysLoaded := func(string) bool { return true }
	r.SinglePass(TriggerMainLoopPace, alwaysLoaded) // starts the worker

	done := make(chan struct{})
	go func() {
		r.RequestStopAndJoin()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RequestStopAndJoin did not return in time")
	}
}
