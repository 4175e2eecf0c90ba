// Copyright 2025 James Ross
package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

// TestVsyncNeverDrivesMainLoopParkedRecord and its Pace counterpart assert
// the tie-break invariant: each driver entry point keys solely on its own
// boundary kind.
func TestVsyncNeverDrivesMainLoopParkedRecord(t *testing.T) {
	log := zaptest.NewLogger(t)
	driver := NewDriver(log)

	r := NewRecord("plugin_a.so", "a", nil, nil, nil, nil, nil, log)
	calls := 0
	r.mainLoopFn = func() { calls++ }
	// r starts parked at main-loop boundary by construction.

	driver.Vsync([]*Record{r}, func(string) bool { return true }, func(*Record) {
		t.Fatal("unexpected teardown")
	})

	assert.Equal(t, 0, calls, "vsync driver must not run a record parked at main-loop boundary")
}

func TestPaceNeverDrivesVsyncParkedRecord(t *testing.T) {
	log := zaptest.NewLogger(t)
	driver := NewDriver(log)

	r := NewRecord("plugin_b.so", "b", nil, nil, nil, nil, nil, log)
	r.mainLoopFn = func() { r.FrameAdvance() }
	alwaysLoaded := func(string) bool { return true }

	// Drive one vsync-triggered pass so the record parks at vsync.
	r.SinglePass(TriggerVsync, alwaysLoaded)
	if !r.parkedAtVsync() {
		t.Fatal("setup failed: record did not park at vsync")
	}

	paceCalls := 0
	driver.Pace([]*Record{r}, alwaysLoaded, func(*Record) {
		paceCalls++
	})

	assert.True(t, r.parkedAtVsync(), "pace driver must not touch a record parked at vsync")
}

func TestVsyncLoopsUntilReparkOrTeardown(t *testing.T) {
	log := zaptest.NewLogger(t)
	driver := NewDriver(log)

	r := NewRecord("plugin_c.so", "c", nil, nil, nil, nil, nil, log)
	r.mainLoopFn = func() {
		r.FrameAdvance()
	}
	alwaysLoaded := func(string) bool { return true }
	// Force the record into a vsync-parked state first.
	r.SinglePass(TriggerVsync, alwaysLoaded)

	torn := false
	driver.Vsync([]*Record{r}, func(string) bool { return false }, func(rec *Record) {
		torn = true
	})

	assert.True(t, torn, "driver must tear down a record absent from the key-set at a main-loop boundary")
}
