// Copyright 2025 James Ross
package scheduler

import (
	"github.com/flyingrobots/emu-plugin-host/internal/obs"
	"go.uber.org/zap"
)

// Driver implements the two driver entry points: Vsync,
// invoked from the emulator's vsync event, and Pace, invoked from the
// manager's pacing goroutine. Both key solely on the boundary a record is
// currently parked at — Vsync never drives a record parked at a main-loop
// boundary and Pace never drives one parked at vsync.
type Driver struct {
	log *zap.Logger
}

// NewDriver builds a Driver. log is tagged per-call with the plugin name via
// obs.WithPlugin by the caller, not here, since Driver operates over many
// records at once.
func NewDriver(log *zap.Logger) *Driver {
	return &Driver{log: log}
}

// Vsync drives every record currently parked at a vsync boundary through as
// many main-loop passes as the plugin wishes to take before it yields back
// to the emulator by calling frame-advance again, or stops. onTeardown is
// invoked synchronously, on this goroutine, for any record whose pass
// reports that it is no longer in the intended-loaded key-set.
func (d *Driver) Vsync(records []*Record, inKeySet func(path string) bool, onTeardown func(*Record)) {
	for _, r := range records {
		if !r.parkedAtVsync() {
			continue
		}
		for {
			obs.SchedulerPasses.WithLabelValues(TriggerVsync.String()).Inc()
			if needsTeardown := r.SinglePass(TriggerVsync, inKeySet); needsTeardown {
				onTeardown(r)
				break
			}
			if r.parkedAtVsync() {
				obs.FrameAdvanceWaits.Inc()
				break
			}
			obs.MainLoopPasses.Inc()
		}
	}
}

// Pace performs exactly one pass per record currently parked at a main-loop
// boundary — the fallback that keeps plugins progressing while the emulator
// produces no vsyncs.
func (d *Driver) Pace(records []*Record, inKeySet func(path string) bool, onTeardown func(*Record)) {
	for _, r := range records {
		if !r.parkedAtMainLoop() {
			continue
		}
		obs.SchedulerPasses.WithLabelValues(TriggerMainLoopPace.String()).Inc()
		if needsTeardown := r.SinglePass(TriggerMainLoopPace, inKeySet); needsTeardown {
			onTeardown(r)
			continue
		}
		obs.MainLoopPasses.Inc()
	}
}
