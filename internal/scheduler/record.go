// Copyright 2025 James Ross

// Package scheduler implements the cooperative scheduling handshake between
// the emulator's vsync event, a plugin's dedicated worker goroutine, and a
// fallback pacing goroutine. See doc.go for the invariants this package
// must uphold.
package scheduler

import (
	"sync"

	"github.com/flyingrobots/emu-plugin-host/internal/dynlib"
	"github.com/flyingrobots/emu-plugin-host/internal/hostapi"
	"go.uber.org/zap"
)

// bootState is the worker-parked state, replacing the source design's
// separate processed_main_loop/encountered_vsync booleans with one
// atomically-observed enum guarded by Record.mu.
type bootState int32

const (
	stateRunning bootState = iota
	stateParkedVsync
	stateParkedMainLoop
)

// TriggerKind identifies which driver entry point invoked a pass, used only
// for metrics labeling — the selection logic that decides whether a record
// is eligible lives in the driver, not here.
type TriggerKind int

const (
	TriggerVsync TriggerKind = iota
	TriggerMainLoopPace
)

func (k TriggerKind) String() string {
	if k == TriggerVsync {
		return "vsync"
	}
	return "pace"
}

// Record is the per-plugin cooperative state: library handle, worker
// goroutine, and the rendezvous primitives the worker and the scheduler
// driver pass a baton through. One Record per loaded plugin, owned
// exclusively by internal/pluginmanager.Manager.
type Record struct {
	Path string
	Name string

	lib        dynlib.Library
	mainLoopFn func()
	closeFn    func() // optional; nil when the plugin exports no on_close

	system     hostapi.EmuFacade // non-owning
	hidFactory func() hostapi.HIDFacade

	mu    sync.Mutex
	cv    *sync.Cond
	ready bool
	// parked is true exactly when the worker sits at a boundary awaiting
	// ready; state then names which boundary. parked is false while the
	// worker is actively executing plugin code (state == stateRunning).
	parked        bool
	state         bootState
	stopRequested bool
	started       bool
	wg            sync.WaitGroup

	hidOnce sync.Once
	hid     hostapi.HIDFacade

	log *zap.Logger
}

// NewRecord builds a Record in its initial parked-at-main-loop-boundary
// state (parked_initial in spec terms; treated the same as a completed
// main-loop pass since a key-set check at the first pass is valid).
func NewRecord(path, name string, lib dynlib.Library, mainLoopFn, closeFn func(), system hostapi.EmuFacade, hidFactory func() hostapi.HIDFacade, log *zap.Logger) *Record {
	r := &Record{
		Path:       path,
		Name:       name,
		lib:        lib,
		mainLoopFn: mainLoopFn,
		closeFn:    closeFn,
		system:     system,
		hidFactory: hidFactory,
		parked:     true,
		state:      stateParkedMainLoop,
		log:        log,
	}
	r.cv = sync.NewCond(&r.mu)
	return r
}

// Lib returns the dynamic library handle so teardown can close it once the
// worker has joined.
func (r *Record) Lib() dynlib.Library { return r.lib }

// HID returns the lazily-acquired HID facade, or nil if the guest process
// has never been observed running. Call sites in internal/abi must
// nil-check the result.
func (r *Record) HID() hostapi.HIDFacade {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hid
}

func (r *Record) ensureWorker() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.wg.Add(1)
	r.mu.Unlock()
	go r.workerLoop()
}

func (r *Record) ensureHID() {
	if r.system == nil || r.hidFactory == nil || !r.system.IsRunning() {
		return
	}
	r.hidOnce.Do(func() {
		hid := r.hidFactory()
		r.mu.Lock()
		r.hid = hid
		r.mu.Unlock()
	})
}

func (r *Record) parkedAtVsync() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parked && r.state == stateParkedVsync
}

func (r *Record) parkedAtMainLoop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parked && r.state == stateParkedMainLoop
}

// FrameAdvance is the only suspension point inside plugin code: it parks the
// worker at a vsync boundary and blocks until the scheduler sets ready
// again. internal/abi's yuzu_frame_advance callback invokes this directly.
func (r *Record) FrameAdvance() {
	r.mu.Lock()
	r.state = stateParkedVsync
	r.parked = true
	r.cv.Signal()
	for !r.ready {
		r.cv.Wait()
	}
	r.ready = false
	r.parked = false
	r.state = stateRunning
	r.mu.Unlock()
}

func (r *Record) workerLoop() {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		for !r.ready {
			r.cv.Wait()
		}
		r.ready = false
		r.parked = false
		r.state = stateRunning
		stop := r.stopRequested
		r.mu.Unlock()

		if stop {
			r.mu.Lock()
			r.state = stateParkedMainLoop
			r.parked = true
			r.cv.Signal()
			r.mu.Unlock()
			return
		}

		r.mainLoopFn()

		r.mu.Lock()
		r.state = stateParkedMainLoop
		r.parked = true
		r.cv.Signal()
		r.mu.Unlock()
	}
}

// SinglePass is the scheduler driver's single-pass operation: it lazily
// starts the worker and HID facade, hands the baton to the worker, and
// waits for it to park again. When the worker parks at a
// main-loop boundary and inKeySet reports the plugin is no longer intended
// to run, SinglePass requests the worker's eventual stop and reports that
// teardown is needed; the caller is responsible for queuing the record and
// draining it at a boundary.
func (r *Record) SinglePass(trigger TriggerKind, inKeySet func(path string) bool) (needsTeardown bool) {
	r.ensureWorker()
	r.ensureHID()

	r.mu.Lock()
	r.ready = true
	r.parked = false
	r.state = stateRunning
	r.cv.Signal()
	for !r.parked {
		r.cv.Wait()
	}
	atMainLoopBoundary := r.state == stateParkedMainLoop
	if atMainLoopBoundary && !inKeySet(r.Path) {
		r.stopRequested = true
		needsTeardown = true
	}
	r.mu.Unlock()
	return needsTeardown
}

// RequestStopAndJoin wakes a parked worker into its exiting transition and
// blocks until the worker goroutine has returned. Must only be called once
// SinglePass has reported needsTeardown for this record, and only from the
// scheduler thread (never from the worker itself).
func (r *Record) RequestStopAndJoin() {
	r.mu.Lock()
	r.stopRequested = true
	r.ready = true
	r.cv.Signal()
	r.mu.Unlock()
	r.wg.Wait()
}

// CloseFn returns the plugin's optional on_close entry point.
func (r *Record) CloseFn() func() { return r.closeFn }
