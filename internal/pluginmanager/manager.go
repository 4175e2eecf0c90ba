// Copyright 2025 James Ross

// Package pluginmanager owns the set of loaded plugins: activation, load,
// unload, enumeration, and the last-error buffer an external UI reads.
package pluginmanager

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/flyingrobots/emu-plugin-host/internal/abi"
	"github.com/flyingrobots/emu-plugin-host/internal/config"
	"github.com/flyingrobots/emu-plugin-host/internal/dynlib"
	"github.com/flyingrobots/emu-plugin-host/internal/hostapi"
	"github.com/flyingrobots/emu-plugin-host/internal/obs"
	"github.com/flyingrobots/emu-plugin-host/internal/overlay"
	"github.com/flyingrobots/emu-plugin-host/internal/scheduler"
	"go.uber.org/zap"
)

// Hooks are the external callback slots a toggle-GUI registers.
type Hooks struct {
	ListChanged func(loaded []string)
}

// Manager is the lifecycle owner for every loaded plugin: a mutex-guarded
// slice and key-set, a zap logger, and a Start/Stop-style lifecycle around
// the scheduler handshake in internal/scheduler.
type Manager struct {
	mu      sync.Mutex
	records []*scheduler.Record
	keySet  map[string]struct{}
	pending []*scheduler.Record

	active       atomic.Bool
	activateOnce sync.Once
	pacer        *scheduler.Pacer
	driver       *scheduler.Driver
	pacerCancel  context.CancelFunc

	overlaySurface *overlay.Surface
	hooks          Hooks

	lastErr atomic.Pointer[string]

	system     hostapi.EmuFacade
	hidFactory func() hostapi.HIDFacade
	resolver   abi.Resolver
	open       dynlib.Opener

	log *zap.Logger
	cfg *config.Config
}

// New builds a Manager. resolver and open are the ABI/dynlib seams — pass
// abi.NewPuregoResolver() and dynlib.Open in production, fakes in tests, so
// Load/Unload are exercisable without a real shared library.
func New(cfg *config.Config, system hostapi.EmuFacade, hidFactory func() hostapi.HIDFacade, surface *overlay.Surface, resolver abi.Resolver, open dynlib.Opener, log *zap.Logger) *Manager {
	return &Manager{
		keySet:         make(map[string]struct{}),
		driver:         scheduler.NewDriver(log),
		overlaySurface: surface,
		system:         system,
		hidFactory:     hidFactory,
		resolver:       resolver,
		open:           open,
		log:            log,
		cfg:            cfg,
	}
}

// SetHooks registers the external GUI's callback slots.
func (m *Manager) SetHooks(h Hooks) {
	m.mu.Lock()
	m.hooks = h
	m.mu.Unlock()
}

func (m *Manager) setLastErr(err error) {
	if err == nil {
		return
	}
	s := err.Error()
	m.lastErr.Store(&s)
}

// LastError returns the most recent load failure as formatted text — the
// only shape that crosses the C ABI boundary.
func (m *Manager) LastError() string {
	if p := m.lastErr.Load(); p != nil {
		return *p
	}
	return ""
}

// Load opens a plugin, validates its ABI, binds the host API table, calls
// start exactly once, and only then admits it into the key-set — mirroring
// that ordering exactly.
func (m *Manager) Load(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		wrapped := fmt.Errorf("%w: %s: %v", ErrLoadFailure, path, err)
		m.setLastErr(wrapped)
		obs.PluginLoadFailures.Inc()
		return wrapped
	}

	m.mu.Lock()
	if _, ok := m.keySet[abs]; ok {
		m.mu.Unlock()
		return nil // already loaded; load is idempotent on an enabled plugin
	}
	m.mu.Unlock()

	lib, err := m.open(abs)
	if err != nil {
		wrapped := fmt.Errorf("%w: %s: %v", ErrLoadFailure, abs, err)
		m.setLastErr(wrapped)
		obs.PluginLoadFailures.Inc()
		return wrapped
	}

	entry, err := m.resolver.ResolveEntryPoints(lib)
	if err != nil {
		_ = lib.Close()
		var wrapped error
		if _, ok := err.(*abi.ErrSymbolMissing); ok {
			wrapped = fmt.Errorf("%w: %s: %v", ErrMissingEntrypoint, abs, err)
		} else {
			wrapped = fmt.Errorf("%w: %s: %v", ErrLoadFailure, abs, err)
		}
		m.setLastErr(wrapped)
		obs.PluginLoadFailures.Inc()
		return wrapped
	}

	if entry.Version != hostapi.InterfaceVersion {
		_ = lib.Close()
		wrapped := fmt.Errorf("%w: %s: plugin reports %d, host requires %d", ErrAbiMismatch, abs, entry.Version, hostapi.InterfaceVersion)
		m.setLastErr(wrapped)
		obs.PluginLoadFailures.Inc()
		return wrapped
	}

	name := filepath.Base(abs)
	record := scheduler.NewRecord(abs, name, lib, entry.MainLoop, entry.Close, m.system, m.hidFactory, obs.WithPlugin(m.log, name))

	builder := abi.NewBuilder(record, m.system, m.overlaySurface)
	if _, err := m.resolver.BindTable(lib, builder.Build()); err != nil {
		_ = lib.Close()
		wrapped := fmt.Errorf("%w: %s: bind host api: %v", ErrLoadFailure, abs, err)
		m.setLastErr(wrapped)
		obs.PluginLoadFailures.Inc()
		return wrapped
	}

	entry.Start()

	m.mu.Lock()
	m.keySet[abs] = struct{}{}
	m.records = append(m.records, record)
	listChanged := m.hooks.ListChanged
	loaded := m.loadedPathsLocked()
	m.mu.Unlock()

	obs.PluginsLoaded.Inc()
	m.log.Info("plugin loaded", obs.String("path", abs), obs.String("name", name))
	if listChanged != nil {
		listChanged(loaded)
	}
	return nil
}

// Unload erases path from the key-set. The scheduler completes teardown the
// next time that plugin's worker parks at a main-loop boundary — never
// synchronously.
func (m *Manager) Unload(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLoadFailure, path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keySet[abs]; !ok {
		return fmt.Errorf("plugin: %s not loaded", abs)
	}
	delete(m.keySet, abs)
	return nil
}

// List returns the key-set under the manager's lock — the intended-loaded
// set, not necessarily the set of records still tearing down.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadedPathsLocked()
}

func (m *Manager) loadedPathsLocked() []string {
	paths := make([]string, 0, len(m.keySet))
	for p := range m.keySet {
		paths = append(paths, p)
	}
	return paths
}

func (m *Manager) inKeySet(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keySet[path]
	return ok
}

func (m *Manager) snapshotRecords() []*scheduler.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*scheduler.Record, len(m.records))
	copy(out, m.records)
	return out
}

// SetActive flips the active flag. On the 0→1 transition it starts the
// pacing goroutine, at most once, guarded by a sync.Once rather than a
// plain bool so repeated SetActive(true) calls are race-free. SetActive
// never touches the key-set — see DESIGN.md's Open Question resolution.
func (m *Manager) SetActive(ctx context.Context, active bool) {
	m.active.Store(active)
	if !active {
		return
	}
	m.activateOnce.Do(func() {
		pacerCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		m.pacerCancel = func() {
			cancel()
			<-done
		}
		m.pacer = scheduler.NewPacer(m.cfg.PacingInterval, m.driver, m.log)
		go func() {
			defer close(done)
			m.pacer.Run(pacerCtx, m.snapshotRecords, m.inKeySet, m.teardown)
		}()
	})
}

// Vsync drives every plugin worker currently parked at a vsync boundary.
// The embedding application calls this from the emulator's vsync event.
func (m *Manager) Vsync() {
	m.driver.Vsync(m.snapshotRecords(), m.inKeySet, m.teardown)
}

// teardown runs on the scheduler thread, never the worker: it invokes the
// plugin's optional close handle, waits for the worker to exit, closes the
// library, removes the record, and notifies the list-changed hook.
func (m *Manager) teardown(r *scheduler.Record) {
	if closeFn := r.CloseFn(); closeFn != nil {
		closeFn()
	}
	r.RequestStopAndJoin()
	_ = r.Lib().Close()

	m.mu.Lock()
	for i, rec := range m.records {
		if rec == r {
			m.records = append(m.records[:i], m.records[i+1:]...)
			break
		}
	}
	listChanged := m.hooks.ListChanged
	loaded := m.loadedPathsLocked()
	m.mu.Unlock()

	obs.PluginsLoaded.Dec()
	obs.TeardownsCompleted.Inc()
	m.log.Info("plugin unloaded", obs.String("path", r.Path))
	if listChanged != nil {
		listChanged(loaded)
	}
}

// Close stops the pacing goroutine and joins it. Outstanding plugin workers
// are expected to have already been removed through the ordinary unload
// path; Close does not itself tear any of them down.
func (m *Manager) Close() {
	if m.pacerCancel != nil {
		m.pacerCancel()
	}
}
