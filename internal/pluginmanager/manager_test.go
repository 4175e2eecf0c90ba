// Copyright 2025 James Ross
package pluginmanager

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/flyingrobots/emu-plugin-host/internal/abi"
	"github.com/flyingrobots/emu-plugin-host/internal/config"
	"github.com/flyingrobots/emu-plugin-host/internal/dynlib"
	"github.com/flyingrobots/emu-plugin-host/internal/hostapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeResolver struct {
	version    uint64
	mainLoopFn func()
	withClose  bool
	startCount int
	closeCount int
	resolveErr error
}

func (f *fakeResolver) ResolveEntryPoints(dynlib.Library) (abi.EntryPoints, error) {
	if f.resolveErr != nil {
		return abi.EntryPoints{}, f.resolveErr
	}
	var closeFn func()
	if f.withClose {
		closeFn = func() { f.closeCount++ }
	}
	mainLoop := f.mainLoopFn
	if mainLoop == nil {
		mainLoop = func() {}
	}
	return abi.EntryPoints{
		Version:  f.version,
		Start:    func() { f.startCount++ },
		MainLoop: mainLoop,
		Close:    closeFn,
	}, nil
}

func (f *fakeResolver) BindTable(dynlib.Library, map[hostapi.Slot]abi.CallbackFunc) (*hostapi.Table, error) {
	return hostapi.NewTable(), nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("nonexistent.yaml")
	require.NoError(t, err)
	cfg.PacingInterval = 10 * time.Millisecond
	return cfg
}

func fakeOpener(path string) (dynlib.Library, error) {
	return dynlib.NewFake(path, nil), nil
}

func TestLoadAdmitsPluginOnlyAfterStart(t *testing.T) {
	log := zaptest.NewLogger(t)
	resolver := &fakeResolver{version: hostapi.InterfaceVersion}
	m := New(testConfig(t), nil, nil, nil, resolver, fakeOpener, log)

	err := m.Load("plugin_test.so")
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.startCount)
	assert.Contains(t, m.List(), mustAbs(t, "plugin_test.so"))
}

func TestLoadRejectsAbiMismatch(t *testing.T) {
	log := zaptest.NewLogger(t)
	resolver := &fakeResolver{version: hostapi.InterfaceVersion + 1}
	m := New(testConfig(t), nil, nil, nil, resolver, fakeOpener, log)

	err := m.Load("plugin_bad_version.so")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAbiMismatch)
	assert.Equal(t, 0, resolver.startCount, "start must never be called on abi mismatch")
	assert.Empty(t, m.List())
	assert.Contains(t, m.LastError(), "plugin reports")
}

func TestLoadRejectsMissingEntrypoint(t *testing.T) {
	log := zaptest.NewLogger(t)
	resolver := &fakeResolver{resolveErr: &abi.ErrSymbolMissing{Symbol: "start"}}
	m := New(testConfig(t), nil, nil, nil, resolver, fakeOpener, log)

	err := m.Load("plugin_incomplete.so")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingEntrypoint)
}

func TestLoadIsIdempotentForAlreadyLoadedPath(t *testing.T) {
	log := zaptest.NewLogger(t)
	resolver := &fakeResolver{version: hostapi.InterfaceVersion}
	m := New(testConfig(t), nil, nil, nil, resolver, fakeOpener, log)

	require.NoError(t, m.Load("plugin_dup.so"))
	require.NoError(t, m.Load("plugin_dup.so"))
	assert.Equal(t, 1, resolver.startCount, "a path already in the key-set must not be re-started")
}

func TestUnloadRemovesFromKeySetOnly(t *testing.T) {
	log := zaptest.NewLogger(t)
	resolver := &fakeResolver{version: hostapi.InterfaceVersion}
	m := New(testConfig(t), nil, nil, nil, resolver, fakeOpener, log)

	require.NoError(t, m.Load("plugin_unload.so"))
	require.NoError(t, m.Unload("plugin_unload.so"))

	assert.Empty(t, m.List(), "unload erases the key-set entry immediately")
	assert.Equal(t, 0, resolver.closeCount, "teardown has not happened yet; it is boundary-only")
}

// TestPaceTearsDownUnloadedPluginAtBoundary exercises the teardown half of
// scenario 3: a plugin unloaded between two pacing passes is torn down on
// the next pass, on_close fires exactly once, driven from the scheduler
// thread, and the list-changed hook fires once.
func TestPaceTearsDownUnloadedPluginAtBoundary(t *testing.T) {
	log := zaptest.NewLogger(t)
	resolver := &fakeResolver{version: hostapi.InterfaceVersion, withClose: true, mainLoopFn: func() {}}
	m := New(testConfig(t), nil, nil, nil, resolver, fakeOpener, log)

	require.NoError(t, m.Load("plugin_teardown.so"))

	listChangedCount := 0
	m.SetHooks(Hooks{ListChanged: func([]string) { listChangedCount++ }})

	// Drive one pacing pass so the worker starts and parks at main-loop.
	m.driver.Pace(m.snapshotRecords(), m.inKeySet, m.teardown)

	require.NoError(t, m.Unload("plugin_teardown.so"))

	// Next pass observes the key is gone and tears the plugin down.
	m.driver.Pace(m.snapshotRecords(), m.inKeySet, m.teardown)

	assert.Equal(t, 1, resolver.closeCount)
	assert.Equal(t, 1, listChangedCount)
	assert.Empty(t, m.snapshotRecords())
}

func TestSetActiveStartsPacerAtMostOnce(t *testing.T) {
	log := zaptest.NewLogger(t)
	resolver := &fakeResolver{version: hostapi.InterfaceVersion}
	m := New(testConfig(t), nil, nil, nil, resolver, fakeOpener, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.SetActive(ctx, true)
	first := m.pacer
	m.SetActive(ctx, true)
	m.SetActive(ctx, true)

	assert.Same(t, first, m.pacer, "pacer must be started at most once")
	m.Close()
}

func mustAbs(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}
