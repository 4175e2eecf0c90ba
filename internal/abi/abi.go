// Copyright 2025 James Ross

// Package abi resolves a plugin's exported entry points, and publishes
// callable addresses into the plugin's host-API pointer slots, bridging
// internal/hostapi's Go-shaped collaborator interfaces onto the C ABI a
// native plugin expects.
package abi

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/flyingrobots/emu-plugin-host/internal/dynlib"
	"github.com/flyingrobots/emu-plugin-host/internal/hostapi"
)

// EntryPoints holds the four plugin-exported symbols the host calls
// directly. Close is nil when the plugin exports no on_close.
type EntryPoints struct {
	Version  uint64
	Start    func()
	MainLoop func()
	Close    func()
}

// ErrSymbolMissing is returned when a required plugin-exported symbol
// cannot be resolved.
type ErrSymbolMissing struct{ Symbol string }

func (e *ErrSymbolMissing) Error() string {
	return fmt.Sprintf("abi: required symbol %q not exported", e.Symbol)
}

// Resolver is the seam between internal/pluginmanager and the actual ABI
// machinery, so Manager.Load can be unit tested with a fake that never
// touches purego or a real shared library.
type Resolver interface {
	ResolveEntryPoints(lib dynlib.Library) (EntryPoints, error)
	BindTable(lib dynlib.Library, cbs map[hostapi.Slot]CallbackFunc) (*hostapi.Table, error)
}

// PuregoResolver is the production Resolver, grounded on purego's
// RegisterFunc (call a known C address from Go) and NewCallback (call a Go
// function from C) — the cgo-free FFI primitives this module standardizes
// on for dynamic plugin loading.
type PuregoResolver struct{}

// NewPuregoResolver returns the production ABI resolver.
func NewPuregoResolver() *PuregoResolver { return &PuregoResolver{} }

func (PuregoResolver) ResolveEntryPoints(lib dynlib.Library) (EntryPoints, error) {
	verAddr := lib.Resolve("get_plugin_interface_version")
	if verAddr == 0 {
		return EntryPoints{}, &ErrSymbolMissing{Symbol: "get_plugin_interface_version"}
	}
	startAddr := lib.Resolve("start")
	if startAddr == 0 {
		return EntryPoints{}, &ErrSymbolMissing{Symbol: "start"}
	}
	mainLoopAddr := lib.Resolve("on_main_loop")
	if mainLoopAddr == 0 {
		return EntryPoints{}, &ErrSymbolMissing{Symbol: "on_main_loop"}
	}
	closeAddr := lib.Resolve("on_close") // optional

	var getVersion func() uint64
	purego.RegisterFunc(&getVersion, verAddr)
	var start func()
	purego.RegisterFunc(&start, startAddr)
	var mainLoop func()
	purego.RegisterFunc(&mainLoop, mainLoopAddr)

	var closeFn func()
	if closeAddr != 0 {
		purego.RegisterFunc(&closeFn, closeAddr)
	}

	return EntryPoints{
		Version:  getVersion(),
		Start:    start,
		MainLoop: mainLoop,
		Close:    closeFn,
	}, nil
}

// BindTable resolves each hostapi.Slot's well-known pointer-to-function-
// pointer symbol in the plugin's own symbol table and, when present, writes
// the Go callback's C-callable address into it via purego.NewCallback.
// Missing slots are ignored.
func (PuregoResolver) BindTable(lib dynlib.Library, cbs map[hostapi.Slot]CallbackFunc) (*hostapi.Table, error) {
	table := hostapi.NewTable()
	for slot, fn := range cbs {
		slotAddr := lib.Resolve(string(slot))
		if slotAddr == 0 {
			continue // plugin doesn't declare this slot; skip it
		}
		cbAddr := purego.NewCallback(fn)
		*(*uintptr)(unsafe.Pointer(slotAddr)) = cbAddr
		table.Set(slot, cbAddr)
	}
	return table, nil
}
