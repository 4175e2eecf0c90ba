// Copyright 2025 James Ross

// Package dynlib opens native plugin shared libraries and resolves symbols
// out of them without cgo, via github.com/ebitengine/purego.
package dynlib

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// dlopen flags. purego exposes only the symbols it needs on Windows; on
// darwin/linux we ask the dynamic loader to resolve everything up front and
// keep symbols private to the handle, mirroring the loader this package is
// grounded on.
const (
	rtldNow   = 0x2
	rtldLocal = 0x0
)

// Library is the seam between the scheduler/abi packages and the operating
// system's dynamic loader. The production implementation wraps purego; tests
// substitute Fake so Resolve/Close can be exercised without a real
// .so/.dylib/.dll on disk.
type Library interface {
	// Resolve returns the address of symbol, or zero if the symbol is
	// absent. A missing symbol is not an error: optional
	// entrypoints as ignorable.
	Resolve(symbol string) uintptr
	// Close releases the handle. Calling Close more than once is a
	// programmer error and the second call returns an error.
	Close() error
	// Path returns the path the library was opened from.
	Path() string
}

type library struct {
	path   string
	handle uintptr

	mu     sync.Mutex
	closed bool
}

// Opener abstracts library opening so collaborators like pluginmanager.Manager
// can be unit tested with a fake Library, never touching a real dlopen.
type Opener func(path string) (Library, error)

// Open loads a plugin shared library into the process, immediately resolving
// all of its symbols (RTLD_NOW) so a malformed plugin fails at load time
// rather than at first call.
func Open(path string) (Library, error) {
	handle, err := purego.Dlopen(path, dlopenFlags())
	if err != nil {
		return nil, fmt.Errorf("dynlib: open %s: %w", path, err)
	}
	return &library{path: path, handle: handle}, nil
}

func (l *library) Resolve(symbol string) (addr uintptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0
	}
	defer func() {
		if recover() != nil {
			addr = 0
		}
	}()
	sym, err := purego.Dlsym(l.handle, symbol)
	if err != nil {
		return 0
	}
	return sym
}

func (l *library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("dynlib: already closed")
	}
	l.closed = true
	return purego.Dlclose(l.handle)
}

func (l *library) Path() string { return l.path }

func dlopenFlags() int {
	switch runtime.GOOS {
	case "darwin", "linux":
		return rtldNow | rtldLocal
	default:
		return 0
	}
}
