// Copyright 2025 James Ross

// Package emuhost provides a self-contained stand-in for the emulator
// kernel, so cmd/plugin-host can load and drive plugins without a real
// console core attached. A production embedding application supplies its
// own hostapi.EmuFacade/HIDFacade backed by its actual memory and input
// subsystems; this package exists only to make the host runnable and
// demonstrable on its own.
package emuhost

import (
	"context"
	"sync"
	"time"

	"github.com/flyingrobots/emu-plugin-host/internal/hostapi"
	"go.uber.org/zap"
)

// Stub is an in-memory EmuFacade: a flat byte slice stands in for guest
// memory, and frame count and clock advance once per FrameAdvance call, each
// of which waits one fixed frame interval rather than a real console's vsync.
type Stub struct {
	mu      sync.RWMutex
	running bool
	fps     float64
	memory  []byte
	frames  uint64
	ticks   uint64
	log     *zap.Logger
}

// NewStub builds a Stub with a guest address space of memSize bytes,
// initially stopped.
func NewStub(memSize int, fps float64, log *zap.Logger) *Stub {
	return &Stub{
		fps:    fps,
		memory: make([]byte, memSize),
		log:    log,
	}
}

func (s *Stub) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Stub) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *Stub) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

// FrameAdvance blocks for one simulated frame interval, or until ctx is
// done, advancing the frame/clock counters. This is the stand-in for the
// real emulator's vsync wait.
func (s *Stub) FrameAdvance(ctx context.Context) {
	interval := time.Duration(float64(time.Second) / s.fps)
	select {
	case <-time.After(interval):
	case <-ctx.Done():
	}
	s.mu.Lock()
	s.frames++
	s.ticks += uint64(interval)
	s.mu.Unlock()
}

func (s *Stub) FrameCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

func (s *Stub) FPS() float64 { return s.fps }

func (s *Stub) IsEmulating() bool { return s.IsRunning() }

func (s *Stub) ProgramID() string { return "0000000000000000" }

func (s *Stub) HeapRegion() hostapi.Region {
	return hostapi.Region{Start: 0, Size: uint64(len(s.memory)) / 2}
}

func (s *Stub) MainRegion() hostapi.Region {
	return hostapi.Region{Start: uint64(len(s.memory)) / 2, Size: uint64(len(s.memory)) / 4}
}

func (s *Stub) StackRegion() hostapi.Region {
	return hostapi.Region{Start: uint64(len(s.memory)) * 3 / 4, Size: uint64(len(s.memory)) / 4}
}

func (s *Stub) ReadMemory(addr uint64, out []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if addr+uint64(len(out)) > uint64(len(s.memory)) {
		return false
	}
	copy(out, s.memory[addr:addr+uint64(len(out))])
	return true
}

func (s *Stub) WriteMemory(addr uint64, in []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr+uint64(len(in)) > uint64(len(s.memory)) {
		return false
	}
	copy(s.memory[addr:addr+uint64(len(in))], in)
	return true
}

func (s *Stub) ClockTicks() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

func (s *Stub) CPUTicks() uint64 { return s.ClockTicks() }

func (s *Stub) Log(severity hostapi.Severity, plugin, message string) {
	fields := []zap.Field{zap.String("plugin", plugin)}
	switch severity {
	case hostapi.SeverityTrace, hostapi.SeverityDebug:
		s.log.Debug(message, fields...)
	case hostapi.SeverityWarning:
		s.log.Warn(message, fields...)
	case hostapi.SeverityError:
		s.log.Error(message, fields...)
	case hostapi.SeverityCritical:
		s.log.DPanic(message, fields...)
	default:
		s.log.Info(message, fields...)
	}
}
