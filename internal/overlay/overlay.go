// Copyright 2025 James Ross

// Package overlay implements the offscreen RGBA canvas plugins draw into,
// presented through a host-supplied render callback and queryable through a
// host-supplied screenshot producer.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"sync"

	"github.com/flyingrobots/emu-plugin-host/internal/hostapi"
)

// Resolution is a docked/undocked canvas size pair.
type Resolution struct {
	Width  int
	Height int
}

// RenderFunc presents the canvas; ScreenshotFunc asks the host for a raw
// frame to re-encode. Both are optional — a nil slot is simply a no-op.
type RenderFunc func(*image.RGBA)
type ScreenshotFunc func() ([]byte, error)

// Surface is the overlay canvas, recreated whenever the dock state changes.
type Surface struct {
	mu sync.Mutex

	docked   Resolution
	undocked Resolution
	isDocked func() bool
	running  func() bool

	canvas       *image.RGBA
	lastDockMode bool
	initialized  bool

	render     RenderFunc
	screenshot ScreenshotFunc
}

// New builds a Surface. isDocked reports the console's current dock state;
// running reports whether the guest system is powered on — overlay draw
// calls are a no-op when it is not.
func New(docked, undocked Resolution, isDocked, running func() bool, render RenderFunc, screenshot ScreenshotFunc) *Surface {
	return &Surface{
		docked:     docked,
		undocked:   undocked,
		isDocked:   isDocked,
		running:    running,
		render:     render,
		screenshot: screenshot,
	}
}

// refresh recreates the canvas when the dock state has changed since the
// last access, discarding prior contents.
func (s *Surface) refresh() {
	mode := s.isDocked != nil && s.isDocked()
	if s.initialized && mode == s.lastDockMode {
		return
	}
	res := s.undocked
	if mode {
		res = s.docked
	}
	s.canvas = image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	s.lastDockMode = mode
	s.initialized = true
}

func (s *Surface) ready() bool {
	return s.running == nil || s.running()
}

// Size returns the canvas's current width/height, recreating it first if the
// dock state changed.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	b := s.canvas.Bounds()
	return b.Dx(), b.Dy()
}

// Clear blanks the canvas to transparent black. No-op while the guest is not
// running.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return
	}
	s.refresh()
	b := s.canvas.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s.canvas.Set(x, y, color.RGBA{})
		}
	}
}

// DrawPixel writes one packed 0xRRGGBBAA pixel. No-op while the guest is not
// running, and no-op for an out-of-bounds coordinate.
func (s *Surface) DrawPixel(x, y int, rgba uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return
	}
	s.refresh()
	if !image.Pt(x, y).In(s.canvas.Bounds()) {
		return
	}
	c := color.RGBA{
		R: uint8(rgba >> 24),
		G: uint8(rgba >> 16),
		B: uint8(rgba >> 8),
		A: uint8(rgba),
	}
	s.canvas.Set(x, y, c)
}

// DrawImage decodes the image file at path and blits it onto the canvas
// with its top-left corner at (x, y). No-op while the guest is not running.
func (s *Surface) DrawImage(x, y int, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return nil
	}
	s.refresh()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("overlay: open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("overlay: decode image: %w", err)
	}

	b := img.Bounds()
	dst := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(s.canvas, dst, img, b.Min, draw.Over)
	return nil
}

// Render invokes the host-supplied present callback with the current
// canvas. No-op while the guest is not running.
func (s *Surface) Render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() || s.render == nil {
		return
	}
	s.refresh()
	s.render(s.canvas)
}

// Popup accepts a dialog request of the given kind. It displays nothing and
// passes the request on to no callback, for every kind including PopupNone.
func (s *Surface) Popup(kind hostapi.PopupKind, message string) {
	if kind == hostapi.PopupNone {
		return
	}
	// No presentation path exists for the other kinds either.
}

// Screenshot calls the host-supplied producer and then encodes the current
// overlay canvas to format ("png" or "jpeg"; anything else defaults to png).
// The producer's bytes are not part of the encoded output. Returns nil while
// the guest is not running or when no producer is set.
func (s *Surface) Screenshot(format string) ([]byte, error) {
	s.mu.Lock()
	ready := s.ready()
	producer := s.screenshot
	s.mu.Unlock()
	if !ready || producer == nil {
		return nil, nil
	}

	raw, err := producer()
	if err != nil {
		return nil, fmt.Errorf("overlay: screenshot producer: %w", err)
	}

	s.mu.Lock()
	s.refresh()
	img := s.canvas
	s.mu.Unlock()
	_ = raw // the producer's bytes are not used; only the overlay canvas is encoded

	var buf bytes.Buffer
	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("overlay: jpeg encode: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("overlay: png encode: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// SaveFile is Screenshot followed by a write to disk at path — the
// plugin-facing save-to-file variant of the raw-to-memory screenshot.
func (s *Surface) SaveFile(format, path string) error {
	data, err := s.Screenshot(format)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("overlay: write screenshot: %w", err)
	}
	return nil
}
