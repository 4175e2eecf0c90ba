// Copyright 2025 James Ross
package emuhost

import (
	"sync"

	"github.com/flyingrobots/emu-plugin-host/internal/hostapi"
)

const maxControllers = 8

type touchPoint struct {
	x, y    int32
	pressed bool
}

// StubHID is an in-memory HIDFacade paired with Stub, standing in for the
// real console's controller/keyboard/mouse/touch shared memory.
type StubHID struct {
	mu sync.Mutex

	pad       [maxControllers]uint64
	joystick  [maxControllers][4]int32
	connected [maxControllers]bool
	ctrlType  [maxControllers]int32
	handheld  bool

	keys     map[int]bool
	mods     uint32
	mouseBtn map[int]bool
	mouseX   int32
	mouseY   int32
	touches  [16]touchPoint

	gated map[string]bool
}

// NewStubHID builds an empty StubHID.
func NewStubHID() *StubHID {
	return &StubHID{
		keys:     make(map[int]bool),
		mouseBtn: make(map[int]bool),
		gated:    make(map[string]bool),
	}
}

func (h *StubHID) PadState(controller int) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pad[controller%maxControllers]
}

func (h *StubHID) SetPadState(controller int, state uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pad[controller%maxControllers] = state
}

func (h *StubHID) Joystick(controller, axis int) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.joystick[controller%maxControllers][axis%4]
}

func (h *StubHID) SetJoystick(controller, axis int, value int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joystick[controller%maxControllers][axis%4] = value
}

func (h *StubHID) SixAxis(controller int, side hostapi.JoyconSide) [6]float32 {
	return [6]float32{}
}

func (h *StubHID) SetSixAxis(controller int, side hostapi.JoyconSide, value [6]float32) {}

func (h *StubHID) Connect(controller int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected[controller%maxControllers] = true
}

func (h *StubHID) Disconnect(controller int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected[controller%maxControllers] = false
}

func (h *StubHID) SetControllerType(controller int, kind int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ctrlType[controller%maxControllers] = kind
}

func (h *StubHID) ControllerType(controller int) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctrlType[controller%maxControllers]
}

func (h *StubHID) SetHandheld(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handheld = enabled
}

func (h *StubHID) EnableController(controller int, enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected[controller%maxControllers] = enabled
}

func (h *StubHID) RequestUpdate() {}

func (h *StubHID) KeyboardKey(key int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.keys[key]
}

func (h *StubHID) SetKeyboardKey(key int, pressed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys[key] = pressed
}

func (h *StubHID) KeyboardModifiers() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mods
}

func (h *StubHID) SetKeyboardModifiers(mods uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mods = mods
}

func (h *StubHID) KeyboardRaw() []byte       { return nil }
func (h *StubHID) SetKeyboardRaw(raw []byte) {}

func (h *StubHID) MouseButton(button int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mouseBtn[button]
}

func (h *StubHID) SetMouseButton(button int, pressed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mouseBtn[button] = pressed
}

func (h *StubHID) MousePosition() (x, y int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mouseX, h.mouseY
}

func (h *StubHID) SetMousePosition(x, y int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mouseX, h.mouseY = x, y
}

func (h *StubHID) MouseRaw() []byte       { return nil }
func (h *StubHID) SetMouseRaw(raw []byte) {}

func (h *StubHID) TouchCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, t := range h.touches {
		if t.pressed {
			n++
		}
	}
	return n
}

func (h *StubHID) Touch(slot int) (x, y int32, pressed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.touches[slot%len(h.touches)]
	return t.x, t.y, t.pressed
}

func (h *StubHID) SetTouch(slot int, x, y int32, pressed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.touches[slot%len(h.touches)] = touchPoint{x: x, y: y, pressed: pressed}
}

func (h *StubHID) SetOutsideInputGated(peripheral string, gated bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gated[peripheral] = gated
}
