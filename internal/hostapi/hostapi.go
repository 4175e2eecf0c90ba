// Copyright 2025 James Ross

// Package hostapi defines the fixed, versioned set of function-pointer slots
// the host fills in on a plugin's symbol table, and the collaborator
// interfaces (EmuFacade, HIDFacade) those slots are ultimately backed by.
package hostapi

import "context"

// InterfaceVersion is the host's constant ABI version. A plugin is loaded
// only if get_plugin_interface_version reports exactly this value.
const InterfaceVersion uint64 = 3

// Severity is the host-side logging taxonomy a plugin's structured log calls
// are mapped onto.
type Severity int

const (
	SeverityTrace Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityTrace:
		return "trace"
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Region describes a guest address-space region's start address and byte
// length, used for the heap/main/stack region queries in the Emu control
// group.
type Region struct {
	Start uint64
	Size  uint64
}

// EmuFacade is the narrow abstract view of the emulator kernel the scheduler
// and ABI bindings are allowed to touch. Everything else about process,
// page-table, and timing internals stays out of scope.
type EmuFacade interface {
	IsRunning() bool
	Pause()
	Run()
	// FrameAdvance blocks the caller for one emulated frame. The plugin-facing
	// yuzu_frame_advance slot does not call it; that slot parks the worker
	// through scheduler.Record.FrameAdvance instead.
	FrameAdvance(ctx context.Context)
	FrameCount() uint64
	FPS() float64
	IsEmulating() bool
	ProgramID() string

	HeapRegion() Region
	MainRegion() Region
	StackRegion() Region

	// ReadMemory/WriteMemory return false on an out-of-range access; a
	// failed write leaves guest memory untouched (no partial write).
	ReadMemory(addr uint64, out []byte) bool
	WriteMemory(addr uint64, in []byte) bool

	ClockTicks() uint64
	CPUTicks() uint64

	Log(severity Severity, plugin, message string)
}

// JoyconSide selects between the left and right joycon when a query is
// addressed to a split controller.
type JoyconSide int

const (
	JoyconSideNone JoyconSide = iota
	JoyconSideLeft
	JoyconSideRight
)

// HIDFacade is the narrow view over controller/keyboard/mouse/touch shared
// memory. Acquired lazily by a plugin record once the guest process is
// running; every call site nil-checks it first.
type HIDFacade interface {
	PadState(controller int) uint64
	SetPadState(controller int, state uint64)

	Joystick(controller, axis int) int32
	SetJoystick(controller, axis int, value int32)

	SixAxis(controller int, side JoyconSide) [6]float32
	SetSixAxis(controller int, side JoyconSide, value [6]float32)

	Connect(controller int)
	Disconnect(controller int)
	SetControllerType(controller int, kind int32)
	ControllerType(controller int) int32
	SetHandheld(enabled bool)
	EnableController(controller int, enabled bool)
	RequestUpdate()

	KeyboardKey(key int) bool
	SetKeyboardKey(key int, pressed bool)
	KeyboardModifiers() uint32
	SetKeyboardModifiers(mods uint32)
	KeyboardRaw() []byte
	SetKeyboardRaw(raw []byte)

	MouseButton(button int) bool
	SetMouseButton(button int, pressed bool)
	MousePosition() (x, y int32)
	SetMousePosition(x, y int32)
	MouseRaw() []byte
	SetMouseRaw(raw []byte)

	TouchCount() int
	Touch(slot int) (x, y int32, pressed bool)
	SetTouch(slot int, x, y int32, pressed bool)

	// SetOutsideInputGated blocks a peripheral's physical input from
	// reaching the guest while a plugin drives it synthetically.
	SetOutsideInputGated(peripheral string, gated bool)
}
