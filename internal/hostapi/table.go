// Copyright 2025 James Ross
package hostapi

// Slot names the well-known exported pointer-to-function-pointer symbol a
// plugin library must declare for the host to fill in. Each entry mirrors
// one Table field below.
type Slot string

// Meta group.
const (
	SlotGetInterfaceVersion Slot = "yuzu_get_plugin_interface_version"
	SlotFree                Slot = "yuzu_free"
)

// Emu control group.
const (
	SlotPause          Slot = "yuzu_pause"
	SlotRun            Slot = "yuzu_run"
	SlotFrameAdvance   Slot = "yuzu_frame_advance"
	SlotFrameCount     Slot = "yuzu_frame_count"
	SlotFPS            Slot = "yuzu_fps"
	SlotIsEmulating    Slot = "yuzu_is_emulating"
	SlotProgramID      Slot = "yuzu_program_id"
	SlotHeapRegion     Slot = "yuzu_heap_region"
	SlotMainRegion     Slot = "yuzu_main_region"
	SlotStackRegion    Slot = "yuzu_stack_region"
	SlotStructuredLog  Slot = "yuzu_log"
)

// Guest memory group.
const (
	SlotReadMemory  Slot = "yuzu_read_memory"
	SlotWriteMemory Slot = "yuzu_write_memory"
)

// Timing group.
const (
	SlotClockTicks Slot = "yuzu_clock_ticks"
	SlotCPUTicks   Slot = "yuzu_cpu_ticks"
)

// Joypad/HID group.
const (
	SlotPadState            Slot = "yuzu_pad_state"
	SlotSetPadState          Slot = "yuzu_set_pad_state"
	SlotJoystick             Slot = "yuzu_joystick"
	SlotSetJoystick          Slot = "yuzu_set_joystick"
	SlotSixAxis              Slot = "yuzu_six_axis"
	SlotSetSixAxis           Slot = "yuzu_set_six_axis"
	SlotConnect              Slot = "yuzu_connect_controller"
	SlotDisconnect           Slot = "yuzu_disconnect_controller"
	SlotSetControllerType    Slot = "yuzu_set_controller_type"
	SlotControllerType       Slot = "yuzu_controller_type"
	SlotSetHandheld          Slot = "yuzu_set_handheld"
	SlotEnableController     Slot = "yuzu_enable_controller"
	SlotRequestUpdate        Slot = "yuzu_request_input_update"
	SlotKeyboardKey          Slot = "yuzu_keyboard_key"
	SlotSetKeyboardKey       Slot = "yuzu_set_keyboard_key"
	SlotKeyboardModifiers    Slot = "yuzu_keyboard_modifiers"
	SlotSetKeyboardModifiers Slot = "yuzu_set_keyboard_modifiers"
	SlotKeyboardRaw          Slot = "yuzu_keyboard_raw"
	SlotSetKeyboardRaw       Slot = "yuzu_set_keyboard_raw"
	SlotMouseButton          Slot = "yuzu_mouse_button"
	SlotSetMouseButton       Slot = "yuzu_set_mouse_button"
	SlotMousePosition        Slot = "yuzu_mouse_position"
	SlotSetMousePosition     Slot = "yuzu_set_mouse_position"
	SlotMouseRaw             Slot = "yuzu_mouse_raw"
	SlotSetMouseRaw          Slot = "yuzu_set_mouse_raw"
	SlotTouchCount           Slot = "yuzu_touch_count"
	SlotTouch                Slot = "yuzu_touch"
	SlotSetTouch             Slot = "yuzu_set_touch"
	SlotSetOutsideInputGated Slot = "yuzu_set_outside_input_gated"
)

// Overlay group.
const (
	SlotOverlayWidth       Slot = "yuzu_overlay_width"
	SlotOverlayHeight      Slot = "yuzu_overlay_height"
	SlotOverlayClear       Slot = "yuzu_overlay_clear"
	SlotOverlayDrawPixel   Slot = "yuzu_overlay_draw_pixel"
	SlotOverlayRender      Slot = "yuzu_overlay_render"
	SlotOverlaySaveFile    Slot = "yuzu_overlay_save_screenshot"
	SlotOverlayDrawImage   Slot = "yuzu_overlay_draw_image"
	SlotOverlayPopup       Slot = "yuzu_overlay_popup"
	SlotOverlayScreenshot  Slot = "yuzu_overlay_screenshot_to_memory"
)

// PopupKind is the overlay's informational/warning/critical/none dialog
// kind.
type PopupKind int32

const (
	PopupNone PopupKind = iota
	PopupInfo
	PopupWarning
	PopupCritical
)

// Slots lists every Table entry in declaration order; used to size a new
// Table and by tests to check the slot names for duplicates.
func Slots() []Slot {
	return []Slot{
		SlotGetInterfaceVersion, SlotFree,
		SlotPause, SlotRun, SlotFrameAdvance, SlotFrameCount, SlotFPS,
		SlotIsEmulating, SlotProgramID, SlotHeapRegion, SlotMainRegion,
		SlotStackRegion, SlotStructuredLog,
		SlotReadMemory, SlotWriteMemory,
		SlotClockTicks, SlotCPUTicks,
		SlotPadState, SlotSetPadState, SlotJoystick, SlotSetJoystick,
		SlotSixAxis, SlotSetSixAxis, SlotConnect, SlotDisconnect,
		SlotSetControllerType, SlotControllerType, SlotSetHandheld,
		SlotEnableController, SlotRequestUpdate,
		SlotKeyboardKey, SlotSetKeyboardKey, SlotKeyboardModifiers,
		SlotSetKeyboardModifiers, SlotKeyboardRaw, SlotSetKeyboardRaw,
		SlotMouseButton, SlotSetMouseButton, SlotMousePosition,
		SlotSetMousePosition, SlotMouseRaw, SlotSetMouseRaw,
		SlotTouchCount, SlotTouch, SlotSetTouch, SlotSetOutsideInputGated,
		SlotOverlayWidth, SlotOverlayHeight, SlotOverlayClear,
		SlotOverlayDrawPixel, SlotOverlayRender, SlotOverlaySaveFile,
		SlotOverlayDrawImage, SlotOverlayPopup, SlotOverlayScreenshot,
	}
}

// Table holds the resolved callback address for every slot, keyed by name.
// internal/abi populates it; internal/pluginmanager owns its lifetime
// alongside the plugin record.
type Table struct {
	addrs map[Slot]uintptr
}

// NewTable returns an empty table ready for internal/abi to fill in.
func NewTable() *Table {
	return &Table{addrs: make(map[Slot]uintptr, len(Slots()))}
}

// Set records the callback address bound for slot.
func (t *Table) Set(slot Slot, addr uintptr) {
	t.addrs[slot] = addr
}

// Addr returns the bound address for slot, or zero if never bound.
func (t *Table) Addr(slot Slot) uintptr {
	return t.addrs[slot]
}

// Bound reports how many slots were successfully resolved and bound.
func (t *Table) Bound() int {
	return len(t.addrs)
}
