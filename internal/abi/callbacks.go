// Copyright 2025 James Ross
package abi

import (
	"encoding/binary"
	"math"

	"github.com/flyingrobots/emu-plugin-host/internal/hostapi"
	"github.com/flyingrobots/emu-plugin-host/internal/overlay"
	"github.com/flyingrobots/emu-plugin-host/internal/scheduler"
)

// sixAxisBytes is the wire size of a JoyconSide's motion reading: six
// little-endian float32 components.
const sixAxisBytes = 6 * 4

// formatFromUintptr maps the packed screenshot/save-file format selector
// (1 == jpeg, anything else == png) onto overlay.Surface's format strings.
func formatFromUintptr(v uintptr) string {
	if v == 1 {
		return "jpeg"
	}
	return "png"
}

// CallbackFunc is the uniform shape every host-API table entry is published
// as: an opaque context pointer (round-tripped, never dereferenced by
// purego itself) plus up to four uintptr-packed arguments, returning one
// uintptr-packed result. Wider values (bool, int32, float32/float64, packed
// coordinate pairs) are packed into a uintptr at the call boundary; this
// keeps every slot's C-callable shape identical, which is what lets BindTable
// iterate a plain map instead of hand-writing 54 distinct NewCallback call
// sites.
type CallbackFunc func(ctx, a0, a1, a2, a3 uintptr) uintptr

const (
	guestNotReady uintptr = 0
	ok            uintptr = 1
	fail          uintptr = 0
)

func boolToUintptr(b bool) uintptr {
	if b {
		return 1
	}
	return 0
}

func float64ToUintptr(f float64) uintptr {
	return uintptr(math.Float64bits(f))
}

func packXY(x, y int32) uintptr {
	return uintptr(uint64(uint32(x))<<32 | uint64(uint32(y)))
}

// Builder closes over one plugin's cooperative Record and the host's
// collaborator facades, producing the concrete callback table BindTable
// publishes into the plugin's symbol table.
type Builder struct {
	record  *scheduler.Record
	emu     hostapi.EmuFacade
	overlay *overlay.Surface
}

// NewBuilder constructs a Builder for one plugin load.
func NewBuilder(record *scheduler.Record, emu hostapi.EmuFacade, surface *overlay.Surface) *Builder {
	return &Builder{record: record, emu: emu, overlay: surface}
}

// Build returns the full host-API callback table for this plugin.
func (b *Builder) Build() map[hostapi.Slot]CallbackFunc {
	return map[hostapi.Slot]CallbackFunc{
		hostapi.SlotFree: func(ctx, a0, _, _, _ uintptr) uintptr {
			hostapi.FreeString(a0)
			return ok
		},

		// Emu control
		hostapi.SlotPause: func(ctx, _, _, _, _ uintptr) uintptr {
			b.emu.Pause()
			return ok
		},
		hostapi.SlotRun: func(ctx, _, _, _, _ uintptr) uintptr {
			b.emu.Run()
			return ok
		},
		hostapi.SlotFrameAdvance: func(ctx, _, _, _, _ uintptr) uintptr {
			b.record.FrameAdvance()
			return ok
		},
		hostapi.SlotFrameCount: func(ctx, _, _, _, _ uintptr) uintptr {
			return uintptr(b.emu.FrameCount())
		},
		hostapi.SlotFPS: func(ctx, _, _, _, _ uintptr) uintptr {
			return float64ToUintptr(b.emu.FPS())
		},
		hostapi.SlotIsEmulating: func(ctx, _, _, _, _ uintptr) uintptr {
			return boolToUintptr(b.emu.IsEmulating())
		},
		hostapi.SlotProgramID: func(ctx, _, _, _, _ uintptr) uintptr {
			if !b.emu.IsRunning() {
				return guestNotReady
			}
			addr, _ := hostapi.AllocString(b.emu.ProgramID())
			return addr
		},
		hostapi.SlotHeapRegion: func(ctx, _, _, _, _ uintptr) uintptr {
			if !b.emu.IsRunning() {
				return guestNotReady
			}
			r := b.emu.HeapRegion()
			return uintptr(r.Start)
		},
		hostapi.SlotMainRegion: func(ctx, _, _, _, _ uintptr) uintptr {
			if !b.emu.IsRunning() {
				return guestNotReady
			}
			r := b.emu.MainRegion()
			return uintptr(r.Start)
		},
		hostapi.SlotStackRegion: func(ctx, _, _, _, _ uintptr) uintptr {
			if !b.emu.IsRunning() {
				return guestNotReady
			}
			r := b.emu.StackRegion()
			return uintptr(r.Start)
		},
		hostapi.SlotStructuredLog: func(ctx, severity, msgAddr, msgLen, _ uintptr) uintptr {
			// msgAddr/msgLen describe a borrowed plugin-owned string,
			// valid only for this call's duration — copy it out now.
			message := string(cBytesAt(msgAddr, int(msgLen)))
			b.emu.Log(hostapi.Severity(severity), b.record.Name, message)
			return ok
		},

		// Guest memory
		hostapi.SlotReadMemory: func(ctx, addr, out, length, _ uintptr) uintptr {
			// out aliases the plugin's own buffer, so ReadMemory writes
			// straight into it.
			dst := cBytesAt(out, int(length))
			if dst == nil || !b.emu.ReadMemory(uint64(addr), dst) {
				return fail
			}
			return ok
		},
		hostapi.SlotWriteMemory: func(ctx, addr, in, length, _ uintptr) uintptr {
			src := cBytesAt(in, int(length))
			if src == nil || !b.emu.WriteMemory(uint64(addr), src) {
				return fail
			}
			return ok
		},

		// Timing
		hostapi.SlotClockTicks: func(ctx, _, _, _, _ uintptr) uintptr {
			return uintptr(b.emu.ClockTicks())
		},
		hostapi.SlotCPUTicks: func(ctx, _, _, _, _ uintptr) uintptr {
			return uintptr(b.emu.CPUTicks())
		},

		// Joypad/HID
		hostapi.SlotPadState: func(ctx, controller, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			return uintptr(hid.PadState(int(controller)))
		},
		hostapi.SlotSetPadState: func(ctx, controller, state, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.SetPadState(int(controller), uint64(state))
			return ok
		},
		hostapi.SlotJoystick: func(ctx, controller, axis, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			return uintptr(uint32(hid.Joystick(int(controller), int(axis))))
		},
		hostapi.SlotSetJoystick: func(ctx, controller, axis, value, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.SetJoystick(int(controller), int(axis), int32(value))
			return ok
		},
		hostapi.SlotSixAxis: func(ctx, controller, side, out, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			dst := cBytesAt(out, sixAxisBytes)
			if dst == nil {
				return fail
			}
			values := hid.SixAxis(int(controller), hostapi.JoyconSide(side))
			for i, v := range values {
				binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
			}
			return ok
		},
		hostapi.SlotSetSixAxis: func(ctx, controller, side, in, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			src := cBytesAt(in, sixAxisBytes)
			if src == nil {
				return fail
			}
			var values [6]float32
			for i := range values {
				values[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
			}
			hid.SetSixAxis(int(controller), hostapi.JoyconSide(side), values)
			return ok
		},
		hostapi.SlotConnect: func(ctx, controller, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.Connect(int(controller))
			return ok
		},
		hostapi.SlotDisconnect: func(ctx, controller, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.Disconnect(int(controller))
			return ok
		},
		hostapi.SlotSetControllerType: func(ctx, controller, kind, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.SetControllerType(int(controller), int32(kind))
			return ok
		},
		hostapi.SlotControllerType: func(ctx, controller, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			return uintptr(uint32(hid.ControllerType(int(controller))))
		},
		hostapi.SlotSetHandheld: func(ctx, enabled, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.SetHandheld(enabled != 0)
			return ok
		},
		hostapi.SlotEnableController: func(ctx, controller, enabled, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.EnableController(int(controller), enabled != 0)
			return ok
		},
		hostapi.SlotRequestUpdate: func(ctx, _, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.RequestUpdate()
			return ok
		},
		hostapi.SlotKeyboardKey: func(ctx, key, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			return boolToUintptr(hid.KeyboardKey(int(key)))
		},
		hostapi.SlotSetKeyboardKey: func(ctx, key, pressed, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.SetKeyboardKey(int(key), pressed != 0)
			return ok
		},
		hostapi.SlotKeyboardModifiers: func(ctx, _, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			return uintptr(hid.KeyboardModifiers())
		},
		hostapi.SlotSetKeyboardModifiers: func(ctx, mods, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.SetKeyboardModifiers(uint32(mods))
			return ok
		},
		hostapi.SlotKeyboardRaw: func(ctx, out, length, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			raw := hid.KeyboardRaw()
			if dst := cBytesAt(out, int(length)); dst != nil {
				copy(dst, raw)
			}
			return uintptr(len(raw))
		},
		hostapi.SlotSetKeyboardRaw: func(ctx, in, length, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			src := cBytesAt(in, int(length))
			if src == nil {
				return fail
			}
			hid.SetKeyboardRaw(src)
			return ok
		},
		hostapi.SlotMouseButton: func(ctx, button, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			return boolToUintptr(hid.MouseButton(int(button)))
		},
		hostapi.SlotSetMouseButton: func(ctx, button, pressed, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.SetMouseButton(int(button), pressed != 0)
			return ok
		},
		hostapi.SlotMousePosition: func(ctx, _, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			x, y := hid.MousePosition()
			return packXY(x, y)
		},
		hostapi.SlotSetMousePosition: func(ctx, packed, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			x := int32(uint32(packed >> 32))
			y := int32(uint32(packed))
			hid.SetMousePosition(x, y)
			return ok
		},
		hostapi.SlotMouseRaw: func(ctx, out, length, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			raw := hid.MouseRaw()
			if dst := cBytesAt(out, int(length)); dst != nil {
				copy(dst, raw)
			}
			return uintptr(len(raw))
		},
		hostapi.SlotSetMouseRaw: func(ctx, in, length, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			src := cBytesAt(in, int(length))
			if src == nil {
				return fail
			}
			hid.SetMouseRaw(src)
			return ok
		},
		hostapi.SlotTouchCount: func(ctx, _, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			return uintptr(hid.TouchCount())
		},
		hostapi.SlotTouch: func(ctx, slot, _, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			x, y, pressed := hid.Touch(int(slot))
			if !pressed {
				return guestNotReady
			}
			return packXY(x, y)
		},
		hostapi.SlotSetTouch: func(ctx, slot, packed, pressed, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			x := int32(uint32(packed >> 32))
			y := int32(uint32(packed))
			hid.SetTouch(int(slot), x, y, pressed != 0)
			return ok
		},
		hostapi.SlotSetOutsideInputGated: func(ctx, peripheralAddr, gated, _, _ uintptr) uintptr {
			hid := b.record.HID()
			if hid == nil {
				return guestNotReady
			}
			hid.SetOutsideInputGated(cStringZ(peripheralAddr), gated != 0)
			return ok
		},

		// Overlay
		hostapi.SlotOverlayWidth: func(ctx, _, _, _, _ uintptr) uintptr {
			w, _ := b.overlay.Size()
			return uintptr(w)
		},
		hostapi.SlotOverlayHeight: func(ctx, _, _, _, _ uintptr) uintptr {
			_, h := b.overlay.Size()
			return uintptr(h)
		},
		hostapi.SlotOverlayClear: func(ctx, _, _, _, _ uintptr) uintptr {
			b.overlay.Clear()
			return ok
		},
		hostapi.SlotOverlayDrawPixel: func(ctx, packed, rgba, _, _ uintptr) uintptr {
			x := int(int32(uint32(packed >> 32)))
			y := int(int32(uint32(packed)))
			b.overlay.DrawPixel(x, y, uint32(rgba))
			return ok
		},
		hostapi.SlotOverlayRender: func(ctx, _, _, _, _ uintptr) uintptr {
			b.overlay.Render()
			return ok
		},
		hostapi.SlotOverlayPopup: func(ctx, kind, msgAddr, _, _ uintptr) uintptr {
			b.overlay.Popup(hostapi.PopupKind(kind), cStringZ(msgAddr))
			return ok
		},
		hostapi.SlotOverlaySaveFile: func(ctx, pathAddr, format, _, _ uintptr) uintptr {
			path := cStringZ(pathAddr)
			if err := b.overlay.SaveFile(formatFromUintptr(format), path); err != nil {
				return fail
			}
			return ok
		},
		hostapi.SlotOverlayDrawImage: func(ctx, pathAddr, packed, _, _ uintptr) uintptr {
			path := cStringZ(pathAddr)
			x := int(int32(uint32(packed >> 32)))
			y := int(int32(uint32(packed)))
			if err := b.overlay.DrawImage(x, y, path); err != nil {
				return fail
			}
			return ok
		},
		hostapi.SlotOverlayScreenshot: func(ctx, out, outLen, format, _ uintptr) uintptr {
			data, err := b.overlay.Screenshot(formatFromUintptr(format))
			if err != nil || data == nil {
				return 0
			}
			if dst := cBytesAt(out, int(outLen)); dst != nil {
				copy(dst, data)
			}
			return uintptr(len(data))
		},
	}
}
