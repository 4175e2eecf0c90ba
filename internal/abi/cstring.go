// Copyright 2025 James Ross
package abi

import "unsafe"

// cBytesAt aliases length bytes of the plugin's own address space starting
// at addr as a Go byte slice. Safe only because the plugin shares this
// process's address space (purego's dlopen loads it in-process, no IPC) —
// the same assumption purego itself relies on for NewCallback/RegisterFunc.
func cBytesAt(addr uintptr, length int) []byte {
	if addr == 0 || length <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}

// cStringZ reads a NUL-terminated C string out of the plugin's address
// space at addr. Scanning stops at maxCStringLen to bound a malformed or
// unterminated pointer.
const maxCStringLen = 1 << 16

func cStringZ(addr uintptr) string {
	if addr == 0 {
		return ""
	}
	for n := 0; n < maxCStringLen; n++ {
		if *(*byte)(unsafe.Pointer(addr + uintptr(n))) == 0 {
			return string(unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
		}
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(addr)), maxCStringLen))
}
