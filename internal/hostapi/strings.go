// Copyright 2025 James Ross
package hostapi

import (
	"sync"
	"unsafe"
)

// stringAllocator backs AllocString/FreeString: any NrStr-shaped value the
// host hands back across the ABI boundary must be freed exactly once by the
// plugin calling yuzu_free. Go can't let C code hold a pointer into the Go
// heap past the call that produced it, so the allocator pins each string's
// bytes for the lifetime of the loan and releases the pin on Free.
type stringAllocator struct {
	mu  sync.Mutex
	out map[uintptr][]byte
}

var strings_ = &stringAllocator{out: make(map[uintptr][]byte)}

// AllocString hands out a borrowed host-owned buffer; addr is a stable key
// the plugin will later pass back to FreeString. The caller is responsible
// for writing addr/len onto the ABI-facing NrStr-equivalent struct.
func AllocString(s string) (addr uintptr, length int) {
	b := append([]byte(s), 0) // NUL-terminate for C-string consumers
	strings_.mu.Lock()
	defer strings_.mu.Unlock()
	addr = uintptr(unsafe.Pointer(&b[0]))
	strings_.out[addr] = b
	return addr, len(s)
}

// FreeString releases a buffer previously returned by AllocString. Freeing
// an address twice, or one AllocString never produced, is a no-op: a
// misbehaving plugin must not be able to corrupt the allocator's own state.
func FreeString(addr uintptr) {
	strings_.mu.Lock()
	defer strings_.mu.Unlock()
	delete(strings_.out, addr)
}

// Outstanding reports the number of buffers currently on loan, for tests
// asserting that every AllocString is matched by a FreeString.
func Outstanding() int {
	strings_.mu.Lock()
	defer strings_.mu.Unlock()
	return len(strings_.out)
}
