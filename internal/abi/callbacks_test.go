// Copyright 2025 James Ross
package abi

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestCBytesAtAliasesUnderlyingMemory(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	addr := uintptr(unsafe.Pointer(&buf[0]))

	view := cBytesAt(addr, len(buf))
	view[0] = 9

	assert.Equal(t, byte(9), buf[0], "cBytesAt must alias the same backing array, not copy it")
}

func TestCBytesAtRejectsZeroAddrOrLength(t *testing.T) {
	assert.Nil(t, cBytesAt(0, 4))
	buf := []byte{1}
	assert.Nil(t, cBytesAt(uintptr(unsafe.Pointer(&buf[0])), 0))
}

func TestCStringZStopsAtNulTerminator(t *testing.T) {
	buf := append([]byte("hello"), 0, 'x', 'x')
	addr := uintptr(unsafe.Pointer(&buf[0]))

	assert.Equal(t, "hello", cStringZ(addr))
}

func TestCStringZEmptyAddr(t *testing.T) {
	assert.Equal(t, "", cStringZ(0))
}

func TestBoolToUintptrRoundTrip(t *testing.T) {
	assert.Equal(t, uintptr(1), boolToUintptr(true))
	assert.Equal(t, uintptr(0), boolToUintptr(false))
}

func TestFloat64ToUintptrRoundTrip(t *testing.T) {
	f := 59.94
	packed := float64ToUintptr(f)
	assert.Equal(t, f, math.Float64frombits(uint64(packed)))
}

func TestPackXYRoundTrip(t *testing.T) {
	packed := packXY(-12, 34)
	x := int32(uint32(packed >> 32))
	y := int32(uint32(packed))
	assert.Equal(t, int32(-12), x)
	assert.Equal(t, int32(34), y)
}
