package utils

import (
	"golang.org/x/exp/constraints"
)

const BitsPerByte = 8

// Returns an all ones bitmask of n bits of the given unsigned integer type
func AllOnes[T constraints.Unsigned](bits int) T {
	return (T(1) << bits) - T(1)
}

// BufView is a read/write view over an arbitrary-length little-endian byte
// buffer: the object layer needs bit-field reads/writes that can straddle
// byte boundaries anywhere in a value's storage, not just within one machine
// word.
type BufView struct {
	Buf []byte
}

// CreateBufView wraps a byte buffer for bit-granularity access.
func CreateBufView(buf []byte) BufView {
	return BufView{Buf: buf}
}

// Read extracts width bits (width <= 64) starting at the given bit offset.
func (v BufView) Read(bit int, width int) uint64 {
	var result uint64
	for i := 0; i < width; i++ {
		b := bit + i
		byteIndex := b / BitsPerByte
		bitIndex := b % BitsPerByte
		if byteIndex >= len(v.Buf) {
			break
		}
		if v.Buf[byteIndex]&(1<<uint(bitIndex)) != 0 {
			result |= 1 << uint(i)
		}
	}
	return result
}

// Write packs the low width bits of value starting at the given bit offset,
// growing no storage: the buffer must already be large enough.
func (v BufView) Write(value uint64, bit int, width int) {
	for i := 0; i < width; i++ {
		b := bit + i
		byteIndex := b / BitsPerByte
		bitIndex := b % BitsPerByte
		if byteIndex >= len(v.Buf) {
			break
		}
		if value&(1<<uint(i)) != 0 {
			v.Buf[byteIndex] |= 1 << uint(bitIndex)
		} else {
			v.Buf[byteIndex] &^= 1 << uint(bitIndex)
		}
	}
}
