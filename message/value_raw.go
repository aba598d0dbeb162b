package message

import (
	"slices"
	"unsafe"
)

// appendRawFloat64s appends the doubles stored in src to dst with a single
// memory copy. It is only valid on little-endian hosts.
func appendRawFloat64s(dst []float64, src []byte) []float64 {
	n := len(src) / 8
	if n == 0 {
		return dst
	}

	dst = slices.Grow(dst, n)
	l := len(dst)
	dst = dst[:l+n]

	// Copying into the float64 backing array keeps the destination aligned
	// regardless of where the payload sits in the message.
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&dst[l])), n*8), src)

	return dst
}
