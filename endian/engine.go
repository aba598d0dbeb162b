// Package endian provides the byte order engine used by the bflat fixed-width codec.
//
// BFlat stores every fixed-width element (Int16/32/64, Double, Datetime)
// little-endian. The engine combines binary.ByteOrder and
// binary.AppendByteOrder so that both in-place writes into a borrowed buffer
// and appends onto a growable one go through the same value:
//
//	engine := endian.GetLittleEndianEngine()
//	engine.PutUint32(buf[pos:], uint32(v))
//	out = engine.AppendUint64(out, math.Float64bits(f))
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine is immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. On a little-endian host the low byte (0x00) comes first.
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

var nativeLittleEndian = CheckEndianness() == binary.LittleEndian

// IsNativeLittleEndian reports whether the host stores integers little-endian,
// in which case wire bytes can be reinterpreted in place.
func IsNativeLittleEndian() bool {
	return nativeLittleEndian
}

// GetLittleEndianEngine returns the little-endian engine, the only byte order on the wire.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}
