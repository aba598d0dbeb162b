package encoding

import (
	"fmt"

	"github.com/arloliu/bflat/errs"
)

// MaxLeb128Size is the longest LEB128 encoding of a 64-bit value.
const MaxLeb128Size = 10

const (
	leb128ValueMask = 0x7f
	leb128MoreBit   = 0x80
	leb128SignBit   = 0x40
	leb128Shift     = 7
)

// UnsignedSize returns the number of bytes of the minimal unsigned LEB128 encoding of v.
func UnsignedSize(v uint64) int {
	n := 1
	for v >= leb128MoreBit {
		v >>= leb128Shift
		n++
	}

	return n
}

// SignedSize returns the number of bytes of the minimal signed LEB128 encoding of v.
func SignedSize(v int64) int {
	n := 0
	for {
		c := byte(v & leb128ValueMask)
		v >>= leb128Shift
		n++
		if (v == 0 && c&leb128SignBit == 0) || (v == -1 && c&leb128SignBit != 0) {
			return n
		}
	}
}

// PutUnsigned writes v as unsigned LEB128 at the cursor.
//
// The whole encoding is bounds-checked before any byte is written, so on
// error the buffer is left untouched.
//
// Returns:
//   - int: number of bytes written
//   - error: errs.ErrBufferTooSmall if the region cannot hold the encoding
func PutUnsigned(b *Buffer, v uint64) (int, error) {
	n := UnsignedSize(v)
	pos, err := b.Reserve(n)
	if err != nil {
		return 0, fmt.Errorf("%w: while encoding leb128", err)
	}
	putUnsigned(b.data[pos:pos+n], v)

	return n, nil
}

// PutSigned writes v as signed LEB128 at the cursor.
//
// Returns:
//   - int: number of bytes written
//   - error: errs.ErrBufferTooSmall if the region cannot hold the encoding
func PutSigned(b *Buffer, v int64) (int, error) {
	n := SignedSize(v)
	pos, err := b.Reserve(n)
	if err != nil {
		return 0, fmt.Errorf("%w: while encoding leb128", err)
	}
	putSigned(b.data[pos:pos+n], v)

	return n, nil
}

// AppendUnsigned appends the unsigned LEB128 encoding of v to dst.
func AppendUnsigned(dst []byte, v uint64) []byte {
	for v >= leb128MoreBit {
		dst = append(dst, byte(v)|leb128MoreBit)
		v >>= leb128Shift
	}

	return append(dst, byte(v))
}

// AppendSigned appends the signed LEB128 encoding of v to dst.
func AppendSigned(dst []byte, v int64) []byte {
	for {
		c := byte(v & leb128ValueMask)
		v >>= leb128Shift
		if (v == 0 && c&leb128SignBit == 0) || (v == -1 && c&leb128SignBit != 0) {
			return append(dst, c)
		}
		dst = append(dst, c|leb128MoreBit)
	}
}

// ReadUnsigned decodes an unsigned LEB128 value at the cursor and advances past it.
// On error the cursor does not move.
func ReadUnsigned(b *Buffer) (uint64, error) {
	v, n, err := DecodeUnsigned(b.data[b.pos:b.end])
	if err != nil {
		return 0, fmt.Errorf("%w at offset %d", err, b.pos)
	}
	b.pos += n

	return v, nil
}

// ReadSigned decodes a signed LEB128 value at the cursor and advances past it.
// On error the cursor does not move.
func ReadSigned(b *Buffer) (int64, error) {
	v, n, err := DecodeSigned(b.data[b.pos:b.end])
	if err != nil {
		return 0, fmt.Errorf("%w at offset %d", err, b.pos)
	}
	b.pos += n

	return v, nil
}

// DecodeUnsigned decodes an unsigned LEB128 value from the front of src.
//
// Returns:
//   - uint64: the decoded value
//   - int: number of bytes consumed
//   - error: errs.ErrTruncated if src ends inside the value,
//     errs.ErrInvalidLeb128 if the value is longer than MaxLeb128Size bytes
//     or does not fit in 64 bits
func DecodeUnsigned(src []byte) (uint64, int, error) {
	var result uint64
	var shift uint

	for i, c := range src {
		if i == MaxLeb128Size {
			return 0, 0, errs.ErrInvalidLeb128
		}
		// The last group holds bit 63 only.
		if i == MaxLeb128Size-1 && c > 1 {
			return 0, 0, errs.ErrInvalidLeb128
		}
		result |= uint64(c&leb128ValueMask) << shift
		if c < leb128MoreBit {
			return result, i + 1, nil
		}
		shift += leb128Shift
	}

	return 0, 0, errs.ErrTruncated
}

// DecodeSigned decodes a signed LEB128 value from the front of src.
//
// After the last group the result is sign-extended from bit 6 of the final
// byte by subtracting 1<<shift.
func DecodeSigned(src []byte) (int64, int, error) {
	var result int64
	var shift uint

	for i, c := range src {
		if i == MaxLeb128Size {
			return 0, 0, errs.ErrInvalidLeb128
		}
		// The last group holds bit 63 and its sign extension.
		if i == MaxLeb128Size-1 && c != 0x00 && c != leb128ValueMask {
			return 0, 0, errs.ErrInvalidLeb128
		}
		result |= int64(c&leb128ValueMask) << shift
		shift += leb128Shift
		if c < leb128MoreBit {
			if shift < 64 && c&leb128SignBit != 0 {
				result -= int64(1) << shift
			}

			return result, i + 1, nil
		}
	}

	return 0, 0, errs.ErrTruncated
}

func putUnsigned(dst []byte, v uint64) {
	i := 0
	for v >= leb128MoreBit {
		dst[i] = byte(v) | leb128MoreBit
		v >>= leb128Shift
		i++
	}
	dst[i] = byte(v)
}

func putSigned(dst []byte, v int64) {
	i := 0
	for {
		c := byte(v & leb128ValueMask)
		v >>= leb128Shift
		if (v == 0 && c&leb128SignBit == 0) || (v == -1 && c&leb128SignBit != 0) {
			dst[i] = c
			return
		}
		dst[i] = c | leb128MoreBit
		i++
	}
}
