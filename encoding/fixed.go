package encoding

import (
	"fmt"
	"math"

	"github.com/arloliu/bflat/endian"
)

// FixedCodec transcodes fixed-width integers and doubles to and from their
// little-endian wire form. It performs no validation besides bounds checks.
//
// The zero value is not usable; use NewFixedCodec.
type FixedCodec struct {
	engine endian.EndianEngine
}

// NewFixedCodec returns a codec bound to the little-endian engine.
func NewFixedCodec() FixedCodec {
	return FixedCodec{engine: endian.GetLittleEndianEngine()}
}

// PutInt8 writes v at the cursor.
func (c FixedCodec) PutInt8(b *Buffer, v int8) error {
	pos, err := c.reserve(b, 1, "int8")
	if err != nil {
		return err
	}
	b.data[pos] = byte(v)

	return nil
}

// PutInt16 writes v at the cursor, little-endian.
func (c FixedCodec) PutInt16(b *Buffer, v int16) error {
	pos, err := c.reserve(b, 2, "int16")
	if err != nil {
		return err
	}
	c.engine.PutUint16(b.data[pos:], uint16(v)) //nolint:gosec

	return nil
}

// PutInt32 writes v at the cursor, little-endian.
func (c FixedCodec) PutInt32(b *Buffer, v int32) error {
	pos, err := c.reserve(b, 4, "int32")
	if err != nil {
		return err
	}
	c.engine.PutUint32(b.data[pos:], uint32(v)) //nolint:gosec

	return nil
}

// PutInt64 writes v at the cursor, little-endian.
func (c FixedCodec) PutInt64(b *Buffer, v int64) error {
	pos, err := c.reserve(b, 8, "int64")
	if err != nil {
		return err
	}
	c.engine.PutUint64(b.data[pos:], uint64(v)) //nolint:gosec

	return nil
}

// PutFloat64 writes the IEEE-754 bit pattern of v at the cursor, little-endian.
func (c FixedCodec) PutFloat64(b *Buffer, v float64) error {
	pos, err := c.reserve(b, 8, "double")
	if err != nil {
		return err
	}
	c.engine.PutUint64(b.data[pos:], math.Float64bits(v))

	return nil
}

// ReadInt8 reads an int8 at the cursor and advances past it.
func (c FixedCodec) ReadInt8(b *Buffer) (int8, error) {
	pos, err := b.Skip(1)
	if err != nil {
		return 0, err
	}

	return c.Int8(b.data, pos), nil
}

// ReadInt16 reads a little-endian int16 at the cursor and advances past it.
func (c FixedCodec) ReadInt16(b *Buffer) (int16, error) {
	pos, err := b.Skip(2)
	if err != nil {
		return 0, err
	}

	return c.Int16(b.data, pos), nil
}

// ReadInt32 reads a little-endian int32 at the cursor and advances past it.
func (c FixedCodec) ReadInt32(b *Buffer) (int32, error) {
	pos, err := b.Skip(4)
	if err != nil {
		return 0, err
	}

	return c.Int32(b.data, pos), nil
}

// ReadInt64 reads a little-endian int64 at the cursor and advances past it.
func (c FixedCodec) ReadInt64(b *Buffer) (int64, error) {
	pos, err := b.Skip(8)
	if err != nil {
		return 0, err
	}

	return c.Int64(b.data, pos), nil
}

// ReadFloat64 reads a little-endian double at the cursor and advances past it.
func (c FixedCodec) ReadFloat64(b *Buffer) (float64, error) {
	pos, err := b.Skip(8)
	if err != nil {
		return 0, err
	}

	return c.Float64(b.data, pos), nil
}

// Int8 decodes the int8 at data[pos]. The caller guarantees the bounds.
func (c FixedCodec) Int8(data []byte, pos int) int8 {
	return int8(data[pos]) //nolint:gosec
}

// Int16 decodes the int16 at data[pos:pos+2]. The caller guarantees the bounds.
func (c FixedCodec) Int16(data []byte, pos int) int16 {
	return int16(c.engine.Uint16(data[pos:])) //nolint:gosec
}

// Int32 decodes the int32 at data[pos:pos+4]. The caller guarantees the bounds.
func (c FixedCodec) Int32(data []byte, pos int) int32 {
	return int32(c.engine.Uint32(data[pos:])) //nolint:gosec
}

// Int64 decodes the int64 at data[pos:pos+8]. The caller guarantees the bounds.
func (c FixedCodec) Int64(data []byte, pos int) int64 {
	return int64(c.engine.Uint64(data[pos:])) //nolint:gosec
}

// Float64 decodes the double at data[pos:pos+8]. The caller guarantees the bounds.
func (c FixedCodec) Float64(data []byte, pos int) float64 {
	return math.Float64frombits(c.engine.Uint64(data[pos:]))
}

// PutInt16At writes v at data[pos:pos+2]. The caller guarantees the bounds.
func (c FixedCodec) PutInt16At(data []byte, pos int, v int16) {
	c.engine.PutUint16(data[pos:], uint16(v)) //nolint:gosec
}

// PutInt32At writes v at data[pos:pos+4]. The caller guarantees the bounds.
func (c FixedCodec) PutInt32At(data []byte, pos int, v int32) {
	c.engine.PutUint32(data[pos:], uint32(v)) //nolint:gosec
}

// PutInt64At writes v at data[pos:pos+8]. The caller guarantees the bounds.
func (c FixedCodec) PutInt64At(data []byte, pos int, v int64) {
	c.engine.PutUint64(data[pos:], uint64(v)) //nolint:gosec
}

// PutFloat64At writes v at data[pos:pos+8]. The caller guarantees the bounds.
func (c FixedCodec) PutFloat64At(data []byte, pos int, v float64) {
	c.engine.PutUint64(data[pos:], math.Float64bits(v))
}

func (c FixedCodec) reserve(b *Buffer, n int, what string) (int, error) {
	pos, err := b.Reserve(n)
	if err != nil {
		return 0, fmt.Errorf("%w: while encoding %s", err, what)
	}

	return pos, nil
}
