package encoding

import (
	"fmt"

	"github.com/arloliu/bflat/errs"
)

// Buffer is a cursor over a borrowed byte region.
//
// The region is data[start:end]. Encoders advance the cursor as they write
// and decoders as they read; nothing outside the region is ever touched.
// The Buffer never allocates or grows the backing array.
//
// Offsets returned by Buffer methods are absolute indexes into the backing
// array, not relative to start.
type Buffer struct {
	data  []byte
	start int
	pos   int
	end   int
}

// NewBuffer returns a Buffer over data[start:].
//
// Returns:
//   - *Buffer: the buffer with its cursor at start
//   - error: errs.ErrInvalidRange if start is outside data
func NewBuffer(data []byte, start int) (*Buffer, error) {
	b := &Buffer{}
	if err := b.Reset(data, start, len(data)-start); err != nil {
		return nil, err
	}

	return b, nil
}

// Reset points the buffer at data[start:start+length] and moves the cursor to start.
func (b *Buffer) Reset(data []byte, start, length int) error {
	if start < 0 || length < 0 || start > len(data) || length > len(data)-start {
		return fmt.Errorf("%w: start %d, length %d, data length %d", errs.ErrInvalidRange, start, length, len(data))
	}

	b.data = data
	b.start = start
	b.pos = start
	b.end = start + length

	return nil
}

// Data returns the whole backing array.
func (b *Buffer) Data() []byte {
	return b.data
}

// Start returns the fixed logical start of the region.
func (b *Buffer) Start() int {
	return b.start
}

// Position returns the absolute cursor position.
func (b *Buffer) Position() int {
	return b.pos
}

// End returns the absolute end of the region.
func (b *Buffer) End() int {
	return b.end
}

// Remaining returns the number of bytes between the cursor and the end of the region.
func (b *Buffer) Remaining() int {
	return b.end - b.pos
}

// Len returns the number of bytes between start and the cursor.
func (b *Buffer) Len() int {
	return b.pos - b.start
}

// Bytes returns data[start:pos], the bytes written (or consumed) so far.
// The slice aliases the backing array.
func (b *Buffer) Bytes() []byte {
	return b.data[b.start:b.pos]
}

// Rewind moves the cursor back to start so the region can be re-encoded.
func (b *Buffer) Rewind() {
	b.pos = b.start
}

// Seek moves the cursor to an absolute position inside the region.
// It panics if pos is outside [start, end]; callers only seek to positions
// they obtained from the same buffer.
func (b *Buffer) Seek(pos int) {
	if pos < b.start || pos > b.end {
		panic(fmt.Sprintf("encoding: seek to %d outside [%d, %d]", pos, b.start, b.end))
	}
	b.pos = pos
}

// Reserve advances the cursor by n bytes and returns the position where the
// reserved space begins.
func (b *Buffer) Reserve(n int) (int, error) {
	if n < 0 || n > b.end-b.pos {
		return 0, fmt.Errorf("%w: need %d bytes, %d remaining", errs.ErrBufferTooSmall, n, b.end-b.pos)
	}

	p := b.pos
	b.pos += n

	return p, nil
}

// WriteByte writes a single byte at the cursor.
func (b *Buffer) WriteByte(c byte) error {
	if b.pos >= b.end {
		return fmt.Errorf("%w: need 1 byte, 0 remaining", errs.ErrBufferTooSmall)
	}

	b.data[b.pos] = c
	b.pos++

	return nil
}

// WriteBytes copies p to the cursor.
func (b *Buffer) WriteBytes(p []byte) error {
	pos, err := b.Reserve(len(p))
	if err != nil {
		return err
	}
	copy(b.data[pos:], p)

	return nil
}

// ReadByte reads the byte at the cursor.
func (b *Buffer) ReadByte() (byte, error) {
	if b.pos >= b.end {
		return 0, fmt.Errorf("%w: reading byte at offset %d", errs.ErrTruncated, b.pos)
	}

	c := b.data[b.pos]
	b.pos++

	return c, nil
}

// Skip advances the read cursor by n bytes and returns the position of the
// first skipped byte.
func (b *Buffer) Skip(n int) (int, error) {
	if n < 0 || n > b.end-b.pos {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, %d remaining", errs.ErrTruncated, n, b.pos, b.end-b.pos)
	}

	p := b.pos
	b.pos += n

	return p, nil
}
