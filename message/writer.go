package message

import (
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/bflat/encoding"
	"github.com/arloliu/bflat/errs"
	"github.com/arloliu/bflat/internal/collision"
	"github.com/arloliu/bflat/internal/hash"
	"github.com/arloliu/bflat/internal/options"
	"github.com/arloliu/bflat/internal/pool"
)

// entryOverhead bounds the header, tag length and count bytes of one entry.
const entryOverhead = 1 + 2*encoding.MaxLeb128Size

// Writer builds a message in a growable buffer.
//
// It wraps a Builder and retries any entry that fails with
// errs.ErrBufferTooSmall after growing the buffer, so the only errors it
// returns are usage errors. Buffers come from a shared pool; call Release
// when done with the Writer to return its buffer.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	buf     *pool.ByteBuffer
	pooled  bool
	builder Builder
	tracker *collision.Tracker
}

// NewWriter creates a Writer.
//
// Parameters:
//   - opts: WithInitialSize, WithUniqueTags
//
// Returns:
//   - *Writer: the writer with an empty message
//   - error: errs.ErrInvalidOption for invalid option values
func NewWriter(opts ...WriterOption) (*Writer, error) {
	cfg := &WriterConfig{initialSize: pool.MessageBufferDefaultSize}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	w := &Writer{}
	if cfg.initialSize <= pool.MessageBufferDefaultSize {
		w.buf = pool.GetMessageBuffer()
		w.pooled = true
	} else {
		w.buf = pool.NewByteBuffer(cfg.initialSize)
	}
	if cfg.uniqueTags {
		w.tracker = collision.NewTracker()
	}
	w.rebind(0)

	return w, nil
}

// Bytes returns the encoded message. The slice is only valid until the next
// write, Reset or Release.
func (w *Writer) Bytes() []byte {
	return w.builder.Bytes()
}

// Len returns the encoded size in bytes.
func (w *Writer) Len() int {
	return w.builder.Len()
}

// WriteTo writes the encoded message to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.builder.Bytes())
	return int64(n), err
}

// Reset discards the message, keeping the buffer.
func (w *Writer) Reset() {
	w.builder.Rewind()
	if w.tracker != nil {
		w.tracker.Reset()
	}
}

// Release returns the buffer to the pool. The Writer must not be used afterwards.
func (w *Writer) Release() {
	if w.pooled {
		pool.PutMessageBuffer(w.buf)
	}
	w.buf = nil
	w.pooled = false
	w.builder = Builder{}
}

// AddNull writes a Null entry.
func (w *Writer) AddNull(tag string) error {
	return w.write(tag, 0, func(b *Builder) error { return b.AddNull(tag) })
}

// AddString writes a String entry.
func (w *Writer) AddString(tag, v string) error {
	return w.write(tag, encoding.MaxLeb128Size+len(v), func(b *Builder) error { return b.AddString(tag, v) })
}

// AddBinary writes a Binary entry.
func (w *Writer) AddBinary(tag string, v []byte) error {
	return w.write(tag, encoding.MaxLeb128Size+len(v), func(b *Builder) error { return b.AddBinary(tag, v) })
}

// AddInt8 writes an Int8 entry.
func (w *Writer) AddInt8(tag string, v int8) error {
	return w.write(tag, 1, func(b *Builder) error { return b.AddInt8(tag, v) })
}

// AddInt16 writes an Int16 entry.
func (w *Writer) AddInt16(tag string, v int16) error {
	return w.write(tag, 2, func(b *Builder) error { return b.AddInt16(tag, v) })
}

// AddInt32 writes an Int32 entry.
func (w *Writer) AddInt32(tag string, v int32) error {
	return w.write(tag, 4, func(b *Builder) error { return b.AddInt32(tag, v) })
}

// AddInt64 writes an Int64 entry.
func (w *Writer) AddInt64(tag string, v int64) error {
	return w.write(tag, 8, func(b *Builder) error { return b.AddInt64(tag, v) })
}

// AddFloat64 writes a Double entry.
func (w *Writer) AddFloat64(tag string, v float64) error {
	return w.write(tag, 8, func(b *Builder) error { return b.AddFloat64(tag, v) })
}

// AddDatetime writes a Datetime entry.
func (w *Writer) AddDatetime(tag string, v int64) error {
	return w.write(tag, 8, func(b *Builder) error { return b.AddDatetime(tag, v) })
}

// AddLeb128 writes a Leb128 entry.
func (w *Writer) AddLeb128(tag string, v int64) error {
	return w.write(tag, encoding.SignedSize(v), func(b *Builder) error { return b.AddLeb128(tag, v) })
}

// AddNullArray writes a Null array entry of count elements.
func (w *Writer) AddNullArray(tag string, count int) error {
	return w.write(tag, 0, func(b *Builder) error { return b.AddNullArray(tag, count) })
}

// AddInt8Array writes an Int8 array entry.
func (w *Writer) AddInt8Array(tag string, vs []int8) error {
	return w.write(tag, len(vs), func(b *Builder) error { return b.AddInt8Array(tag, vs) })
}

// AddInt16Array writes an Int16 array entry.
func (w *Writer) AddInt16Array(tag string, vs []int16) error {
	return w.write(tag, len(vs)*2, func(b *Builder) error { return b.AddInt16Array(tag, vs) })
}

// AddInt32Array writes an Int32 array entry.
func (w *Writer) AddInt32Array(tag string, vs []int32) error {
	return w.write(tag, len(vs)*4, func(b *Builder) error { return b.AddInt32Array(tag, vs) })
}

// AddInt64Array writes an Int64 array entry.
func (w *Writer) AddInt64Array(tag string, vs []int64) error {
	return w.write(tag, len(vs)*8, func(b *Builder) error { return b.AddInt64Array(tag, vs) })
}

// AddDatetimeArray writes a Datetime array entry.
func (w *Writer) AddDatetimeArray(tag string, vs []int64) error {
	return w.write(tag, len(vs)*8, func(b *Builder) error { return b.AddDatetimeArray(tag, vs) })
}

// AddFloat64Array writes a Double array entry.
func (w *Writer) AddFloat64Array(tag string, vs []float64) error {
	return w.write(tag, len(vs)*8, func(b *Builder) error { return b.AddFloat64Array(tag, vs) })
}

// AddLeb128Array writes a Leb128 array entry.
func (w *Writer) AddLeb128Array(tag string, vs []int64) error {
	return w.write(tag, len(vs), func(b *Builder) error { return b.AddLeb128Array(tag, vs) })
}

// AddStringArray writes a String array entry.
func (w *Writer) AddStringArray(tag string, vs []string) error {
	need := 0
	for _, v := range vs {
		need += 1 + len(v)
	}

	return w.write(tag, need, func(b *Builder) error { return b.AddStringArray(tag, vs) })
}

// AddBinaryArray writes a Binary array entry.
func (w *Writer) AddBinaryArray(tag string, vs [][]byte) error {
	need := 0
	for _, v := range vs {
		need += 1 + len(v)
	}

	return w.write(tag, need, func(b *Builder) error { return b.AddBinaryArray(tag, vs) })
}

// write runs fn against the builder, growing the buffer and retrying while
// it fails with errs.ErrBufferTooSmall. payload is a lower bound on the
// payload size, used to grow once up front for large entries.
func (w *Writer) write(tag string, payload int, fn func(b *Builder) error) error {
	return w.writeEntry(tag, payload, true, fn)
}

// writeEntry is write with optional tag tracking. Continuation entries that
// extend an array already written under the same tag are not tracked.
//
// Tags are tracked in their wire form, where ill-formed bytes have become
// U+FFFD, so distinct Go strings that encode alike count as duplicates.
func (w *Writer) writeEntry(tag string, payload int, track bool, fn func(b *Builder) error) error {
	track = track && w.tracker != nil

	var wireTag string
	var tagHash uint64
	if track {
		wireTag = encoding.SanitizeString(tag)
		tagHash = hash.ID(wireTag)
		if w.tracker.Contains(wireTag, tagHash) {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateTag, wireTag)
		}
	}

	if need := entryOverhead + len(tag) + payload; need > w.builder.Remaining() {
		w.grow(need)
	}

	for {
		err := fn(&w.builder)
		if err == nil {
			break
		}
		if !errors.Is(err, errs.ErrBufferTooSmall) {
			return err
		}
		w.grow(w.builder.Remaining() + 1)
	}

	if track {
		return w.tracker.TrackTag(wireTag, tagHash)
	}

	return nil
}

// grow makes room for at least need bytes past the cursor.
func (w *Writer) grow(need int) {
	pos := w.builder.Len()
	w.buf.SetLength(pos)
	w.buf.Grow(need)
	w.rebind(pos)
}

// rebind points the builder at the whole buffer capacity with its cursor at pos.
func (w *Writer) rebind(pos int) {
	spare := w.buf.Spare()
	_ = w.builder.Reset(spare, 0, len(spare))
	w.builder.buf.Seek(pos)
}
