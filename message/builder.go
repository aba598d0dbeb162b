package message

import (
	"fmt"

	"github.com/arloliu/bflat/encoding"
	"github.com/arloliu/bflat/errs"
	"github.com/arloliu/bflat/format"
)

// fixedCodec is shared by the builder, parser and value accessors.
var fixedCodec = encoding.NewFixedCodec()

// Builder encodes entries into a caller-provided byte region.
//
// A Builder never grows its region. Every method either completes or fails
// with an error and leaves the cursor where it was before the call, so a
// failed entry never leaves a partial header behind. Use Writer when the
// output size is not known up front.
//
// Entries are written in two steps: a tag (EncodeTag and friends) followed
// by the payload (EncodeString, EncodeInt32, ...). The Add methods do both
// in one call and are what most callers want.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	buf encoding.Buffer
}

// NewBuilder returns a Builder that encodes into the whole of data.
func NewBuilder(data []byte) *Builder {
	b := &Builder{}
	_ = b.buf.Reset(data, 0, len(data))

	return b
}

// NewBuilderAt returns a Builder that encodes into data[start:start+length].
//
// Returns:
//   - *Builder: the builder, with its cursor at start
//   - error: errs.ErrInvalidRange if the region is outside data
func NewBuilderAt(data []byte, start, length int) (*Builder, error) {
	b := &Builder{}
	if err := b.Reset(data, start, length); err != nil {
		return nil, err
	}

	return b, nil
}

// Reset points the builder at a new region and moves the cursor to its start.
func (b *Builder) Reset(data []byte, start, length int) error {
	return b.buf.Reset(data, start, length)
}

// Rewind moves the cursor back to the start of the region, discarding all entries.
func (b *Builder) Rewind() {
	b.buf.Rewind()
}

// Bytes returns the encoded message. The slice aliases the region.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the number of encoded bytes.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Position returns the absolute cursor position within the backing array.
func (b *Builder) Position() int {
	return b.buf.Position()
}

// Remaining returns the free space left in the region.
func (b *Builder) Remaining() int {
	return b.buf.Remaining()
}

// EncodeTag writes the header and tag of a scalar entry of type t.
//
// Tags shorter than 8 bytes are stored with their length inline in the
// header byte; longer tags get an unsigned LEB128 length after it. The tag
// bytes are written verbatim.
//
// Returns:
//   - error: errs.ErrEmptyTag for an empty tag, errs.ErrUnsupportedType for an
//     invalid t, errs.ErrBufferTooSmall if the region is full
func (b *Builder) EncodeTag(t format.ValueType, tag []byte) error {
	return b.atomic(func() error {
		return b.putTagBytes(t, false, tag)
	})
}

// EncodeTagString is EncodeTag for a string tag, transcoded to UTF-8 in place.
func (b *Builder) EncodeTagString(t format.ValueType, tag string) error {
	return b.atomic(func() error {
		return b.putTagString(t, false, tag)
	})
}

// EncodeTagArray writes the header, tag and element count of an array entry.
// The count elements must follow, each written with the Encode method of t.
func (b *Builder) EncodeTagArray(t format.ValueType, tag []byte, count int) error {
	return b.atomic(func() error {
		if err := b.putTagBytes(t, true, tag); err != nil {
			return err
		}

		return b.putCount(count)
	})
}

// EncodeTagArrayString is EncodeTagArray for a string tag.
func (b *Builder) EncodeTagArrayString(t format.ValueType, tag string, count int) error {
	return b.atomic(func() error {
		if err := b.putTagString(t, true, tag); err != nil {
			return err
		}

		return b.putCount(count)
	})
}

// EncodeString writes a String element: LEB128 byte length and UTF-8 bytes.
func (b *Builder) EncodeString(s string) error {
	return b.atomic(func() error {
		return b.putText(s)
	})
}

// EncodeBinary writes a Binary element: LEB128 byte length and the raw bytes.
func (b *Builder) EncodeBinary(p []byte) error {
	return b.atomic(func() error {
		return b.putBinary(p)
	})
}

// EncodeInt8 writes an Int8 element.
func (b *Builder) EncodeInt8(v int8) error {
	return fixedCodec.PutInt8(&b.buf, v)
}

// EncodeInt16 writes an Int16 element.
func (b *Builder) EncodeInt16(v int16) error {
	return fixedCodec.PutInt16(&b.buf, v)
}

// EncodeInt32 writes an Int32 element.
func (b *Builder) EncodeInt32(v int32) error {
	return fixedCodec.PutInt32(&b.buf, v)
}

// EncodeInt64 writes an Int64 element.
func (b *Builder) EncodeInt64(v int64) error {
	return fixedCodec.PutInt64(&b.buf, v)
}

// EncodeFloat64 writes a Double element.
func (b *Builder) EncodeFloat64(v float64) error {
	return fixedCodec.PutFloat64(&b.buf, v)
}

// EncodeDatetime writes a Datetime element. The unit is up to the caller;
// Marshal and Value.Time use Unix microseconds.
func (b *Builder) EncodeDatetime(v int64) error {
	return fixedCodec.PutInt64(&b.buf, v)
}

// EncodeLeb128 writes a Leb128 element as signed LEB128.
func (b *Builder) EncodeLeb128(v int64) error {
	_, err := encoding.PutSigned(&b.buf, v)
	return err
}

// atomic runs fn and rewinds the cursor if it fails.
func (b *Builder) atomic(fn func() error) error {
	mark := b.buf.Position()
	if err := fn(); err != nil {
		b.buf.Seek(mark)
		return err
	}

	return nil
}

func (b *Builder) putCount(count int) error {
	if count < 0 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidCount, count)
	}

	_, err := encoding.PutUnsigned(&b.buf, uint64(count))

	return err
}

func checkTagType(t format.ValueType) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: value type code %d", errs.ErrUnsupportedType, t.Code())
	}

	return nil
}

func (b *Builder) putTagBytes(t format.ValueType, isArray bool, tag []byte) error {
	if err := checkTagType(t); err != nil {
		return err
	}
	if len(tag) == 0 {
		return errs.ErrEmptyTag
	}

	if len(tag) <= format.MaxInlineTagLength {
		if err := b.buf.WriteByte(format.MakeHeader(t, isArray, len(tag))); err != nil {
			return err
		}

		return b.buf.WriteBytes(tag)
	}

	if err := b.buf.WriteByte(format.MakeHeader(t, isArray, 0)); err != nil {
		return err
	}

	return b.putBinary(tag)
}

// putTagString writes the header and tag without knowing the transcoded
// size up front.
//
// Short input (under 8 bytes) is transcoded directly after a header
// placeholder. If replacement characters push the output to 8 bytes or
// more, the text is shifted one byte right to make room for the LEB128
// length, which always fits in one byte since the output cannot exceed 21
// bytes. Longer input goes through putText.
func (b *Builder) putTagString(t format.ValueType, isArray bool, tag string) error {
	if err := checkTagType(t); err != nil {
		return err
	}
	if len(tag) == 0 {
		return errs.ErrEmptyTag
	}

	if len(tag) > format.MaxInlineTagLength {
		if err := b.buf.WriteByte(format.MakeHeader(t, isArray, 0)); err != nil {
			return err
		}

		return b.putText(tag)
	}

	hdrPos, err := b.buf.Reserve(1)
	if err != nil {
		return err
	}

	data := b.buf.Data()
	textPos := hdrPos + 1
	n, err := encoding.TranscodeString(data[textPos:b.buf.End()], tag)
	if err != nil {
		return err
	}

	if n <= format.MaxInlineTagLength {
		data[hdrPos] = format.MakeHeader(t, isArray, n)
		_, err = b.buf.Reserve(n)

		return err
	}

	if b.buf.End()-textPos < n+1 {
		return fmt.Errorf("%w: need %d bytes for tag, %d remaining", errs.ErrBufferTooSmall, n+1, b.buf.End()-textPos)
	}
	copy(data[textPos+1:], data[textPos:textPos+n])
	data[hdrPos] = format.MakeHeader(t, isArray, 0)
	data[textPos] = byte(n)
	_, err = b.buf.Reserve(n + 1)

	return err
}

// putText writes a LEB128 length followed by the UTF-8 form of s.
//
// The length is first written for len(s), which is exact for valid UTF-8.
// When invalid bytes were replaced the output is longer: if the new length
// still fits the same number of LEB128 bytes only the length is patched,
// otherwise the text is transcoded again after the wider length.
func (b *Builder) putText(s string) error {
	lenPos := b.buf.Position()
	width, err := encoding.PutUnsigned(&b.buf, uint64(len(s)))
	if err != nil {
		return err
	}

	data := b.buf.Data()
	n, err := encoding.TranscodeString(data[lenPos+width:b.buf.End()], s)
	if err != nil {
		return err
	}

	if n != len(s) {
		b.buf.Seek(lenPos)
		newWidth, err := encoding.PutUnsigned(&b.buf, uint64(n))
		if err != nil {
			return err
		}

		if newWidth != width {
			if n, err = encoding.TranscodeString(data[lenPos+newWidth:b.buf.End()], s); err != nil {
				return err
			}
		}
	}

	_, err = b.buf.Reserve(n)

	return err
}

func (b *Builder) putBinary(p []byte) error {
	if _, err := encoding.PutUnsigned(&b.buf, uint64(len(p))); err != nil {
		return err
	}

	return b.buf.WriteBytes(p)
}
