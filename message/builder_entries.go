package message

import (
	"fmt"

	"github.com/arloliu/bflat/encoding"
	"github.com/arloliu/bflat/format"
)

// AddNull writes a Null entry.
func (b *Builder) AddNull(tag string) error {
	return b.EncodeTagString(format.TypeNull, tag)
}

// AddString writes a String entry.
func (b *Builder) AddString(tag, v string) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeString, false, tag); err != nil {
			return err
		}

		return b.putText(v)
	})
}

// AddBinary writes a Binary entry.
func (b *Builder) AddBinary(tag string, v []byte) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeBinary, false, tag); err != nil {
			return err
		}

		return b.putBinary(v)
	})
}

// AddInt8 writes an Int8 entry.
func (b *Builder) AddInt8(tag string, v int8) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeInt8, false, tag); err != nil {
			return err
		}

		return fixedCodec.PutInt8(&b.buf, v)
	})
}

// AddInt16 writes an Int16 entry.
func (b *Builder) AddInt16(tag string, v int16) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeInt16, false, tag); err != nil {
			return err
		}

		return fixedCodec.PutInt16(&b.buf, v)
	})
}

// AddInt32 writes an Int32 entry.
func (b *Builder) AddInt32(tag string, v int32) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeInt32, false, tag); err != nil {
			return err
		}

		return fixedCodec.PutInt32(&b.buf, v)
	})
}

// AddInt64 writes an Int64 entry.
func (b *Builder) AddInt64(tag string, v int64) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeInt64, false, tag); err != nil {
			return err
		}

		return fixedCodec.PutInt64(&b.buf, v)
	})
}

// AddFloat64 writes a Double entry.
func (b *Builder) AddFloat64(tag string, v float64) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeDouble, false, tag); err != nil {
			return err
		}

		return fixedCodec.PutFloat64(&b.buf, v)
	})
}

// AddDatetime writes a Datetime entry.
func (b *Builder) AddDatetime(tag string, v int64) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeDatetime, false, tag); err != nil {
			return err
		}

		return fixedCodec.PutInt64(&b.buf, v)
	})
}

// AddLeb128 writes a Leb128 entry.
func (b *Builder) AddLeb128(tag string, v int64) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeLeb128, false, tag); err != nil {
			return err
		}
		_, err := encoding.PutSigned(&b.buf, v)

		return err
	})
}

// AddNullArray writes a Null array entry of count elements. It has no payload.
func (b *Builder) AddNullArray(tag string, count int) error {
	return b.EncodeTagArrayString(format.TypeNull, tag, count)
}

// AddInt8Array writes an Int8 array entry.
func (b *Builder) AddInt8Array(tag string, vs []int8) error {
	return b.addFixedArray(format.TypeInt8, tag, len(vs), func(data []byte) {
		for i, v := range vs {
			data[i] = byte(v) //nolint:gosec
		}
	})
}

// AddInt16Array writes an Int16 array entry.
func (b *Builder) AddInt16Array(tag string, vs []int16) error {
	return b.addFixedArray(format.TypeInt16, tag, len(vs), func(data []byte) {
		for i, v := range vs {
			fixedCodec.PutInt16At(data, i*2, v)
		}
	})
}

// AddInt32Array writes an Int32 array entry.
func (b *Builder) AddInt32Array(tag string, vs []int32) error {
	return b.addFixedArray(format.TypeInt32, tag, len(vs), func(data []byte) {
		for i, v := range vs {
			fixedCodec.PutInt32At(data, i*4, v)
		}
	})
}

// AddInt64Array writes an Int64 array entry.
func (b *Builder) AddInt64Array(tag string, vs []int64) error {
	return b.addFixedArray(format.TypeInt64, tag, len(vs), func(data []byte) {
		for i, v := range vs {
			fixedCodec.PutInt64At(data, i*8, v)
		}
	})
}

// AddDatetimeArray writes a Datetime array entry.
func (b *Builder) AddDatetimeArray(tag string, vs []int64) error {
	return b.addFixedArray(format.TypeDatetime, tag, len(vs), func(data []byte) {
		for i, v := range vs {
			fixedCodec.PutInt64At(data, i*8, v)
		}
	})
}

// AddFloat64Array writes a Double array entry.
func (b *Builder) AddFloat64Array(tag string, vs []float64) error {
	return b.addFixedArray(format.TypeDouble, tag, len(vs), func(data []byte) {
		for i, v := range vs {
			fixedCodec.PutFloat64At(data, i*8, v)
		}
	})
}

// AddLeb128Array writes a Leb128 array entry.
func (b *Builder) AddLeb128Array(tag string, vs []int64) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeLeb128, true, tag); err != nil {
			return err
		}
		if err := b.putCount(len(vs)); err != nil {
			return err
		}
		for _, v := range vs {
			if _, err := encoding.PutSigned(&b.buf, v); err != nil {
				return err
			}
		}

		return nil
	})
}

// AddStringArray writes a String array entry.
func (b *Builder) AddStringArray(tag string, vs []string) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeString, true, tag); err != nil {
			return err
		}
		if err := b.putCount(len(vs)); err != nil {
			return err
		}
		for _, v := range vs {
			if err := b.putText(v); err != nil {
				return err
			}
		}

		return nil
	})
}

// AddBinaryArray writes a Binary array entry.
func (b *Builder) AddBinaryArray(tag string, vs [][]byte) error {
	return b.atomic(func() error {
		if err := b.putTagString(format.TypeBinary, true, tag); err != nil {
			return err
		}
		if err := b.putCount(len(vs)); err != nil {
			return err
		}
		for _, v := range vs {
			if err := b.putBinary(v); err != nil {
				return err
			}
		}

		return nil
	})
}

// addIntArrayAs writes vs as an integer array of type t. Every element must
// fit in t; Marshal picks t from the range of vs.
func (b *Builder) addIntArrayAs(t format.ValueType, tag string, vs []int64) error {
	return b.addFixedArray(t, tag, len(vs), func(data []byte) {
		for i, v := range vs {
			switch t { //nolint:exhaustive
			case format.TypeInt8:
				data[i] = byte(v) //nolint:gosec
			case format.TypeInt16:
				fixedCodec.PutInt16At(data, i*2, int16(v)) //nolint:gosec
			case format.TypeInt32:
				fixedCodec.PutInt32At(data, i*4, int32(v)) //nolint:gosec
			default:
				fixedCodec.PutInt64At(data, i*8, v)
			}
		}
	})
}

// addFixedArray writes the tag and count, reserves count*width bytes and
// lets fill write the elements into the reserved span.
func (b *Builder) addFixedArray(t format.ValueType, tag string, count int, fill func(data []byte)) error {
	return b.atomic(func() error {
		if err := b.putTagString(t, true, tag); err != nil {
			return err
		}
		if err := b.putCount(count); err != nil {
			return err
		}

		size := count * t.Width()
		pos, err := b.buf.Reserve(size)
		if err != nil {
			return fmt.Errorf("%w: while encoding %d %s elements", err, count, t)
		}
		fill(b.buf.Data()[pos : pos+size])

		return nil
	})
}
