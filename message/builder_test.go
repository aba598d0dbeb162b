package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bflat/errs"
	"github.com/arloliu/bflat/format"
)

func newTestBuilder(t *testing.T, size int) *Builder {
	t.Helper()
	return NewBuilder(make([]byte, size))
}

func parseOne(t *testing.T, data []byte) *Value {
	t.Helper()

	p := NewParser(data)
	v, err := p.Next()
	require.NoError(t, err)
	require.False(t, p.HasNext(), "expected a single entry")

	return v
}

func TestBuilder_AddInt32_Layout(t *testing.T) {
	b := newTestBuilder(t, 16)

	require.NoError(t, b.AddInt32("foo", 1))
	require.Equal(t, []byte{0x2B, 'f', 'o', 'o', 0x01, 0x00, 0x00, 0x00}, b.Bytes())
}

func TestBuilder_TagLengths(t *testing.T) {
	tests := []struct {
		name   string
		length int
		header []byte
	}{
		{"one byte", 1, []byte{0x19}},
		{"seven bytes", 7, []byte{0x1F}},
		{"eight bytes", 8, []byte{0x18, 0x08}},
		{"nine bytes", 9, []byte{0x18, 0x09}},
		{"16384 bytes", 16384, []byte{0x18, 0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := strings.Repeat("t", tt.length)

			for _, useBytes := range []bool{false, true} {
				b := newTestBuilder(t, tt.length+16)
				if useBytes {
					require.NoError(t, b.EncodeTag(format.TypeInt8, []byte(tag)))
				} else {
					require.NoError(t, b.EncodeTagString(format.TypeInt8, tag))
				}
				require.NoError(t, b.EncodeInt8(-3))

				out := b.Bytes()
				require.Equal(t, tt.header, out[:len(tt.header)])
				require.Len(t, out, len(tt.header)+tt.length+1)

				v := parseOne(t, out)
				require.Equal(t, tag, v.Tag())
				require.Equal(t, int8(-3), v.Int8())
			}
		})
	}
}

func TestBuilder_EmptyTag(t *testing.T) {
	b := newTestBuilder(t, 16)

	require.ErrorIs(t, b.EncodeTag(format.TypeNull, nil), errs.ErrEmptyTag)
	require.ErrorIs(t, b.EncodeTagString(format.TypeNull, ""), errs.ErrEmptyTag)
	require.ErrorIs(t, b.AddString("", "x"), errs.ErrUsage)
	require.ErrorIs(t, b.AddInt64Array("", []int64{1}), errs.ErrEmptyTag)
	require.Equal(t, 0, b.Len())
}

func TestBuilder_InvalidType(t *testing.T) {
	b := newTestBuilder(t, 16)

	err := b.EncodeTagString(format.ValueType(0x50), "a")
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
	require.Equal(t, 0, b.Len())
}

func TestBuilder_NegativeCount(t *testing.T) {
	b := newTestBuilder(t, 16)

	require.ErrorIs(t, b.EncodeTagArrayString(format.TypeInt8, "a", -1), errs.ErrInvalidCount)
	require.ErrorIs(t, b.AddNullArray("a", -2), errs.ErrInvalidCount)
	require.Equal(t, 0, b.Len())
}

func TestBuilder_SpeculativeTag(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected string
		header   []byte
	}{
		{"ascii inline", "abc", "abc", []byte{0x33}},
		{"multibyte inline", "é", "é", []byte{0x32}},
		{"non-bmp inline", "😀tag", "😀tag", []byte{0x37}},
		{"invalid stays inline", "ab\xff", "ab�", []byte{0x35}},
		{"invalid grows past inline", "\xff\xff\xff", "���", []byte{0x30, 0x09}},
		{"seven bytes with invalid", "abcdef\xff", "abcdef�", []byte{0x30, 0x09}},
		{"long tag patched in place", "abcdefgh\xff", "abcdefgh�", []byte{0x30, 0x0B}},
		{"long non-bmp", "tag😀😀", "tag😀😀", []byte{0x30, 0x0B}},
		{
			"long tag length widened",
			strings.Repeat("a", 120) + "\xff\xff\xff",
			strings.Repeat("a", 120) + "���",
			[]byte{0x30, 0x81, 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(t, 512)

			require.NoError(t, b.AddInt64(tt.tag, 42))

			out := b.Bytes()
			require.Equal(t, tt.header, out[:len(tt.header)])
			require.Len(t, out, len(tt.header)+len(tt.expected)+8)

			v := parseOne(t, out)
			require.Equal(t, tt.expected, v.Tag())
			require.Equal(t, int64(42), v.Int64())
		})
	}
}

func TestBuilder_SpeculativeString(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"empty", "", ""},
		{"ascii", "hello", "hello"},
		{"bmp", "ᄑ睷", "ᄑ睷"},
		{"non-bmp", "a😀b", "a😀b"},
		{"invalid same width", "x\xffy", "x�y"},
		{"invalid width change", strings.Repeat("z", 126) + "\xff", strings.Repeat("z", 126) + "�"},
		{"long valid", strings.Repeat("ü", 5000), strings.Repeat("ü", 5000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(t, 16384)

			require.NoError(t, b.AddString("s", tt.value))
			require.NoError(t, b.AddInt8("after", 7))

			p := NewParser(b.Bytes())
			v, err := p.Next()
			require.NoError(t, err)
			require.Equal(t, tt.expected, v.Text())

			v, err = p.Next()
			require.NoError(t, err)
			require.Equal(t, "after", v.Tag())
			require.Equal(t, int8(7), v.Int8())
		})
	}
}

func TestBuilder_BufferTooSmall_RestoresCursor(t *testing.T) {
	tests := []struct {
		name string
		add  func(b *Builder) error
	}{
		{"int32", func(b *Builder) error { return b.AddInt32("foo", 1) }},
		{"string", func(b *Builder) error { return b.AddString("foo", "a long string value") }},
		{"invalid short tag", func(b *Builder) error { return b.AddNull("\xff\xff\xff") }},
		{"long tag", func(b *Builder) error { return b.AddNull(strings.Repeat("x", 64)) }},
		{"string array", func(b *Builder) error { return b.AddStringArray("s", []string{"a", "b", "c"}) }},
		{"float array", func(b *Builder) error { return b.AddFloat64Array("f", []float64{1, 2}) }},
		{"leb128 array", func(b *Builder) error { return b.AddLeb128Array("l", []int64{1 << 40, -1 << 40}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, 10)
			for i := range data {
				data[i] = 0xAA
			}
			b, err := NewBuilderAt(data, 1, 9)
			require.NoError(t, err)
			require.NoError(t, b.AddInt8("k", 1))
			before := b.Len()

			err = tt.add(b)
			require.ErrorIs(t, err, errs.ErrBufferTooSmall)
			require.Equal(t, before, b.Len())
			require.Equal(t, byte(0xAA), data[0], "bytes before the region must never be touched")

			// The builder stays usable.
			v := parseOne(t, b.Bytes())
			require.Equal(t, "k", v.Tag())
		})
	}
}

func TestBuilder_ExactFit(t *testing.T) {
	b := newTestBuilder(t, 8)

	require.NoError(t, b.AddInt32("foo", 1))
	require.Equal(t, 0, b.Remaining())
	require.ErrorIs(t, b.AddNull("x"), errs.ErrBufferTooSmall)
}

func TestBuilder_ShiftedTagNeedsOneMoreByte(t *testing.T) {
	// header + length + 9 bytes of replacement characters
	b := newTestBuilder(t, 10)
	require.ErrorIs(t, b.AddNull("\xff\xff\xff"), errs.ErrBufferTooSmall)
	require.Equal(t, 0, b.Len())

	b = newTestBuilder(t, 11)
	require.NoError(t, b.AddNull("\xff\xff\xff"))
	require.Equal(t, 11, b.Len())
}

func TestBuilder_LowLevelArray(t *testing.T) {
	b := newTestBuilder(t, 64)

	require.NoError(t, b.EncodeTagArray(format.TypeInt16, []byte("arr"), 3))
	require.NoError(t, b.EncodeInt16(-1))
	require.NoError(t, b.EncodeInt16(256))
	require.NoError(t, b.EncodeInt16(7))

	require.Equal(t, []byte{0xA3, 'a', 'r', 'r', 0x03, 0xFF, 0xFF, 0x00, 0x01, 0x07, 0x00}, b.Bytes())

	v := parseOne(t, b.Bytes())
	require.True(t, v.IsArray())
	require.Equal(t, 3, v.Len())
	require.Equal(t, int16(256), v.Int16At(1))
}

func TestBuilder_ResetAndRewind(t *testing.T) {
	b := newTestBuilder(t, 32)
	require.NoError(t, b.AddInt8("a", 1))
	require.Equal(t, 3, b.Len())

	b.Rewind()
	require.Equal(t, 0, b.Len())
	require.Equal(t, 32, b.Remaining())

	data := make([]byte, 20)
	require.NoError(t, b.Reset(data, 4, 10))
	require.Equal(t, 4, b.Position())
	require.NoError(t, b.AddInt8("b", 2))
	require.Equal(t, []byte{0x19, 'b', 0x02}, data[4:7])

	require.ErrorIs(t, b.Reset(data, 15, 10), errs.ErrInvalidRange)
	_, err := NewBuilderAt(data, -1, 2)
	require.ErrorIs(t, err, errs.ErrInvalidRange)
}

func TestBuilder_Leb128Entry(t *testing.T) {
	b := newTestBuilder(t, 16)

	require.NoError(t, b.AddLeb128("x", -32767))
	require.Equal(t, []byte{0x49, 'x', 0x81, 0x80, 0x7E}, b.Bytes())
}

func TestBuilder_BinaryAndNull(t *testing.T) {
	b := newTestBuilder(t, 32)

	require.NoError(t, b.AddBinary("b", []byte{0x00, 0xFF}))
	require.NoError(t, b.AddNull("n"))
	require.NoError(t, b.AddNullArray("na", 4))

	require.Equal(t, []byte{
		0x11, 'b', 0x02, 0x00, 0xFF,
		0x01, 'n',
		0x82, 'n', 'a', 0x04,
	}, b.Bytes())
}
