package message

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/bflat/endian"
	"github.com/arloliu/bflat/errs"
	"github.com/arloliu/bflat/format"
)

// span locates a String or Binary element inside the message.
type span struct {
	off int
	n   int
}

// Value is a decoded entry.
//
// A Value owns no bytes: it records offsets into the message it was parsed
// from, so it is only meaningful while that message is alive and unchanged.
// Use Clone to detach it.
//
// The typed getters (Int32, Text, ...) and their At variants assume the
// caller has checked Type; calling a getter of the wrong type returns
// garbage, and an index outside [0, Len()) panics. Int, Float and the Append
// methods check the type and return an error instead.
type Value struct {
	data    []byte
	start   int // entry start (header byte)
	end     int // entry end, exclusive
	typ     format.ValueType
	isArray bool
	count   int
	tagOff  int
	tagLen  int

	// First element: payload offset for fixed-width types (also the start of
	// the whole array), span for String/Binary, value for Leb128.
	off   int
	n     int
	first int64

	// Elements 1..count-1 of String/Binary and Leb128 arrays.
	spans []span
	lebs  []int64
}

// Type returns the entry type.
func (v *Value) Type() format.ValueType {
	return v.typ
}

// IsArray reports whether the entry is an array.
func (v *Value) IsArray() bool {
	return v.isArray
}

// Len returns the element count: 1 for scalars, the encoded count for arrays.
func (v *Value) Len() int {
	return v.count
}

// IsNull reports whether the entry is of type Null.
func (v *Value) IsNull() bool {
	return v.typ == format.TypeNull
}

// Tag returns the tag as a string. It allocates; use TagBytes to avoid that.
func (v *Value) Tag() string {
	return string(v.TagBytes())
}

// TagBytes returns the tag bytes. The slice aliases the message.
func (v *Value) TagBytes() []byte {
	return v.data[v.tagOff : v.tagOff+v.tagLen]
}

// Raw returns the complete encoded entry. The slice aliases the message.
func (v *Value) Raw() []byte {
	return v.data[v.start:v.end]
}

// Int8 returns element 0 of an Int8 entry.
func (v *Value) Int8() int8 { return v.Int8At(0) }

// Int16 returns element 0 of an Int16 entry.
func (v *Value) Int16() int16 { return v.Int16At(0) }

// Int32 returns element 0 of an Int32 entry.
func (v *Value) Int32() int32 { return v.Int32At(0) }

// Int64 returns element 0 of an Int64 entry.
func (v *Value) Int64() int64 { return v.Int64At(0) }

// Datetime returns element 0 of a Datetime entry.
func (v *Value) Datetime() int64 { return v.DatetimeAt(0) }

// Float64 returns element 0 of a Double entry.
func (v *Value) Float64() float64 { return v.Float64At(0) }

// Leb128 returns element 0 of a Leb128 entry.
func (v *Value) Leb128() int64 { return v.Leb128At(0) }

// Text returns element 0 of a String entry.
func (v *Value) Text() string { return v.TextAt(0) }

// Bytes returns element 0 of a Binary entry.
func (v *Value) Bytes() []byte { return v.BytesAt(0) }

// Time returns element 0 of a Datetime entry read as Unix microseconds, in UTC.
func (v *Value) Time() time.Time { return v.TimeAt(0) }

// Int8At returns element i of an Int8 entry.
func (v *Value) Int8At(i int) int8 {
	v.mustIndex(i)
	return fixedCodec.Int8(v.data, v.off+i)
}

// Int16At returns element i of an Int16 entry.
func (v *Value) Int16At(i int) int16 {
	v.mustIndex(i)
	return fixedCodec.Int16(v.data, v.off+i*2)
}

// Int32At returns element i of an Int32 entry.
func (v *Value) Int32At(i int) int32 {
	v.mustIndex(i)
	return fixedCodec.Int32(v.data, v.off+i*4)
}

// Int64At returns element i of an Int64 entry.
func (v *Value) Int64At(i int) int64 {
	v.mustIndex(i)
	return fixedCodec.Int64(v.data, v.off+i*8)
}

// DatetimeAt returns element i of a Datetime entry.
func (v *Value) DatetimeAt(i int) int64 {
	v.mustIndex(i)
	return fixedCodec.Int64(v.data, v.off+i*8)
}

// TimeAt returns element i of a Datetime entry read as Unix microseconds, in UTC.
func (v *Value) TimeAt(i int) time.Time {
	return time.UnixMicro(v.DatetimeAt(i)).UTC()
}

// Float64At returns element i of a Double entry.
func (v *Value) Float64At(i int) float64 {
	v.mustIndex(i)
	return fixedCodec.Float64(v.data, v.off+i*8)
}

// Leb128At returns element i of a Leb128 entry.
func (v *Value) Leb128At(i int) int64 {
	v.mustIndex(i)
	if i == 0 {
		return v.first
	}

	return v.lebs[i-1]
}

// TextAt returns element i of a String entry. It allocates.
func (v *Value) TextAt(i int) string {
	return string(v.BytesAt(i))
}

// BytesAt returns element i of a String or Binary entry. The slice aliases the message.
func (v *Value) BytesAt(i int) []byte {
	v.mustIndex(i)
	s := span{off: v.off, n: v.n}
	if i > 0 {
		s = v.spans[i-1]
	}

	return v.data[s.off : s.off+s.n]
}

// Int returns element 0 as an int64, see IntAt.
func (v *Value) Int() (int64, error) {
	return v.IntAt(0)
}

// IntAt returns element i of any integer entry widened to int64.
//
// Returns:
//   - int64: the element value
//   - error: errs.ErrNullValue for Null entries, errs.ErrTypeMismatch for
//     non-integer types, errs.ErrIndexOutOfRange for a bad index
func (v *Value) IntAt(i int) (int64, error) {
	if err := v.checkInteger("integer"); err != nil {
		return 0, err
	}
	if err := v.checkIndex(i); err != nil {
		return 0, err
	}

	return v.intAt(i), nil
}

// Float returns element 0 as a float64, see FloatAt.
func (v *Value) Float() (float64, error) {
	return v.FloatAt(0)
}

// FloatAt returns element i of a Double entry, or of an integer entry converted to float64.
func (v *Value) FloatAt(i int) (float64, error) {
	if v.typ != format.TypeDouble {
		if err := v.checkInteger("float"); err != nil {
			return 0, err
		}
	}
	if err := v.checkIndex(i); err != nil {
		return 0, err
	}

	if v.typ == format.TypeDouble {
		return v.Float64At(i), nil
	}

	return float64(v.intAt(i)), nil
}

// AppendInts appends every element of an integer entry to dst.
func (v *Value) AppendInts(dst []int64) ([]int64, error) {
	if err := v.checkInteger("integer"); err != nil {
		return dst, err
	}

	if v.typ == format.TypeLeb128 {
		if v.count == 0 {
			return dst, nil
		}
		dst = append(dst, v.first)

		return append(dst, v.lebs...), nil
	}

	for i := range v.count {
		dst = append(dst, v.intAt(i))
	}

	return dst, nil
}

// AppendFloat64s appends every element to dst. Doubles are copied as is and
// integers are converted.
func (v *Value) AppendFloat64s(dst []float64) ([]float64, error) {
	if v.typ != format.TypeDouble {
		if err := v.checkInteger("float"); err != nil {
			return dst, err
		}
		for i := range v.count {
			dst = append(dst, float64(v.intAt(i)))
		}

		return dst, nil
	}

	if endian.IsNativeLittleEndian() {
		return appendRawFloat64s(dst, v.data[v.off:v.off+v.count*8]), nil
	}
	for i := range v.count {
		dst = append(dst, v.Float64At(i))
	}

	return dst, nil
}

// Clone returns a copy of v that owns a private copy of the entry bytes.
func (v *Value) Clone() *Value {
	c := &Value{
		data:    append([]byte(nil), v.data[v.start:v.end]...),
		typ:     v.typ,
		isArray: v.isArray,
		count:   v.count,
		first:   v.first,
	}

	shift := v.start
	c.start = 0
	c.end = v.end - shift
	c.tagOff = v.tagOff - shift
	c.tagLen = v.tagLen
	c.off = v.off - shift
	c.n = v.n
	if len(v.spans) > 0 {
		c.spans = make([]span, len(v.spans))
		for i, s := range v.spans {
			c.spans[i] = span{off: s.off - shift, n: s.n}
		}
	}
	if len(v.lebs) > 0 {
		c.lebs = append([]int64(nil), v.lebs...)
	}

	return c
}

// maxListedNulls is the longest Null array String lists element by element.
const maxListedNulls = 16

// String renders the entry as tag=value, or tag=[v0, v1, ...] for arrays.
// Null renders as null, and a Null array longer than 16 elements renders as
// tag=[null x N]. Text and binary elements are rendered with strconv.Quote,
// so control characters, invalid UTF-8 and quotes come out Go-escaped.
func (v *Value) String() string {
	var sb strings.Builder
	sb.Write(v.TagBytes())
	sb.WriteByte('=')

	if !v.isArray {
		v.writeElement(&sb, 0)
		return sb.String()
	}

	if v.typ == format.TypeNull && v.count > maxListedNulls {
		sb.WriteString("[null x ")
		sb.WriteString(strconv.Itoa(v.count))
		sb.WriteByte(']')

		return sb.String()
	}

	sb.WriteByte('[')
	for i := range v.count {
		if i > 0 {
			sb.WriteString(", ")
		}
		v.writeElement(&sb, i)
	}
	sb.WriteByte(']')

	return sb.String()
}

func (v *Value) writeElement(sb *strings.Builder, i int) {
	switch v.typ {
	case format.TypeNull:
		sb.WriteString("null")
	case format.TypeString, format.TypeBinary:
		sb.WriteString(strconv.Quote(string(v.BytesAt(i))))
	case format.TypeDouble:
		sb.WriteString(strconv.FormatFloat(v.Float64At(i), 'g', -1, 64))
	case format.TypeInt8, format.TypeInt16, format.TypeInt32, format.TypeInt64, format.TypeDatetime, format.TypeLeb128:
		sb.WriteString(strconv.FormatInt(v.intAt(i), 10))
	default:
		sb.WriteString("?")
	}
}

// reset clears v for reuse, keeping the capacity of its element tables.
func (v *Value) reset(data []byte, start int) {
	v.data = data
	v.start = start
	v.end = start
	v.typ = format.TypeNull
	v.isArray = false
	v.count = 0
	v.tagOff, v.tagLen = 0, 0
	v.off, v.n = 0, 0
	v.first = 0
	v.spans = v.spans[:0]
	v.lebs = v.lebs[:0]
}

func (v *Value) mustIndex(i int) {
	if i < 0 || i >= v.count {
		panic(fmt.Sprintf("message: element index %d out of range [0, %d)", i, v.count))
	}
}

func (v *Value) checkIndex(i int) error {
	if i < 0 || i >= v.count {
		return fmt.Errorf("%w: index %d, length %d, tag %q", errs.ErrIndexOutOfRange, i, v.count, v.TagBytes())
	}

	return nil
}

// intAt reads element i of an integer entry. Type and index are already checked.
func (v *Value) intAt(i int) int64 {
	switch v.typ { //nolint:exhaustive
	case format.TypeInt8:
		return int64(fixedCodec.Int8(v.data, v.off+i))
	case format.TypeInt16:
		return int64(fixedCodec.Int16(v.data, v.off+i*2))
	case format.TypeInt32:
		return int64(fixedCodec.Int32(v.data, v.off+i*4))
	case format.TypeLeb128:
		return v.Leb128At(i)
	default:
		return fixedCodec.Int64(v.data, v.off+i*8)
	}
}

func (v *Value) checkInteger(want string) error {
	if v.typ.IsInteger() {
		return nil
	}
	if v.typ == format.TypeNull {
		return v.nullErr()
	}

	return v.mismatchErr(want)
}

func (v *Value) nullErr() error {
	return fmt.Errorf("%w: tag %q", errs.ErrNullValue, v.TagBytes())
}

func (v *Value) mismatchErr(want string) error {
	return fmt.Errorf("%w: %s to %s, tag %q", errs.ErrTypeMismatch, v.typ, want, v.TagBytes())
}
