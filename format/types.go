package format

// ValueType identifies the representation of an entry's payload.
//
// The constants hold the type code already shifted into bits 6-3 of the
// header byte, so a header is built by OR-ing a ValueType with the array
// flag and the inline tag length.
type ValueType uint8

const (
	TypeNull     ValueType = 0x0 << typeShift // TypeNull carries no payload.
	TypeString   ValueType = 0x1 << typeShift // TypeString is UTF-8 text, LEB128 length prefixed.
	TypeBinary   ValueType = 0x2 << typeShift // TypeBinary is raw bytes, LEB128 length prefixed.
	TypeInt8     ValueType = 0x3 << typeShift // TypeInt8 is a signed 8-bit integer.
	TypeInt16    ValueType = 0x4 << typeShift // TypeInt16 is a little-endian signed 16-bit integer.
	TypeInt32    ValueType = 0x5 << typeShift // TypeInt32 is a little-endian signed 32-bit integer.
	TypeInt64    ValueType = 0x6 << typeShift // TypeInt64 is a little-endian signed 64-bit integer.
	TypeDouble   ValueType = 0x7 << typeShift // TypeDouble is a little-endian IEEE-754 binary64.
	TypeDatetime ValueType = 0x8 << typeShift // TypeDatetime is a little-endian 64-bit timestamp.
	TypeLeb128   ValueType = 0x9 << typeShift // TypeLeb128 is a signed LEB128 integer.
)

// Header byte layout.
const (
	ArrayMask  byte = 0b1000_0000
	TypeMask   byte = 0b0111_1000
	LengthMask byte = 0b0000_0111

	// MaxInlineTagLength is the longest tag whose length fits in the header byte.
	MaxInlineTagLength = 7

	typeShift = 3
)

// Code returns the 4-bit type code (the value before shifting into the header).
func (t ValueType) Code() uint8 {
	return uint8(t) >> typeShift
}

// IsValid reports whether t is one of the ten defined types.
func (t ValueType) IsValid() bool {
	return byte(t)&^TypeMask == 0 && t.Code() <= TypeLeb128.Code()
}

// Width returns the encoded size of one element for fixed-width types and
// 0 for Null and the variable-length types.
func (t ValueType) Width() int {
	switch t {
	case TypeInt8:
		return 1
	case TypeInt16:
		return 2
	case TypeInt32:
		return 4
	case TypeInt64, TypeDouble, TypeDatetime:
		return 8
	default:
		return 0
	}
}

// IsFixedWidth reports whether elements of t have a constant encoded size.
func (t ValueType) IsFixedWidth() bool {
	return t.Width() > 0
}

// IsInteger reports whether t can be read as a 64-bit signed integer.
func (t ValueType) IsInteger() bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeDatetime, TypeLeb128:
		return true
	default:
		return false
	}
}

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "Null"
	case TypeString:
		return "String"
	case TypeBinary:
		return "Binary"
	case TypeInt8:
		return "Int8"
	case TypeInt16:
		return "Int16"
	case TypeInt32:
		return "Int32"
	case TypeInt64:
		return "Int64"
	case TypeDouble:
		return "Double"
	case TypeDatetime:
		return "Datetime"
	case TypeLeb128:
		return "Leb128"
	default:
		return "Unknown"
	}
}

// MakeHeader packs a header byte. inlineLen must be 0 (length follows as
// LEB128) or 1..MaxInlineTagLength.
func MakeHeader(t ValueType, isArray bool, inlineLen int) byte {
	h := byte(t) | byte(inlineLen)&LengthMask
	if isArray {
		h |= ArrayMask
	}

	return h
}

// ParseHeader splits a header byte into its fields. The returned type is
// not validated; use ValueType.IsValid.
func ParseHeader(b byte) (t ValueType, isArray bool, inlineLen int) {
	return ValueType(b & TypeMask), b&ArrayMask != 0, int(b & LengthMask)
}
