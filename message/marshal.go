package message

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"time"

	"github.com/arloliu/bflat/errs"
	"github.com/arloliu/bflat/format"
	"github.com/arloliu/bflat/internal/options"
	"github.com/arloliu/bflat/internal/pool"
)

// Marshal encodes m as a message with one entry per key, in sorted key order.
//
// Go values map to entry types as follows:
//   - nil: Null
//   - bool: Int8 (0 or 1)
//   - signed and unsigned integers: the smallest of Int8, Int16, Int32 and
//     Int64 that holds the value
//   - float32, float64: Double
//   - string: String
//   - []byte: Binary
//   - time.Time: Datetime, as Unix microseconds
//   - slices and arrays of the above: arrays
//
// A slice mixing kinds (say ints and strings) is written as consecutive
// array entries under the same tag, one per run of a single kind; Unmarshal
// joins them again. Integer runs are narrowed as a whole. An empty slice
// becomes a Null array of zero elements.
//
// Returns:
//   - []byte: the encoded message, owned by the caller
//   - error: errs.ErrUnsupportedType for values with no mapping, or any
//     usage error from the Writer (such as an empty key)
func Marshal(m map[string]any, opts ...WriterOption) ([]byte, error) {
	w, err := NewWriter(opts...)
	if err != nil {
		return nil, err
	}
	defer w.Release()

	if err := MarshalTo(w, m); err != nil {
		return nil, err
	}

	return bytes.Clone(w.Bytes()), nil
}

// MarshalTo appends the entries of m to w, see Marshal.
func MarshalTo(w *Writer, m map[string]any) error {
	for _, tag := range slices.Sorted(maps.Keys(m)) {
		if err := w.addAny(tag, m[tag]); err != nil {
			return err
		}
	}

	return nil
}

// Unmarshal decodes a message into a map keyed by tag.
//
// Integers of every width (and Leb128) decode as int64, Double as float64,
// String as string, Binary as a copied []byte, Datetime as a UTC time.Time
// and Null as nil. Arrays decode as []any. Consecutive array entries with
// the same tag are concatenated; otherwise a repeated tag keeps its last value.
//
// At most DefaultMaxElements array elements are decoded per message, or the
// budget set with WithMaxElements. A message over budget fails with
// errs.ErrTooManyElements before any of its elements are allocated.
func Unmarshal(data []byte, opts ...UnmarshalOption) (map[string]any, error) {
	cfg := &UnmarshalConfig{maxElements: DefaultMaxElements}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	out := make(map[string]any)

	var lastTag []byte
	lastArray := false
	budget := cfg.maxElements
	p := NewParser(data)
	for v, err := range p.All() {
		if err != nil {
			return nil, err
		}

		if v.IsArray() {
			if v.Len() > budget {
				return nil, fmt.Errorf("%w: array of %d elements for tag %q exceeds budget of %d",
					errs.ErrTooManyElements, v.Len(), v.Tag(), cfg.maxElements)
			}
			budget -= v.Len()
		}

		tag := v.Tag()
		val := decodeAny(v)
		if v.IsArray() && lastArray && bytes.Equal(v.TagBytes(), lastTag) {
			prev, _ := out[tag].([]any)
			out[tag] = append(prev, val.([]any)...)
		} else {
			out[tag] = val
		}

		lastTag = v.TagBytes()
		lastArray = v.IsArray()
	}

	return out, nil
}

func decodeAny(v *Value) any {
	if !v.IsArray() {
		return elementAny(v, 0)
	}

	vals := make([]any, v.Len())
	for i := range vals {
		vals[i] = elementAny(v, i)
	}

	return vals
}

func elementAny(v *Value, i int) any {
	switch v.Type() {
	case format.TypeString:
		return v.TextAt(i)
	case format.TypeBinary:
		return bytes.Clone(v.BytesAt(i))
	case format.TypeDouble:
		return v.Float64At(i)
	case format.TypeDatetime:
		return v.TimeAt(i)
	case format.TypeInt8, format.TypeInt16, format.TypeInt32, format.TypeInt64, format.TypeLeb128:
		return v.intAt(i)
	default:
		return nil
	}
}

// valueKind groups Go values that can share one array entry.
type valueKind uint8

const (
	kindUnsupported valueKind = iota
	kindNull
	kindInt
	kindFloat
	kindString
	kindBytes
	kindTime
)

func (w *Writer) addAny(tag string, v any) error {
	switch x := v.(type) {
	case nil:
		return w.AddNull(tag)
	case string:
		return w.AddString(tag, x)
	case []byte:
		return w.AddBinary(tag, x)
	case float64:
		return w.AddFloat64(tag, x)
	case float32:
		return w.AddFloat64(tag, float64(x))
	case time.Time:
		return w.AddDatetime(tag, x.UnixMicro())
	case []any:
		return w.addSlice(tag, x)
	case []string:
		if len(x) > 0 {
			return w.AddStringArray(tag, x)
		}
	case []float64:
		if len(x) > 0 {
			return w.AddFloat64Array(tag, x)
		}
	case []int64:
		if len(x) > 0 {
			return w.addIntRun(tag, x, true)
		}
	case [][]byte:
		if len(x) > 0 {
			return w.AddBinaryArray(tag, x)
		}
	}

	if kindOf(v) == kindInt {
		n, err := toInt64(tag, v)
		if err != nil {
			return err
		}

		return w.addInt(tag, n)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		elems := make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}

		return w.addSlice(tag, elems)
	}

	return fmt.Errorf("%w: %T for tag %q", errs.ErrUnsupportedType, v, tag)
}

func (w *Writer) addInt(tag string, n int64) error {
	switch smallestIntType(n, n) { //nolint:exhaustive
	case format.TypeInt8:
		return w.AddInt8(tag, int8(n)) //nolint:gosec
	case format.TypeInt16:
		return w.AddInt16(tag, int16(n)) //nolint:gosec
	case format.TypeInt32:
		return w.AddInt32(tag, int32(n)) //nolint:gosec
	default:
		return w.AddInt64(tag, n)
	}
}

// addSlice writes elems as one array entry per run of same-kind elements.
func (w *Writer) addSlice(tag string, elems []any) error {
	if len(elems) == 0 {
		return w.AddNullArray(tag, 0)
	}

	first := true
	for start := 0; start < len(elems); {
		kind := kindOf(elems[start])
		if kind == kindUnsupported {
			return fmt.Errorf("%w: %T in array for tag %q", errs.ErrUnsupportedType, elems[start], tag)
		}

		end := start + 1
		for end < len(elems) && kindOf(elems[end]) == kind {
			end++
		}

		if err := w.addRun(tag, kind, elems[start:end], first); err != nil {
			return err
		}
		first = false
		start = end
	}

	return nil
}

func (w *Writer) addRun(tag string, kind valueKind, run []any, first bool) error {
	switch kind { //nolint:exhaustive
	case kindNull:
		return w.writeEntry(tag, 0, first, func(b *Builder) error { return b.AddNullArray(tag, len(run)) })

	case kindInt, kindTime:
		ints, cleanup := pool.GetInt64Slice(len(run))
		defer cleanup()
		for i, e := range run {
			if t, ok := e.(time.Time); ok {
				ints[i] = t.UnixMicro()
				continue
			}
			n, err := toInt64(tag, e)
			if err != nil {
				return err
			}
			ints[i] = n
		}
		if kind == kindTime {
			return w.writeEntry(tag, len(ints)*8, first, func(b *Builder) error { return b.AddDatetimeArray(tag, ints) })
		}

		return w.addIntRun(tag, ints, first)

	case kindFloat:
		floats, cleanup := pool.GetFloat64Slice(len(run))
		defer cleanup()
		for i, e := range run {
			floats[i] = toFloat64(e)
		}

		return w.writeEntry(tag, len(floats)*8, first, func(b *Builder) error { return b.AddFloat64Array(tag, floats) })

	case kindString:
		strs, cleanup := pool.GetStringSlice(len(run))
		defer cleanup()
		need := 0
		for i, e := range run {
			strs[i], _ = e.(string)
			need += 1 + len(strs[i])
		}

		return w.writeEntry(tag, need, first, func(b *Builder) error { return b.AddStringArray(tag, strs) })

	default:
		bins, cleanup := pool.GetBytesSlice(len(run))
		defer cleanup()
		need := 0
		for i, e := range run {
			bins[i], _ = e.([]byte)
			need += 1 + len(bins[i])
		}

		return w.writeEntry(tag, need, first, func(b *Builder) error { return b.AddBinaryArray(tag, bins) })
	}
}

// addIntRun writes a non-empty ints as an array of the narrowest integer
// type holding all of them.
func (w *Writer) addIntRun(tag string, ints []int64, first bool) error {
	t := smallestIntType(slices.Min(ints), slices.Max(ints))

	return w.writeEntry(tag, len(ints)*t.Width(), first, func(b *Builder) error {
		return b.addIntArrayAs(t, tag, ints)
	})
}

// smallestIntType returns the narrowest fixed-width integer type holding [lo, hi].
func smallestIntType(lo, hi int64) format.ValueType {
	switch {
	case lo >= math.MinInt8 && hi <= math.MaxInt8:
		return format.TypeInt8
	case lo >= math.MinInt16 && hi <= math.MaxInt16:
		return format.TypeInt16
	case lo >= math.MinInt32 && hi <= math.MaxInt32:
		return format.TypeInt32
	default:
		return format.TypeInt64
	}
}

func kindOf(v any) valueKind {
	switch v.(type) {
	case nil:
		return kindNull
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindInt
	case float32, float64:
		return kindFloat
	case string:
		return kindString
	case []byte:
		return kindBytes
	case time.Time:
		return kindTime
	default:
		return kindUnsupported
	}
}

func toInt64(tag string, v any) (int64, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, nil
		}

		return 0, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		return uintToInt64(tag, uint64(x))
	case uint64:
		return uintToInt64(tag, x)
	default:
		return 0, fmt.Errorf("%w: %T is not an integer, tag %q", errs.ErrUnsupportedType, v, tag)
	}
}

func uintToInt64(tag string, x uint64) (int64, error) {
	if x > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64, tag %q", errs.ErrUnsupportedType, x, tag)
	}

	return int64(x), nil
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}
