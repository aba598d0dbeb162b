package message

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bflat/errs"
	"github.com/arloliu/bflat/format"
)

// entryTypes decodes data and returns the type of each entry by tag.
func entryTypes(t *testing.T, data []byte) map[string]format.ValueType {
	t.Helper()

	types := make(map[string]format.ValueType)
	for v, err := range NewParser(data).All() {
		require.NoError(t, err)
		types[v.Tag()] = v.Type()
	}

	return types
}

func TestMarshal_IntegerNarrowing(t *testing.T) {
	data, err := Marshal(map[string]any{
		"int8":     -128,
		"int16":    300,
		"uint8":    uint8(200),
		"int32":    int64(-70000),
		"int64":    int64(1) << 40,
		"uint64":   uint64(math.MaxInt64),
		"bool":     true,
		"array8":   []int{1, -1},
		"array16":  []int{1, 1000},
		"array64":  []int64{0, math.MinInt64},
		"uint32":   []uint32{math.MaxUint32},
		"boolList": []bool{true, false},
	})
	require.NoError(t, err)

	require.Equal(t, map[string]format.ValueType{
		"int8":     format.TypeInt8,
		"int16":    format.TypeInt16,
		"uint8":    format.TypeInt16,
		"int32":    format.TypeInt32,
		"int64":    format.TypeInt64,
		"uint64":   format.TypeInt64,
		"bool":     format.TypeInt8,
		"array8":   format.TypeInt8,
		"array16":  format.TypeInt16,
		"array64":  format.TypeInt64,
		"uint32":   format.TypeInt64,
		"boolList": format.TypeInt8,
	}, entryTypes(t, data))

	m, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"int8":     int64(-128),
		"int16":    int64(300),
		"uint8":    int64(200),
		"int32":    int64(-70000),
		"int64":    int64(1) << 40,
		"uint64":   int64(math.MaxInt64),
		"bool":     int64(1),
		"array8":   []any{int64(1), int64(-1)},
		"array16":  []any{int64(1), int64(1000)},
		"array64":  []any{int64(0), int64(math.MinInt64)},
		"uint32":   []any{int64(math.MaxUint32)},
		"boolList": []any{int64(1), int64(0)},
	}, m)
}

func TestMarshal_RoundTrip(t *testing.T) {
	ts := time.Date(2023, 7, 1, 12, 30, 0, 250_000, time.UTC)

	in := map[string]any{
		"null":    nil,
		"name":    "sensor",
		"payload": []byte{0x00, 0x01},
		"temp":    21.5,
		"ratio":   float32(0.25),
		"at":      ts,
		"names":   []string{"a", "b"},
		"floats":  []float64{1.5, -2},
		"f32s":    []float32{0.5},
		"blobs":   [][]byte{{1}, {}},
		"times":   []any{ts, ts.Add(time.Second)},
		"tags":    [3]string{"x", "y", "z"},
		"unicode": "héllo 😀",
	}

	data, err := Marshal(in)
	require.NoError(t, err)

	out, err := Unmarshal(data)
	require.NoError(t, err)

	require.Equal(t, map[string]any{
		"null":    nil,
		"name":    "sensor",
		"payload": []byte{0x00, 0x01},
		"temp":    21.5,
		"ratio":   0.25,
		"at":      ts,
		"names":   []any{"a", "b"},
		"floats":  []any{1.5, -2.0},
		"f32s":    []any{0.5},
		"blobs":   []any{[]byte{1}, []byte{}},
		"times":   []any{ts, ts.Add(time.Second)},
		"tags":    []any{"x", "y", "z"},
		"unicode": "héllo 😀",
	}, out)
}

func TestMarshal_MixedSliceRuns(t *testing.T) {
	data, err := Marshal(map[string]any{
		"mixed": []any{1, 2, "x", 3.5, nil, nil, 300},
	})
	require.NoError(t, err)

	var entries []string
	for v, err := range NewParser(data).All() {
		require.NoError(t, err)
		require.Equal(t, "mixed", v.Tag())
		require.True(t, v.IsArray())
		entries = append(entries, v.String())
	}
	require.Equal(t, []string{
		"mixed=[1, 2]",
		`mixed=["x"]`,
		"mixed=[3.5]",
		"mixed=[null, null]",
		"mixed=[300]",
	}, entries)

	m, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), int64(2), "x", 3.5, nil, nil, int64(300)}, m["mixed"])
}

func TestMarshal_EmptySlices(t *testing.T) {
	data, err := Marshal(map[string]any{
		"any":     []any{},
		"ints":    []int64{},
		"strings": []string{},
		"nilList": []float64(nil),
	})
	require.NoError(t, err)

	for v, err := range NewParser(data).All() {
		require.NoError(t, err)
		require.True(t, v.IsArray(), v.Tag())
		require.True(t, v.IsNull(), v.Tag())
		require.Equal(t, 0, v.Len(), v.Tag())
	}

	m, err := Unmarshal(data)
	require.NoError(t, err)
	for _, tag := range []string{"any", "ints", "strings", "nilList"} {
		require.Equal(t, []any{}, m[tag], tag)
	}
}

func TestMarshal_SortedAndDeterministic(t *testing.T) {
	in := map[string]any{"c": 3, "a": 1, "b": 2}

	first, err := Marshal(in)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x19, 'a', 0x01,
		0x19, 'b', 0x02,
		0x19, 'c', 0x03,
	}, first)

	for range 10 {
		again, err := Marshal(in)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestMarshal_Errors(t *testing.T) {
	tests := []struct {
		name     string
		in       map[string]any
		expected error
	}{
		{"struct", map[string]any{"s": struct{}{}}, errs.ErrUnsupportedType},
		{"map", map[string]any{"m": map[string]any{}}, errs.ErrUnsupportedType},
		{"uint64 overflow", map[string]any{"u": uint64(math.MaxUint64)}, errs.ErrUnsupportedType},
		{"uint overflow in slice", map[string]any{"u": []uint64{1, math.MaxUint64}}, errs.ErrUnsupportedType},
		{"unsupported element", map[string]any{"c": []any{1, make(chan int)}}, errs.ErrUnsupportedType},
		{"pointer", map[string]any{"p": new(int)}, errs.ErrUnsupportedType},
		{"empty key", map[string]any{"": 1}, errs.ErrEmptyTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.in)
			require.ErrorIs(t, err, tt.expected)
			require.ErrorIs(t, err, errs.ErrUsage)
			require.Nil(t, data)
		})
	}
}

func TestMarshalTo_UniqueTags(t *testing.T) {
	w := newTestWriter(t, WithUniqueTags())
	require.NoError(t, w.AddInt8("a", 1))

	err := MarshalTo(w, map[string]any{"a": 2})
	require.ErrorIs(t, err, errs.ErrDuplicateTag)

	// Continuation runs of one slice share the tag without tripping the check.
	require.NoError(t, MarshalTo(w, map[string]any{"b": []any{1, "x", 2.5}}))

	m, err := Unmarshal(w.Bytes())
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"a": int64(1),
		"b": []any{int64(1), "x", 2.5},
	}, m)
}

func TestUnmarshal_RepeatedTags(t *testing.T) {
	b := newTestBuilder(t, 128)
	require.NoError(t, b.AddInt8("s", 1))
	require.NoError(t, b.AddInt8("s", 2))
	require.NoError(t, b.AddInt8Array("arr", []int8{1}))
	require.NoError(t, b.AddInt8Array("arr", []int8{2, 3}))
	require.NoError(t, b.AddNull("sep"))
	require.NoError(t, b.AddInt8Array("arr", []int8{4}))
	require.NoError(t, b.AddInt8Array("x", []int8{5}))
	require.NoError(t, b.AddInt8("x", 6))

	m, err := Unmarshal(b.Bytes())
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"s":   int64(2),
		"arr": []any{int64(4)},
		"sep": nil,
		"x":   int64(6),
	}, m)
}

func TestUnmarshal_JoinsConsecutiveArrays(t *testing.T) {
	b := newTestBuilder(t, 128)
	require.NoError(t, b.AddInt8Array("arr", []int8{1}))
	require.NoError(t, b.AddInt8Array("arr", []int8{2, 3}))
	require.NoError(t, b.AddStringArray("arr", []string{"four"}))

	m, err := Unmarshal(b.Bytes())
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), int64(2), int64(3), "four"}, m["arr"])
}

func TestUnmarshal_Malformed(t *testing.T) {
	m, err := Unmarshal([]byte{0x19, 'a', 0x01, 0x31, 'b'})
	require.ErrorIs(t, err, errs.ErrMalformedDocument)
	require.Nil(t, m)

	m, err = Unmarshal(nil)
	require.NoError(t, err)
	require.Empty(t, m)
}

func TestUnmarshal_ElementBudget(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"null array of 1<<27", []byte{0x81, 'a', 0x80, 0x80, 0x80, 0x40}},
		{"null array of MaxInt32", []byte{0x81, 'a', 0xFF, 0xFF, 0xFF, 0xFF, 0x07}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Unmarshal(tt.data)
			require.ErrorIs(t, err, errs.ErrTooManyElements)
			require.ErrorIs(t, err, errs.ErrMalformedDocument)
			require.Nil(t, m)

			// The entry itself is well-formed and stays cheap to inspect.
			v := parseOne(t, tt.data)
			require.True(t, v.IsNull())
			require.Contains(t, v.String(), "a=[null x ")
		})
	}
}

func TestUnmarshal_ElementBudgetSpansEntries(t *testing.T) {
	b := newTestBuilder(t, 64)
	require.NoError(t, b.AddNullArray("a", 3))
	require.NoError(t, b.AddInt8Array("b", []int8{1, 2, 3}))

	_, err := Unmarshal(b.Bytes(), WithMaxElements(5))
	require.ErrorIs(t, err, errs.ErrTooManyElements)

	m, err := Unmarshal(b.Bytes(), WithMaxElements(6))
	require.NoError(t, err)
	require.Equal(t, []any{nil, nil, nil}, m["a"])
	require.Equal(t, []any{int64(1), int64(2), int64(3)}, m["b"])

	_, err = Unmarshal(b.Bytes(), WithMaxElements(0))
	require.ErrorIs(t, err, errs.ErrInvalidOption)
}
