package message

import (
	"strconv"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func benchSample() map[string]any {
	series := make([]float64, 64)
	for i := range series {
		series[i] = float64(i) * 0.25
	}

	return map[string]any{
		"host":    "node-17.example.internal",
		"port":    8443,
		"healthy": true,
		"load":    []float64{0.42, 0.37, 0.29},
		"labels":  []string{"region=eu-west", "tier=gold", "env=prod"},
		"series":  series,
		"payload": make([]byte, 128),
		"offset":  int64(1) << 40,
	}
}

func BenchmarkBuilder_Scalars(b *testing.B) {
	buf := make([]byte, 1024)
	builder := NewBuilder(buf)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		builder.Rewind()
		_ = builder.AddInt32("port", 8443)
		_ = builder.AddString("host", "node-17.example.internal")
		_ = builder.AddFloat64("load", 0.42)
		_ = builder.AddLeb128("offset", 1<<40)
	}
}

func BenchmarkBuilder_Float64Array(b *testing.B) {
	values := make([]float64, 1024)
	for i := range values {
		values[i] = float64(i)
	}
	buf := make([]byte, 16*1024)
	builder := NewBuilder(buf)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		builder.Rewind()
		_ = builder.AddFloat64Array("values", values)
	}
}

func BenchmarkBuilder_LongTags(b *testing.B) {
	tags := make([]string, 32)
	for i := range tags {
		tags[i] = "metric.subsystem.component.counter_" + strconv.Itoa(i)
	}
	buf := make([]byte, 4096)
	builder := NewBuilder(buf)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		builder.Rewind()
		for _, tag := range tags {
			_ = builder.AddInt8(tag, 1)
		}
	}
}

func BenchmarkParser(b *testing.B) {
	data, err := Marshal(benchSample())
	if err != nil {
		b.Fatal(err)
	}

	b.Run("Next", func(b *testing.B) {
		b.ReportAllocs()
		for b.Loop() {
			p := NewParser(data)
			for p.HasNext() {
				if _, err := p.Next(); err != nil {
					b.Fatal(err)
				}
			}
		}
	})

	b.Run("NextReuse", func(b *testing.B) {
		p := NewParser(data)
		b.ReportAllocs()
		for b.Loop() {
			_ = p.Reset(data, 0, len(data))
			for p.HasNext() {
				if _, err := p.NextReuse(); err != nil {
					b.Fatal(err)
				}
			}
		}
	})

	b.Run("All", func(b *testing.B) {
		p := NewParser(data)
		b.ReportAllocs()
		for b.Loop() {
			_ = p.Reset(data, 0, len(data))
			for _, err := range p.All() {
				if err != nil {
					b.Fatal(err)
				}
			}
		}
	})
}

func BenchmarkValue_AppendFloat64s(b *testing.B) {
	values := make([]float64, 1024)
	for i := range values {
		values[i] = float64(i) / 3
	}
	builder := NewBuilder(make([]byte, 16*1024))
	if err := builder.AddFloat64Array("v", values); err != nil {
		b.Fatal(err)
	}
	p := NewParser(builder.Bytes())
	v, err := p.Next()
	if err != nil {
		b.Fatal(err)
	}
	dst := make([]float64, 0, len(values))

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		dst, _ = v.AppendFloat64s(dst[:0])
	}
}

func BenchmarkIndex_Lookup(b *testing.B) {
	data, err := Marshal(benchSample())
	if err != nil {
		b.Fatal(err)
	}
	x, err := NewIndex(data)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, ok := x.Lookup("series"); !ok {
			b.Fatal("series not found")
		}
	}
}

func BenchmarkMarshal_VersusCBOR(b *testing.B) {
	sample := benchSample()

	b.Run("bflat", func(b *testing.B) {
		var size int
		b.ReportAllocs()
		for b.Loop() {
			data, err := Marshal(sample)
			if err != nil {
				b.Fatal(err)
			}
			size = len(data)
		}
		b.ReportMetric(float64(size), "bytes/msg")
	})

	b.Run("cbor", func(b *testing.B) {
		em, err := cbor.CoreDetEncOptions().EncMode()
		if err != nil {
			b.Fatal(err)
		}

		var size int
		b.ReportAllocs()
		for b.Loop() {
			data, err := em.Marshal(sample)
			if err != nil {
				b.Fatal(err)
			}
			size = len(data)
		}
		b.ReportMetric(float64(size), "bytes/msg")
	})
}

func BenchmarkUnmarshal_VersusCBOR(b *testing.B) {
	sample := benchSample()

	b.Run("bflat", func(b *testing.B) {
		data, err := Marshal(sample)
		if err != nil {
			b.Fatal(err)
		}

		b.ReportAllocs()
		for b.Loop() {
			if _, err := Unmarshal(data); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("cbor", func(b *testing.B) {
		data, err := cbor.Marshal(sample)
		if err != nil {
			b.Fatal(err)
		}

		b.ReportAllocs()
		for b.Loop() {
			var out map[string]any
			if err := cbor.Unmarshal(data, &out); err != nil {
				b.Fatal(err)
			}
		}
	})
}
