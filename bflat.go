// Package bflat provides a compact, flat binary format for tag-value messages.
//
// A bflat message is a sequence of self-describing entries with no outer
// header. Every entry carries a short tag, a type and one value or an array
// of values, so messages can be built without a schema, concatenated, and
// scanned without decoding payloads the reader does not need.
//
// # Core Features
//
//   - One header byte per entry, tags of up to seven bytes stored inline
//   - Ten value types: Null, String, Binary, Int8/16/32/64, Double,
//     Datetime and signed LEB128
//   - Allocation-free encoding into caller buffers
//   - Zero-copy decoding with reusable values
//   - Strict bounds checking of untrusted input
//
// # Basic Usage
//
// Encoding into a fixed buffer:
//
//	buf := make([]byte, 512)
//	b := bflat.NewBuilder(buf)
//	_ = b.AddString("host", "node-1")
//	_ = b.AddInt32("port", 8080)
//	_ = b.AddFloat64Array("load", []float64{0.42, 0.37})
//	msg := b.Bytes()
//
// Decoding:
//
//	p := bflat.NewParser(msg)
//	for v, err := range p.All() {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(v) // host="node-1", port=8080, load=[0.42, 0.37]
//	}
//
// # Package Structure
//
// This package wraps the message package for the common cases. Use message
// directly for the full Builder, Parser and Value API, encoding for the
// low-level codecs, and errs for the error kinds.
package bflat

import (
	"github.com/arloliu/bflat/internal/hash"
	"github.com/arloliu/bflat/message"
)

// NewBuilder creates a Builder that writes a message into buf.
//
// The Builder never grows buf. An entry that does not fit fails with
// errs.ErrBufferTooSmall and leaves the message unchanged, so the caller can
// retry the entry with a larger buffer.
//
// Example:
//
//	b := bflat.NewBuilder(make([]byte, 64))
//	if err := b.AddInt64("seq", 42); err != nil {
//	    return err
//	}
func NewBuilder(buf []byte) *message.Builder {
	return message.NewBuilder(buf)
}

// NewWriter creates a Writer, a Builder over a pooled buffer that grows as
// needed.
//
// Parameters:
//   - opts: Optional configuration (message.WithInitialSize, message.WithUniqueTags)
//
// Returns:
//   - *message.Writer: The created writer. Call Release when done.
//   - error: An error if an option is invalid.
func NewWriter(opts ...message.WriterOption) (*message.Writer, error) {
	return message.NewWriter(opts...)
}

// NewParser creates a Parser over a complete message.
//
// The Parser validates each entry as it advances and never reads past the
// end of data, so data may come from an untrusted source.
func NewParser(data []byte) *message.Parser {
	return message.NewParser(data)
}

// NewIndex scans a message once and returns an Index for lookups by tag.
//
// Returns:
//   - *message.Index: The created index.
//   - error: The first decoding error in data, or an invalid option.
func NewIndex(data []byte, opts ...message.IndexOption) (*message.Index, error) {
	return message.NewIndex(data, opts...)
}

// Marshal encodes a map as a message, one entry per key in sorted key order.
// See message.Marshal for the mapping of Go values to entry types.
func Marshal(m map[string]any) ([]byte, error) {
	return message.Marshal(m)
}

// Unmarshal decodes a message into a map keyed by tag.
// See message.Unmarshal for the Go types produced and the element budget.
func Unmarshal(data []byte, opts ...message.UnmarshalOption) (map[string]any, error) {
	return message.Unmarshal(data, opts...)
}

// TagID returns the 64-bit xxHash of a tag, the key Index buckets entries by.
//
// Use it to shard or route messages by tag without keeping the tag strings.
func TagID(tag string) uint64 {
	return hash.ID(tag)
}
