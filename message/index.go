package message

import (
	"github.com/arloliu/bflat/internal/hash"
	"github.com/arloliu/bflat/internal/options"
)

// Index maps the tags of one message to their entries.
//
// NewIndex validates the whole message in a single pass and records the
// offset of every entry, bucketed by the xxHash64 of its tag. Lookups
// re-decode the entry at the recorded offset and compare tag bytes, so hash
// collisions never return the wrong entry.
//
// The Index keeps a reference to data; the message must stay unchanged
// while the Index is in use.
type Index struct {
	data    []byte
	buckets map[uint64][]int
	count   int
}

// NewIndex scans data and builds its Index.
//
// Returns:
//   - *Index: the index
//   - error: any decoding error of the message, or errs.ErrInvalidOption
func NewIndex(data []byte, opts ...IndexOption) (*Index, error) {
	cfg := &IndexConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	x := &Index{
		data:    data,
		buckets: make(map[uint64][]int, cfg.expectedEntries),
	}

	p := NewParser(data)
	for p.HasNext() {
		off := p.Position()
		v, err := p.NextReuse()
		if err != nil {
			return nil, err
		}

		h := hash.Bytes(v.TagBytes())
		x.buckets[h] = append(x.buckets[h], off)
		x.count++
	}

	return x, nil
}

// Len returns the number of entries in the message.
func (x *Index) Len() int {
	return x.count
}

// Lookup returns the last entry with the given tag.
func (x *Index) Lookup(tag string) (*Value, bool) {
	offsets := x.buckets[hash.ID(tag)]
	for i := len(offsets) - 1; i >= 0; i-- {
		if v := x.decodeAt(offsets[i], tag); v != nil {
			return v, true
		}
	}

	return nil, false
}

// LookupAll returns every entry with the given tag, in message order.
func (x *Index) LookupAll(tag string) []*Value {
	var out []*Value
	for _, off := range x.buckets[hash.ID(tag)] {
		if v := x.decodeAt(off, tag); v != nil {
			out = append(out, v)
		}
	}

	return out
}

// decodeAt decodes the entry at off and returns it if its tag matches.
func (x *Index) decodeAt(off int, tag string) *Value {
	p, err := NewParserRange(x.data, off, len(x.data)-off)
	if err != nil {
		return nil
	}

	v, err := p.Next()
	if err != nil || string(v.TagBytes()) != tag {
		return nil
	}

	return v
}
