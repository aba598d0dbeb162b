package message

import (
	"fmt"
	"io"
	"iter"
	"math"

	"github.com/arloliu/bflat/encoding"
	"github.com/arloliu/bflat/errs"
	"github.com/arloliu/bflat/format"
)

// Parser decodes the entries of a message one at a time.
//
// Every length, count and fixed-width span is checked against the end of
// the message before it is used, so malformed or truncated input fails with
// an error wrapping errs.ErrMalformedDocument and never reads out of bounds.
//
// Decoded values point into the message; the Parser never copies payloads.
// Three ways of receiving them are offered:
//   - Next allocates a fresh Value per entry, safe to keep.
//   - NextReuse and All overwrite a single Value owned by the Parser, valid
//     only until the next advance.
//   - NextInto decodes into a Value owned by the caller.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	buf  encoding.Buffer
	slot Value
}

// NewParser returns a Parser over the whole of data.
func NewParser(data []byte) *Parser {
	p := &Parser{}
	_ = p.buf.Reset(data, 0, len(data))

	return p
}

// NewParserRange returns a Parser over data[start:start+length].
//
// Returns:
//   - *Parser: the parser positioned at the first entry
//   - error: errs.ErrInvalidRange if the region is outside data
func NewParserRange(data []byte, start, length int) (*Parser, error) {
	p := &Parser{}
	if err := p.Reset(data, start, length); err != nil {
		return nil, err
	}

	return p, nil
}

// Reset points the parser at a new message region.
func (p *Parser) Reset(data []byte, start, length int) error {
	return p.buf.Reset(data, start, length)
}

// HasNext reports whether bytes remain before the end of the message.
func (p *Parser) HasNext() bool {
	return p.buf.Remaining() > 0
}

// Position returns the absolute offset of the next entry.
func (p *Parser) Position() int {
	return p.buf.Position()
}

// Next decodes the next entry into a newly allocated Value.
//
// Returns:
//   - *Value: the decoded entry
//   - error: io.EOF at the end of the message, or an error wrapping
//     errs.ErrMalformedDocument
func (p *Parser) Next() (*Value, error) {
	v := &Value{}
	if err := p.NextInto(v); err != nil {
		return nil, err
	}

	return v, nil
}

// NextReuse decodes the next entry into the Parser's own Value and returns it.
// The Value is overwritten by the following call to NextReuse or All.
func (p *Parser) NextReuse() (*Value, error) {
	if err := p.NextInto(&p.slot); err != nil {
		return nil, err
	}

	return &p.slot, nil
}

// NextInto decodes the next entry into v, reusing its element tables.
//
// On error the parser stays at the failing entry and the content of v is
// unspecified.
func (p *Parser) NextInto(v *Value) error {
	if !p.HasNext() {
		return io.EOF
	}

	start := p.buf.Position()
	if err := p.decode(v, start); err != nil {
		p.buf.Seek(start)
		return err
	}

	return nil
}

// All returns an iterator over the remaining entries. The yielded Value is
// the Parser's reusable slot; clone it to keep it past the current
// iteration. Iteration stops after the first error.
func (p *Parser) All() iter.Seq2[*Value, error] {
	return func(yield func(*Value, error) bool) {
		for p.HasNext() {
			v, err := p.NextReuse()
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

func (p *Parser) decode(v *Value, start int) error {
	data := p.buf.Data()
	v.reset(data, start)

	hdr, err := p.buf.ReadByte()
	if err != nil {
		return err
	}
	typ, isArray, tagLen := format.ParseHeader(hdr)
	v.typ = typ
	v.isArray = isArray

	if tagLen == 0 {
		n, err := encoding.ReadUnsigned(&p.buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w at offset %d", errs.ErrZeroLengthTag, start)
		}
		if n > uint64(p.buf.Remaining()) {
			return fmt.Errorf("%w: tag of %d bytes at offset %d", errs.ErrTruncated, n, start)
		}
		tagLen = int(n) //nolint:gosec
	}

	if v.tagOff, err = p.buf.Skip(tagLen); err != nil {
		return err
	}
	v.tagLen = tagLen

	v.count = 1
	if isArray {
		if v.count, err = p.readCount(typ); err != nil {
			return err
		}
	}

	v.off = p.buf.Position()
	switch {
	case typ == format.TypeNull:
	case typ == format.TypeString, typ == format.TypeBinary:
		err = p.decodeSpans(v)
	case typ == format.TypeLeb128:
		err = p.decodeLeb128s(v)
	case typ.IsFixedWidth():
		// count is bounded by readCount, so the product cannot overflow.
		_, err = p.buf.Skip(v.count * typ.Width())
	default:
		err = fmt.Errorf("%w: code %d at offset %d", errs.ErrUnknownType, typ.Code(), start)
	}
	if err != nil {
		return err
	}

	v.end = p.buf.Position()

	return nil
}

// readCount reads an array count and rejects counts whose minimal payload
// cannot fit in the rest of the message.
func (p *Parser) readCount(typ format.ValueType) (int, error) {
	pos := p.buf.Position()
	n, err := encoding.ReadUnsigned(&p.buf)
	if err != nil {
		return 0, err
	}

	// Every non-Null element takes at least one byte.
	limit := uint64(math.MaxInt32)
	if typ != format.TypeNull {
		width := uint64(max(typ.Width(), 1)) //nolint:gosec
		limit = min(limit, uint64(p.buf.Remaining())/width)
	}
	if n > limit {
		return 0, fmt.Errorf("%w: array count %d at offset %d exceeds remaining data", errs.ErrTruncated, n, pos)
	}

	return int(n), nil //nolint:gosec
}

func (p *Parser) decodeSpans(v *Value) error {
	for i := range v.count {
		n, err := encoding.ReadUnsigned(&p.buf)
		if err != nil {
			return err
		}
		if n > uint64(p.buf.Remaining()) {
			return fmt.Errorf("%w: element of %d bytes at offset %d", errs.ErrTruncated, n, p.buf.Position())
		}

		size := int(n) //nolint:gosec
		off, _ := p.buf.Skip(size)
		if i == 0 {
			v.off, v.n = off, size
		} else {
			v.spans = append(v.spans, span{off: off, n: size})
		}
	}

	return nil
}

func (p *Parser) decodeLeb128s(v *Value) error {
	for i := range v.count {
		n, err := encoding.ReadSigned(&p.buf)
		if err != nil {
			return err
		}
		if i == 0 {
			v.first = n
		} else {
			v.lebs = append(v.lebs, n)
		}
	}

	return nil
}
