// Package message encodes and decodes bflat messages.
//
// A message is a flat sequence of entries. Each entry has a type, a tag and
// either one value or an array of values of that type:
//
//	byte 0       bit 7: array flag
//	             bits 6-3: type (Null, String, Binary, Int8, Int16, Int32,
//	                       Int64, Double, Datetime, Leb128)
//	             bits 2-0: tag length 1..7, or 0 if a LEB128 length follows
//	[tag length] unsigned LEB128, only for tags of 8 bytes or more
//	tag          UTF-8 bytes
//	[count]      unsigned LEB128, arrays only
//	payload      count elements
//
// String and Binary elements carry an unsigned LEB128 byte length, Leb128
// elements are signed LEB128 and the fixed-width types are little-endian.
// There is no message header, so messages can be concatenated.
//
// # Encoding
//
// Builder writes into a caller-provided buffer and never allocates:
//
//	buf := make([]byte, 256)
//	b := message.NewBuilder(buf)
//	if err := b.AddString("symbol", "ACME"); err != nil {
//	    return err // errs.ErrBufferTooSmall: retry with a bigger buffer
//	}
//	_ = b.AddFloat64Array("bids", []float64{10.5, 10.25})
//	msg := b.Bytes()
//
// Writer does the same over a pooled, growable buffer, and Marshal encodes a
// map[string]any in one call.
//
// # Decoding
//
// Parser walks a message without copying payloads. Values point into the
// message, and the caller picks how they are allocated:
//
//	p := message.NewParser(msg)
//	for v, err := range p.All() { // v is reused between iterations
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(v)
//	}
//
// Next returns a fresh Value per entry, NextInto fills a caller-owned one,
// and Index gives random access by tag.
//
// # Errors
//
// Encoding errors wrap errs.ErrBufferTooSmall or errs.ErrUsage; decoding
// errors wrap errs.ErrMalformedDocument. A failed Builder call leaves the
// message exactly as it was before the call.
package message
