// Package encoding provides the low-level primitives of the bflat wire format.
//
// Everything here works on a borrowed byte region described by a Buffer and
// never allocates or grows it. Higher-level code (the message package) composes
// these primitives into entries; most users should use that package instead.
//
// # Buffer
//
// A Buffer is a cursor over data[start:end]. Encoders reserve space at the
// cursor and write into it; decoders skip over spans and read them back by
// absolute offset:
//
//	buf, _ := encoding.NewBuffer(make([]byte, 64), 0)
//	encoding.PutUnsigned(buf, 300)  // 2 bytes: 0xAC 0x02
//	buf.Bytes()                     // data[start:pos]
//	buf.Rewind()                    // back to start for another pass
//
// Writes that do not fit fail with errs.ErrBufferTooSmall and leave the
// cursor where it was. Reads past the end fail with errs.ErrTruncated, which
// wraps errs.ErrMalformedDocument.
//
// # LEB128
//
// Lengths and counts use unsigned LEB128; Leb128-typed values use signed
// LEB128. Each byte carries 7 value bits, least significant group first, and
// the high bit marks continuation:
//
//	Value 0-127:       0xxxxxxx                    (1 byte)
//	Value 128-16383:   1xxxxxxx 0xxxxxxx           (2 bytes)
//	Value 16384+:      1xxxxxxx 1xxxxxxx 0xxxxxxx  (3+ bytes)
//
// Signed values stop once the remaining bits are pure sign extension; the
// decoder sign-extends from bit 6 of the final byte. A 64-bit value never
// needs more than MaxLeb128Size bytes, and longer sequences are rejected.
//
// # Fixed-width values
//
// FixedCodec writes Int8/Int16/Int32/Int64/Double/Datetime payloads in
// little-endian order regardless of the host, using the endian package.
//
// # Text
//
// TranscodeString writes Go strings as well-formed UTF-8. Bytes that are not
// valid UTF-8 are replaced by U+FFFD, so the output of a string holding
// invalid bytes is longer than the input. TranscodedLen reports the exact
// output size without writing.
package encoding
