// Package errs defines the sentinel errors returned by bflat.
//
// Errors fall into three kinds that callers can tell apart with errors.Is:
//
//   - ErrBufferTooSmall: the destination buffer ran out during encoding.
//     Retry with a larger buffer.
//   - ErrMalformedDocument: the input violates the wire format. Reject it.
//   - ErrUsage: the caller broke an API contract. Fix the call site.
//
// Every other error in this package wraps exactly one of the three kinds.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferTooSmall is returned when an encode operation runs out of destination space.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrMalformedDocument is returned when decoding meets a structural violation.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrUsage is returned when a caller violates an API contract.
	ErrUsage = errors.New("usage error")
)

// Malformed document details.
var (
	ErrZeroLengthTag   = fmt.Errorf("%w: zero-length tag", ErrMalformedDocument)
	ErrUnknownType     = fmt.Errorf("%w: unknown value type", ErrMalformedDocument)
	ErrTruncated       = fmt.Errorf("%w: unexpected end of data", ErrMalformedDocument)
	ErrInvalidLeb128   = fmt.Errorf("%w: invalid leb128 value", ErrMalformedDocument)
	ErrTooManyElements = fmt.Errorf("%w: too many elements", ErrMalformedDocument)
)

// Usage details.
var (
	ErrEmptyTag        = fmt.Errorf("%w: zero length tags are not allowed", ErrUsage)
	ErrTypeMismatch    = fmt.Errorf("%w: cannot convert value", ErrUsage)
	ErrNullValue       = fmt.Errorf("%w: value is null", ErrUsage)
	ErrInvalidCount    = fmt.Errorf("%w: invalid element count", ErrUsage)
	ErrInvalidRange    = fmt.Errorf("%w: invalid buffer range", ErrUsage)
	ErrIndexOutOfRange = fmt.Errorf("%w: element index out of range", ErrUsage)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported type", ErrUsage)
	ErrDuplicateTag    = fmt.Errorf("%w: duplicate tag", ErrUsage)
	ErrInvalidOption   = fmt.Errorf("%w: invalid option", ErrUsage)
)
