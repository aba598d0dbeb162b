package encoding

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/arloliu/bflat/errs"
)

// TranscodeString writes s into dst as well-formed UTF-8 and returns the
// number of bytes written.
//
// Go strings may carry arbitrary bytes. Every byte that is not part of a
// valid UTF-8 sequence is replaced by U+FFFD (three bytes), so the output
// can be longer than len(s); for valid input it is exactly len(s).
//
// The transcoder runs in three stages:
//  1. ASCII bytes are copied one by one.
//  2. From the first non-ASCII byte on, each rune is re-encoded as a 2- or
//     3-byte sequence, with ill-formed bytes becoming the replacement rune.
//  3. On the first 4-byte (non-BMP) rune the incremental pass is abandoned
//     and the whole string is transcoded in one go by x/text's
//     ReplaceIllFormed transformer, which yields identical bytes.
//
// Returns:
//   - int: bytes written to dst
//   - error: errs.ErrBufferTooSmall if dst cannot hold the output
func TranscodeString(dst []byte, s string) (int, error) {
	n := 0
	i := 0
	for ; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf {
			break
		}
		if n == len(dst) {
			return 0, errShortText(len(s))
		}
		dst[n] = c
		n++
	}

	for i < len(s) {
		c := s[i]
		if c < utf8.RuneSelf {
			if n == len(dst) {
				return 0, errShortText(len(s))
			}
			dst[n] = c
			n++
			i++

			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if size == utf8.UTFMax {
			return transcodeWhole(dst, s)
		}

		// size 1 here means an ill-formed byte and r is utf8.RuneError.
		runeLen := utf8.RuneLen(r)
		if len(dst)-n < runeLen {
			return 0, errShortText(len(s))
		}
		utf8.EncodeRune(dst[n:], r)
		n += runeLen
		i += size
	}

	return n, nil
}

// SanitizeString returns the text TranscodeString writes for s, so two
// strings that encode to the same wire bytes compare equal. Valid UTF-8 is
// returned as is.
func SanitizeString(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	dst := make([]byte, TranscodedLen(s))
	n, _ := TranscodeString(dst, s)

	return string(dst[:n])
}

// TranscodedLen returns the number of bytes TranscodeString writes for s.
func TranscodedLen(s string) int {
	n := 0
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			n++
			i++

			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		n += utf8.RuneLen(r)
		i += size
	}

	return n
}

func transcodeWhole(dst []byte, s string) (int, error) {
	t := runes.ReplaceIllFormed()
	nDst, _, err := t.Transform(dst, []byte(s), true)
	if err != nil {
		if errors.Is(err, transform.ErrShortDst) {
			return 0, errShortText(len(s))
		}

		return 0, fmt.Errorf("transcode text: %w", err)
	}

	return nDst, nil
}

func errShortText(n int) error {
	return fmt.Errorf("%w: while transcoding %d byte text", errs.ErrBufferTooSmall, n)
}
