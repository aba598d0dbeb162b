package message

import (
	"fmt"

	"github.com/arloliu/bflat/errs"
	"github.com/arloliu/bflat/internal/options"
)

// MaxInitialSize caps WithInitialSize.
const MaxInitialSize = 1 << 30

// WriterConfig holds the settings of a Writer.
type WriterConfig struct {
	initialSize int
	uniqueTags  bool
}

// WriterOption configures a Writer.
//
// This is a type alias for the generic Option interface specialized for WriterConfig.
type WriterOption = options.Option[*WriterConfig]

// WithInitialSize sets the initial capacity of the Writer's buffer in bytes.
// Sizes up to the pooled buffer size use a pooled buffer.
func WithInitialSize(n int) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if n <= 0 || n > MaxInitialSize {
			return fmt.Errorf("%w: initial size %d not in (0, %d]", errs.ErrInvalidOption, n, MaxInitialSize)
		}
		c.initialSize = n

		return nil
	})
}

// WithUniqueTags makes the Writer reject a tag that was already written to
// the current message with errs.ErrDuplicateTag.
func WithUniqueTags() WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.uniqueTags = true
	})
}

// IndexConfig holds the settings of an Index.
type IndexConfig struct {
	expectedEntries int
}

// IndexOption configures an Index.
type IndexOption = options.Option[*IndexConfig]

// WithExpectedEntries pre-sizes the Index for n entries.
func WithExpectedEntries(n int) IndexOption {
	return options.New(func(c *IndexConfig) error {
		if n < 0 {
			return fmt.Errorf("%w: expected entries %d", errs.ErrInvalidOption, n)
		}
		c.expectedEntries = n

		return nil
	})
}

// DefaultMaxElements is the element budget of Unmarshal when WithMaxElements
// is not given.
const DefaultMaxElements = 1 << 20

// UnmarshalConfig holds the settings of Unmarshal.
type UnmarshalConfig struct {
	maxElements int
}

// UnmarshalOption configures Unmarshal.
type UnmarshalOption = options.Option[*UnmarshalConfig]

// WithMaxElements caps the total number of array elements Unmarshal decodes
// from one message. A Null array costs no payload bytes, so without a cap a
// few input bytes could expand into billions of nil elements.
func WithMaxElements(n int) UnmarshalOption {
	return options.New(func(c *UnmarshalConfig) error {
		if n <= 0 {
			return fmt.Errorf("%w: max elements %d", errs.ErrInvalidOption, n)
		}
		c.maxElements = n

		return nil
	})
}
