package collision

import (
	"fmt"

	"github.com/arloliu/bflat/errs"
)

// Tracker records the tags written to a message and rejects repeats.
//
// Tags are keyed by their 64-bit hash. When two different tags share a hash
// the later one is kept in an overflow set, so a repeat is still detected
// exactly.
type Tracker struct {
	tags     map[uint64]string   // Hash → first tag seen with that hash
	overflow map[string]struct{} // Tags whose hash was already taken by another tag
}

// NewTracker creates a new tag tracker.
func NewTracker() *Tracker {
	return &Tracker{
		tags:     make(map[uint64]string),
		overflow: make(map[string]struct{}),
	}
}

// Contains reports whether tag has already been tracked.
func (t *Tracker) Contains(tag string, hash uint64) bool {
	existing, ok := t.tags[hash]
	if !ok {
		return false
	}
	if existing == tag {
		return true
	}
	_, ok = t.overflow[tag]

	return ok
}

// TrackTag records tag with its hash.
//
// Returns error if:
//   - the tag is empty (errs.ErrEmptyTag)
//   - the tag was tracked before (errs.ErrDuplicateTag)
//
// A different tag with the same hash is not an error.
func (t *Tracker) TrackTag(tag string, hash uint64) error {
	if tag == "" {
		return errs.ErrEmptyTag
	}
	if t.Contains(tag, hash) {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateTag, tag)
	}

	if _, exists := t.tags[hash]; exists {
		t.overflow[tag] = struct{}{}
	} else {
		t.tags[hash] = tag
	}

	return nil
}

// Reset clears all tracked tags, keeping allocated capacity.
func (t *Tracker) Reset() {
	clear(t.tags)
	clear(t.overflow)
}
