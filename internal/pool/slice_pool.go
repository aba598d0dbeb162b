package pool

import "sync"

// slicePool recycles typed scratch slices, used by Marshal to gather a run of
// same-kind array elements before encoding it.
type slicePool[T any] struct {
	pool sync.Pool
}

func newSlicePool[T any]() *slicePool[T] {
	return &slicePool[T]{
		pool: sync.Pool{
			New: func() any { return &[]T{} },
		},
	}
}

// get returns a slice of exactly size elements and the cleanup function that
// hands it back. Elements are not zeroed.
func (sp *slicePool[T]) get(size int) ([]T, func()) {
	ptr, _ := sp.pool.Get().(*[]T)
	slice := *ptr

	if cap(slice) < size {
		slice = make([]T, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() {
		clear(*ptr)
		sp.pool.Put(ptr)
	}
}

var (
	int64SlicePool   = newSlicePool[int64]()
	float64SlicePool = newSlicePool[float64]()
	stringSlicePool  = newSlicePool[string]()
	bytesSlicePool   = newSlicePool[[]byte]()
)

// GetInt64Slice retrieves an int64 slice of the given length from the pool.
//
// The caller must call the returned cleanup function once it no longer uses
// the slice.
//
// Parameters:
//   - size: The desired length of the slice
//
// Returns:
//   - []int64: A slice with length equal to size
//   - func(): Cleanup function that must be called (typically with defer) to return the slice to the pool
//
// Example:
//
//	ints, cleanup := pool.GetInt64Slice(n)
//	defer cleanup()
func GetInt64Slice(size int) ([]int64, func()) {
	return int64SlicePool.get(size)
}

// GetFloat64Slice retrieves a float64 slice of the given length from the pool.
func GetFloat64Slice(size int) ([]float64, func()) {
	return float64SlicePool.get(size)
}

// GetStringSlice retrieves a string slice of the given length from the pool.
// Cleanup clears the elements so the strings can be collected.
func GetStringSlice(size int) ([]string, func()) {
	return stringSlicePool.get(size)
}

// GetBytesSlice retrieves a [][]byte of the given length from the pool.
func GetBytesSlice(size int) ([][]byte, func()) {
	return bytesSlicePool.get(size)
}
