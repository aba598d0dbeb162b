package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Bytes computes the xxHash64 of b. It equals ID(string(b)) without the conversion.
func Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}
