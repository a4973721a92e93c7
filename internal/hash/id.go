// Package hash provides the 64-bit string hash used as the dictionary index
// key. The choice of xxHash64 is part of no on-disk contract (dictionaries
// serialize entries, not hashes), but every in-memory index in the module
// uses the same function.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of a dictionary entry string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}
