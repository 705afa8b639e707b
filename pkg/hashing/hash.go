// Package hashing provides the hasher and equality hooks the concurrent
// table in pkg/lockfree and pkg/locking are parametric over, plus default
// implementations so callers with comparable key types don't need to
// supply their own.
package hashing

import (
	"hash/fnv"
	"hash/maphash"
)

// Hasher produces a 64-bit hash for a key of type K. Implementations must
// be safe to call concurrently from any number of goroutines; a table
// keeps exactly one Hasher for its lifetime and calls it on every probe.
type Hasher[K any] func(key K) uint64

// Equal reports whether two keys are the same for table-lookup purposes.
type Equal[K any] func(a, b K) bool

// seed is process-wide: every default hasher returned by this package
// uses the same seed, which keeps hash values stable within a process
// without requiring each table to carry its own seed value around.
var seed = maphash.MakeSeed()

// StringHasher returns a maphash-backed hasher for string keys, a
// stronger, randomly-seeded alternative to a fixed FNV constant.
func StringHasher() Hasher[string] {
	return func(key string) uint64 {
		return maphash.String(seed, key)
	}
}

// FNVHasher returns an FNV-1a hasher for string keys, unseeded and
// deterministic across processes, for callers who need the same key to
// land in the same bucket on every run (the default hasher's seed makes
// no such promise).
func FNVHasher() Hasher[string] {
	return func(key string) uint64 {
		h := fnv.New64a()
		h.Write([]byte(key))
		return h.Sum64()
	}
}

// BytesHasher returns a maphash-backed hasher for []byte keys.
func BytesHasher() Hasher[[]byte] {
	return func(key []byte) uint64 {
		return maphash.Bytes(seed, key)
	}
}

// DefaultEqual returns the natural equality for a comparable key type.
func DefaultEqual[K comparable]() Equal[K] {
	return func(a, b K) bool { return a == b }
}

// Default returns a Hasher for any comparable key type, built on
// maphash.Comparable. This is the hasher a table uses when the caller
// does not supply one of its own.
func Default[K comparable]() Hasher[K] {
	return func(key K) uint64 {
		return maphash.Comparable(seed, key)
	}
}
