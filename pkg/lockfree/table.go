// Package lockfree implements a concurrent open-addressed hash table
// built as a chain of fixed-size segments on top of pkg/drc. Readers and
// writers never block each other or one another: every coordination point
// is a single-word CAS through a DRC, and the table migrates to a larger
// successor segment incrementally rather than rehashing in place.
package lockfree

import (
	"drckv/pkg/drc"
	"drckv/pkg/hashing"
)

// Table is a concurrent key/value map parametric over key type K, value
// type V, and (optionally) a custom hasher and equality function. The
// zero value is not usable; construct with New.
type Table[K comparable, V any] struct {
	head        drc.DRC[*segment[K, V]]
	initialSize int
	hasher      hashing.Hasher[K]
	equal       hashing.Equal[K]
}

// Option configures a Table at construction time.
type Option[K comparable, V any] func(*Table[K, V])

// WithHasher overrides the table's default hasher.
func WithHasher[K comparable, V any](h hashing.Hasher[K]) Option[K, V] {
	return func(t *Table[K, V]) { t.hasher = h }
}

// WithEqual overrides the table's default key-equality function.
func WithEqual[K comparable, V any](eq hashing.Equal[K]) Option[K, V] {
	return func(t *Table[K, V]) { t.equal = eq }
}

// New returns an empty table whose first segment, once created, holds
// initialSize cells (coerced up to a minimum of 1). The head segment
// itself is not allocated until the first Set.
func New[K comparable, V any](initialSize int, opts ...Option[K, V]) *Table[K, V] {
	if initialSize < 1 {
		initialSize = 1
	}
	t := &Table[K, V]{
		initialSize: initialSize,
		hasher:      hashing.Default[K](),
		equal:       hashing.DefaultEqual[K](),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get returns the value associated with key and true if present. It
// returns the zero value and false if the key was never set, or if the
// most recent operation recorded against it across the segment chain was
// a Remove.
func (t *Table[K, V]) Get(key K) (V, bool) {
	var zero, latest V
	found, tomb := false, false

	cur := t.head.Obtain()
	for cur.HasData() {
		seg := *cur.Value()
		if v, tb, ok := seg.get(key); ok {
			found, latest, tomb = true, v, tb
		}
		next := seg.next.Obtain()
		cur.Release()
		cur = next
	}
	cur.Release()

	if found && !tomb {
		return latest, true
	}
	return zero, false
}

// Set installs value for key. If the table has no head segment yet, one
// of size initialSize is installed first. The chain is walked from head,
// issuing a segment-level set at each segment, until one reports an
// insert; earlier segments may report an update for the same key along
// the way, which does not stop the walk (spec.md §4.2). If a segment is
// sealed and has no successor yet, Set installs one of twice its size
// before continuing into it.
func (t *Table[K, V]) Set(key K, value V) {
	cur := t.head.Obtain()
	if !cur.HasData() {
		newHead := newSegment[K, V](t.initialSize, t.hasher, t.equal)
		// Ignore the outcome: whether we won the race to install the
		// first segment or another writer did, re-obtaining below picks
		// up whichever segment is now actually installed.
		t.head.TryReplace(cur, newHead)
		cur.Release()
		cur = t.head.Obtain()
	}

	for {
		seg := *cur.Value()
		outcome := seg.set(key, value, false)
		if outcome == outcomeInsert {
			cur.Release()
			return
		}

		next := seg.next.Obtain()
		if !next.HasData() {
			if outcome == outcomeFailure {
				successor := newSegment[K, V](seg.size*resizeFactor, t.hasher, t.equal)
				seg.next.TryReplace(next, successor)
				next.Release()
				next = seg.next.Obtain()
			} else {
				// outcome == outcomeUpdate and this segment has no
				// successor: the chain genuinely ends here.
				next.Release()
				cur.Release()
				return
			}
		}
		cur.Release()
		cur = next
	}
}

// Remove tombstones key wherever it currently exists along the segment
// chain. It never installs a tombstone into a fresh cell and never
// triggers a successor segment; the walk simply ends when the chain does
// (spec.md §4.2).
func (t *Table[K, V]) Remove(key K) {
	var zero V
	cur := t.head.Obtain()
	for cur.HasData() {
		seg := *cur.Value()
		seg.set(key, zero, true)
		next := seg.next.Obtain()
		cur.Release()
		cur = next
	}
	cur.Release()
}
