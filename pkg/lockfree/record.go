package lockfree

// record is the immutable (key, value, tombstone) tuple stored behind a
// cell's DRC. Records are never mutated once published: a "set" that
// matches an existing key installs a brand new record via TryReplace and
// retires the old one through the DRC, so a record is never revived —
// this is what keeps the design free of the ABA problem at the record
// level (see spec §9).
type record[K comparable, V any] struct {
	key       K
	value     V
	tombstone bool
}
