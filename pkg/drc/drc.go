// Package drc implements a double-counted reference cell: a mutable slot
// that owns zero or one heap-allocated value and can be read concurrently
// with replacement, without garbage collection assistance, hazard
// pointers, or RCU.
//
// A DRC's front end is a pointer to an internals record plus a count of
// guards handed out against that pointer since it was installed. Readers
// call Obtain to get a Guard, which keeps the internals alive until the
// Guard is released. Writers call Replace or TryReplace to install a new
// internals and retire the old one. Reclamation happens exactly when the
// retiring internals has no referring DRC left and no outstanding guard
// left; see internals.release and internals.detach.
package drc

import "sync/atomic"

// frontEnd is the immutable payload swapped atomically into a DRC's front
// pointer. Because Go has no portable double-word CAS, the DRC packs its
// (internals pointer, external count) pair into this struct and CASes a
// pointer to a freshly allocated copy on every update, rather than CASing
// the pair's bits directly.
type frontEnd[T any] struct {
	internals *internals[T]
	exCount   uint32
}

// DRC is a double-counted reference cell holding an optional value of
// type T. The zero value is an empty DRC. A DRC must not be copied by
// value; use Assign or AssignMove instead, which preserve the two-counter
// protocol.
type DRC[T any] struct {
	front atomic.Pointer[frontEnd[T]]
}

// internals is the heap record addressed by a DRC's front pointer: the
// stored value plus the referrer/inner-count pair that governs its
// lifetime.
type internals[T any] struct {
	data T
	// counts packs (referrers, inner) into one word: referrers in the
	// upper 32 bits, inner in the lower 32 bits. Both only ever move by
	// signed deltas applied with Add; reclamation is checked against the
	// result returned by that same Add, never a separate Load, so exactly
	// one caller ever observes the (0, 0) transition.
	counts atomic.Int64
}

const countsUnit = int64(1) << 32

func packCounts(referrers, inner int32) int64 {
	return int64(referrers)<<32 | int64(uint32(inner))
}

func unpackCounts(v int64) (referrers, inner int32) {
	return int32(v >> 32), int32(uint32(v))
}

// liveInternals and reclaimedInternals give tests a way to check the
// invariant in spec §8 scenario 6 ("allocation count equals free count")
// without relying on GC timing: Go's collector owns the actual memory, but
// the two-counter protocol still governs when an internals record is
// logically retired, and Stats reports that moment precisely.
var liveInternals atomic.Int64
var reclaimedInternals atomic.Int64

// Stats returns the number of internals records ever allocated and the
// number logically reclaimed (both counters settled at zero) so far. It
// exists for tests; production callers have no need of it.
func Stats() (allocated, reclaimed int64) {
	return liveInternals.Load(), reclaimedInternals.Load()
}

func newInternals[T any](value T) *internals[T] {
	in := &internals[T]{data: value}
	in.counts.Store(packCounts(1, 0))
	liveInternals.Add(1)
	return in
}

func (in *internals[T]) maybeReclaim(v int64) {
	referrers, inner := unpackCounts(v)
	if referrers == 0 && inner == 0 {
		reclaimedInternals.Add(1)
	}
}

// attach records one more DRC pointing at in.
func (in *internals[T]) attach() {
	in.counts.Add(countsUnit)
}

// detach records that a DRC has stopped pointing at in, decrementing
// referrers and carrying the external-count snapshot it observed as a
// debit against in's inner count, reclaiming in if both counters have
// now settled at zero.
func (in *internals[T]) detach(observedExternal uint32) {
	v := in.counts.Add(-countsUnit - int64(observedExternal))
	in.maybeReclaim(v)
}

// release records that one outstanding guard over in has expired.
func (in *internals[T]) release() {
	v := in.counts.Add(1)
	in.maybeReclaim(v)
}

// New returns an empty DRC holding no value.
func New[T any]() *DRC[T] {
	return &DRC[T]{}
}

// NewWithValue returns a DRC holding value.
func NewWithValue[T any](value T) *DRC[T] {
	d := &DRC[T]{}
	fe := &frontEnd[T]{internals: newInternals(value)}
	d.front.Store(fe)
	return d
}

// Guard is a single-owner, non-thread-shareable handle that keeps one
// internals record alive for its scope. A Guard must not be shared across
// goroutines; hand off the value it protects instead, or construct a new
// Guard on the receiving goroutine.
type Guard[T any] struct {
	in *internals[T]
}

// HasData reports whether the guard is holding a value.
func (g *Guard[T]) HasData() bool {
	return g != nil && g.in != nil
}

// Value returns a pointer to the guarded value. It panics if the guard is
// empty; dereferencing an empty guard is a programmer error, not a
// recoverable one (spec's fatal-error category).
func (g *Guard[T]) Value() *T {
	if g.in == nil {
		panic("drc: dereference of empty guard")
	}
	return &g.in.data
}

// Release lets go of the guard's hold on its internals early. It is safe
// to call Release more than once; subsequent calls are no-ops. A Guard
// that is dropped without calling Release never adds its release to the
// internals' inner count, so that internals never settles at (0, 0) and
// is never counted as reclaimed by Stats; Go's GC still frees its memory.
func (g *Guard[T]) Release() {
	if g == nil || g.in == nil {
		return
	}
	g.in.release()
	g.in = nil
}

// Obtain returns a guard on the DRC's current value. The guard is empty
// if the DRC itself is empty. Obtain is safe to call concurrently with
// any other DRC operation.
func (d *DRC[T]) Obtain() *Guard[T] {
	for {
		old := d.front.Load()
		var oldIn *internals[T]
		var oldExCount uint32
		if old != nil {
			oldIn = old.internals
			oldExCount = old.exCount
		}
		next := &frontEnd[T]{internals: oldIn, exCount: oldExCount + 1}
		if d.front.CompareAndSwap(old, next) {
			return &Guard[T]{in: oldIn}
		}
	}
}

// Replace installs value as the DRC's new current value and retires
// whatever the DRC previously held.
func (d *DRC[T]) Replace(value T) {
	newIn := newInternals(value)
	next := &frontEnd[T]{internals: newIn, exCount: 0}
	old := d.front.Swap(next)
	detachFrontEnd(old)
}

// TryReplace installs value as the DRC's new current value only if the
// DRC's current internals still matches the one held by expected. It
// reports whether the replacement happened. On failure, no new internals
// is left reachable and the DRC is unchanged.
func (d *DRC[T]) TryReplace(expected *Guard[T], value T) bool {
	var expectedIn *internals[T]
	if expected != nil {
		expectedIn = expected.in
	}

	for {
		old := d.front.Load()
		var oldIn *internals[T]
		if old != nil {
			oldIn = old.internals
		}
		if oldIn != expectedIn {
			return false
		}

		newIn := newInternals(value)
		next := &frontEnd[T]{internals: newIn, exCount: 0}
		if d.front.CompareAndSwap(old, next) {
			detachFrontEnd(old)
			return true
		}
		// Lost the race; loop and re-check against the fresh front end.
		// The just-allocated newIn is discarded — Go's GC takes the place
		// of the explicit "delete new_front_end.internals" the original
		// performs on a failed CAS. It was never attached to any DRC, so
		// account it as reclaimed immediately rather than leaving it
		// permanently counted as live: nothing will ever detach or
		// release it to bring its own counters to (0, 0).
		reclaimedInternals.Add(1)
	}
}

// Erase clears the DRC to empty, retiring whatever it previously held.
func (d *DRC[T]) Erase() {
	old := d.front.Swap(nil)
	detachFrontEnd(old)
}

// Assign makes d share src's currently-pointed internals (copy
// semantics: the value is shared, not cloned). It is the DRC analogue of
// copy-assignment.
func (d *DRC[T]) Assign(src *DRC[T]) {
	g := src.Obtain()
	defer g.Release()
	if g.in != nil {
		g.in.attach()
	}
	next := &frontEnd[T]{internals: g.in, exCount: 0}
	old := d.front.Swap(next)
	detachFrontEnd(old)
}

// AssignMove steals src's currently-pointed internals, leaving src empty.
// It is the DRC analogue of move-assignment.
func (d *DRC[T]) AssignMove(src *DRC[T]) {
	var stolen *frontEnd[T]
	for {
		cur := src.front.Load()
		if src.front.CompareAndSwap(cur, nil) {
			stolen = cur
			break
		}
	}
	old := d.front.Swap(stolen)
	detachFrontEnd(old)
}

// detachFrontEnd performs the detach half of the two-counter protocol for
// whatever front end a DRC just gave up, if anything.
func detachFrontEnd[T any](fe *frontEnd[T]) {
	if fe == nil || fe.internals == nil {
		return
	}
	fe.internals.detach(fe.exCount)
}
