package lockfree

import (
	"math"
	"sync/atomic"

	"drckv/pkg/drc"
	"drckv/pkg/hashing"
)

// capacityLoadFactor and resizeFactor are the numeric constants spec.md §6
// fixes for every table instance: a segment seals once elements plus
// in-flight inserters would exceed ceil(size * 0.7), and its successor is
// always twice its size.
const (
	capacityLoadFactor = 0.7
	resizeFactor       = 2
)

// setOutcome is the result of a segment-level set, as spec.md §4.2 names
// it: failure, update, or insert.
type setOutcome int

const (
	outcomeFailure setOutcome = iota
	outcomeUpdate
	outcomeInsert
)

// admission packs a segment's (elements, inserters, resizeFlag) triple
// into one atomic word, the same packed-aggregate approach pkg/drc uses
// for its own two-counter pair: elements in the low 30 bits, inserters in
// the next 30 bits, the seal flag in the top bit.
const (
	admBits       = 30
	admMask       = (uint64(1) << admBits) - 1
	admInsShift   = admBits
	admResizeFlag = uint64(1) << 63
)

func packAdmission(elements, inserters uint64) uint64 {
	return (elements & admMask) | ((inserters & admMask) << admInsShift)
}

func unpackAdmission(v uint64) (elements, inserters uint64, sealed bool) {
	elements = v & admMask
	inserters = (v >> admInsShift) & admMask
	sealed = v&admResizeFlag != 0
	return
}

// segment is one fixed-size open-addressed array of DRC-held immutable
// records in the table's chain, plus the admission counters that gate
// insertion and the next-segment link that carries the chain forward once
// this segment seals.
type segment[K comparable, V any] struct {
	size     int
	capacity int

	admission atomic.Uint64

	hasher hashing.Hasher[K]
	equal  hashing.Equal[K]

	next  drc.DRC[*segment[K, V]]
	cells []*drc.DRC[*record[K, V]]
}

// newSegment returns an empty segment of the given size (coerced up to a
// minimum of 1, per spec.md §9's "resize lower bound").
func newSegment[K comparable, V any](size int, hasher hashing.Hasher[K], equal hashing.Equal[K]) *segment[K, V] {
	if size < 1 {
		size = 1
	}
	s := &segment[K, V]{
		size:     size,
		capacity: int(math.Ceil(float64(size) * capacityLoadFactor)),
		hasher:   hasher,
		equal:    equal,
		cells:    make([]*drc.DRC[*record[K, V]], size),
	}
	for i := range s.cells {
		s.cells[i] = drc.New[*record[K, V]]()
	}
	return s
}

func (s *segment[K, V]) probeStart(key K) int {
	return int(s.hasher(key) % uint64(s.size))
}

// attemptInsert claims one insertion slot against the admission budget.
// It fails (returning false) if the segment is already sealed. Claiming a
// slot that would exactly fill capacity seals the segment in the same
// CAS, so no later caller is ever admitted past capacity.
func (s *segment[K, V]) attemptInsert() bool {
	for {
		old := s.admission.Load()
		elements, inserters, sealed := unpackAdmission(old)
		if sealed {
			return false
		}
		newInserters := inserters + 1
		next := packAdmission(elements, newInserters)
		if elements+newInserters == uint64(s.capacity) {
			next |= admResizeFlag
		}
		if s.admission.CompareAndSwap(old, next) {
			return true
		}
	}
}

// finishInsert releases the admission credit claimed by attemptInsert. If
// the attempt actually produced a committed insert, elements is
// incremented; otherwise only inserters is decremented.
func (s *segment[K, V]) finishInsert(committed bool) {
	for {
		old := s.admission.Load()
		elements, inserters, _ := unpackAdmission(old)
		newElements := elements
		if committed {
			newElements++
		}
		next := (old &^ (admMask | (admMask << admInsShift))) | packAdmission(newElements, inserters-1)
		if s.admission.CompareAndSwap(old, next) {
			return
		}
	}
}

// sealed reports whether the segment has stopped admitting new keys.
func (s *segment[K, V]) sealed() bool {
	_, _, sealed := unpackAdmission(s.admission.Load())
	return sealed
}

// get linearly probes for key, returning its most recently published
// value and tombstone flag. Probing stops at the first empty cell, the
// standard open-addressing termination rule.
func (s *segment[K, V]) get(key K) (value V, tombstone bool, found bool) {
	start := s.probeStart(key)
	for i := 0; i < s.size; i++ {
		idx := (start + i) % s.size
		g := s.cells[idx].Obtain()
		if !g.HasData() {
			g.Release()
			return value, false, false
		}
		rec := *g.Value()
		if s.equal(rec.key, key) {
			v, t := rec.value, rec.tombstone
			g.Release()
			return v, t, true
		}
		g.Release()
	}
	return value, false, false
}

// set probes for key and either updates an existing record, inserts a new
// one (unless isTombstone, in which case an absent key is a no-op), or
// reports failure because the segment is sealed and cannot admit key.
func (s *segment[K, V]) set(key K, value V, isTombstone bool) setOutcome {
	start := s.probeStart(key)
	for i := 0; i < s.size; i++ {
		idx := (start + i) % s.size
		cell := s.cells[idx]

		for {
			g := cell.Obtain()
			if g.HasData() {
				rec := *g.Value()
				if !s.equal(rec.key, key) {
					g.Release()
					break // occupied by another key; advance the probe
				}
				newRec := &record[K, V]{key: key, value: value, tombstone: isTombstone}
				if cell.TryReplace(g, newRec) {
					g.Release()
					return outcomeUpdate
				}
				g.Release()
				// lost the race for this slot; recheck the same cell
				continue
			}

			// cell is empty
			if isTombstone {
				g.Release()
				return outcomeFailure
			}
			if !s.attemptInsert() {
				g.Release()
				return outcomeFailure
			}
			newRec := &record[K, V]{key: key, value: value, tombstone: false}
			if cell.TryReplace(g, newRec) {
				s.finishInsert(true)
				return outcomeInsert
			}
			g.Release()
			s.finishInsert(false)
			// lost the race for this slot; recheck the same cell
		}
	}
	return outcomeFailure
}
