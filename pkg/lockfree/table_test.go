package lockfree

import (
	"math"
	"sync"
	"testing"

	"drckv/pkg/drc"
)

func TestSingleThreadedBasics(t *testing.T) {
	tbl := New[int, int](4)

	tbl.Set(1, 10)
	tbl.Set(2, 20)

	if v, ok := tbl.Get(1); !ok || v != 10 {
		t.Fatalf("Get(1) = (%d, %v), want (10, true)", v, ok)
	}

	tbl.Remove(1)
	if _, ok := tbl.Get(1); ok {
		t.Fatalf("Get(1) after Remove should report not-found")
	}
	if v, ok := tbl.Get(2); !ok || v != 20 {
		t.Fatalf("Get(2) = (%d, %v), want (20, true)", v, ok)
	}
}

func TestRoundTrip(t *testing.T) {
	tbl := New[string, int](4)
	tbl.Set("k", 7)
	if v, ok := tbl.Get("k"); !ok || v != 7 {
		t.Fatalf("Get(k) = (%d, %v), want (7, true)", v, ok)
	}
}

func TestIdempotentSet(t *testing.T) {
	tbl := New[string, int](4)
	tbl.Set("k", 7)
	tbl.Set("k", 7)
	if v, ok := tbl.Get("k"); !ok || v != 7 {
		t.Fatalf("Get(k) = (%d, %v), want (7, true)", v, ok)
	}
}

func TestRemoveDominatesSet(t *testing.T) {
	tbl := New[string, int](4)
	tbl.Set("k", 7)
	tbl.Remove("k")
	if _, ok := tbl.Get("k"); ok {
		t.Fatalf("Get(k) after Remove should report not-found")
	}
}

func TestSetAfterRemoveResurrects(t *testing.T) {
	tbl := New[string, int](4)
	tbl.Set("k", 1)
	tbl.Remove("k")
	tbl.Set("k", 2)
	if v, ok := tbl.Get("k"); !ok || v != 2 {
		t.Fatalf("Get(k) = (%d, %v), want (2, true)", v, ok)
	}
}

func TestTombstoneOnAbsentKeyIsNoop(t *testing.T) {
	tbl := New[string, int](4)
	tbl.Remove("missing")
	if _, ok := tbl.Get("missing"); ok {
		t.Fatalf("Get on never-set key should report not-found")
	}
}

// TestForcedMigration mirrors spec §8's scenario 2: an initial segment of
// size 1 seals on the first insert, and the second distinct key forces a
// successor of twice the size.
func TestForcedMigration(t *testing.T) {
	tbl := New[int, int](1)

	tbl.Set(0, 0)
	tbl.Set(1, 1)

	if v, ok := tbl.Get(0); !ok || v != 0 {
		t.Fatalf("Get(0) = (%d, %v), want (0, true)", v, ok)
	}
	if v, ok := tbl.Get(1); !ok || v != 1 {
		t.Fatalf("Get(1) = (%d, %v), want (1, true)", v, ok)
	}

	head := tbl.head.Obtain()
	seg := *head.Value()
	if !seg.sealed() {
		t.Errorf("expected the size-1 head segment to be sealed after one insert")
	}
	if !seg.next.Obtain().HasData() {
		t.Errorf("expected a successor segment to exist after the second distinct key")
	}
}

// TestOverrideAcrossSegments mirrors spec §8's scenario 3: overriding a
// key that already lives in an earlier, sealed segment must still be
// observable at Get after the override.
func TestOverrideAcrossSegments(t *testing.T) {
	tbl := New[int, int](1)

	tbl.Set(0, 0)
	tbl.Set(1, 1) // forces the successor
	tbl.Set(0, 99)

	if v, ok := tbl.Get(0); !ok || v != 99 {
		t.Fatalf("Get(0) = (%d, %v), want (99, true)", v, ok)
	}
}

// TestTombstoneAcrossSegments mirrors spec §8's scenario 4.
func TestTombstoneAcrossSegments(t *testing.T) {
	tbl := New[int, int](1)

	tbl.Set(0, 0)
	tbl.Set(1, 1)
	tbl.Remove(0)

	if _, ok := tbl.Get(0); ok {
		t.Fatalf("Get(0) after Remove should report not-found")
	}

	tbl.Set(0, 7)
	if v, ok := tbl.Get(0); !ok || v != 7 {
		t.Fatalf("Get(0) = (%d, %v), want (7, true)", v, ok)
	}
}

// TestFillSegmentExactlyToCapacity mirrors spec §8's boundary behavior:
// filling exactly `capacity` distinct keys seals the segment, and the
// capacity+1-th distinct key allocates a successor of double the size.
func TestFillSegmentExactlyToCapacity(t *testing.T) {
	const size = 10
	tbl := New[int, int](size)

	capacity := int(math.Ceil(float64(size) * capacityLoadFactor))
	for i := 0; i < capacity; i++ {
		tbl.Set(i, i*10)
	}

	h := tbl.head.Obtain()
	seg := *h.Value()
	if !seg.sealed() {
		t.Fatalf("expected segment to be sealed after %d inserts (capacity %d)", capacity, seg.capacity)
	}
	if seg.next.Obtain().HasData() {
		t.Fatalf("did not expect a successor before a failed insert forces one")
	}

	tbl.Set(capacity, capacity*10) // the capacity+1-th distinct key

	next := seg.next.Obtain()
	if !next.HasData() {
		t.Fatalf("expected a successor segment after the capacity+1-th distinct key")
	}
	successor := *next.Value()
	if successor.size != size*resizeFactor {
		t.Errorf("successor size = %d, want %d", successor.size, size*resizeFactor)
	}

	for i := 0; i <= capacity; i++ {
		if v, ok := tbl.Get(i); !ok || v != i*10 {
			t.Errorf("Get(%d) = (%d, %v), want (%d, true)", i, v, ok, i*10)
		}
	}
}

// TestNoLeaksUnderRepeatedUpdates mirrors spec §8 scenario 6 at the table
// level: repeatedly overwriting a small set of keys retires one record's
// internals per update and must not accumulate leaked records as the
// write count grows — only the record currently held by each cell stays
// live; every record an update supersedes must settle back to (0, 0).
func TestNoLeaksUnderRepeatedUpdates(t *testing.T) {
	tbl := New[int, int](4)

	const keys = 4
	for k := 0; k < keys; k++ {
		tbl.Set(k, -1) // establish each cell before measuring
	}

	before, beforeReclaimed := drc.Stats()

	const writesPerKey = 200
	var wg sync.WaitGroup
	for k := 0; k < keys; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			for v := 0; v < writesPerKey; v++ {
				tbl.Set(k, v)
			}
		}(k)
	}
	wg.Wait()

	after, afterReclaimed := drc.Stats()
	allocated := after - before
	reclaimed := afterReclaimed - beforeReclaimed

	// Only the most recent write to each key keeps its record live; every
	// record it superseded must have been reclaimed.
	if leaked := allocated - reclaimed; leaked > int64(keys) {
		t.Errorf("allocated %d records but reclaimed only %d across %d keys x %d writes each; %d unaccounted for",
			allocated, reclaimed, keys, writesPerKey, leaked)
	}

	for k := 0; k < keys; k++ {
		if v, ok := tbl.Get(k); !ok || v != writesPerKey-1 {
			t.Errorf("Get(%d) = (%d, %v), want (%d, true)", k, v, ok, writesPerKey-1)
		}
	}
}

func TestInitialSizeZeroCoercedToOne(t *testing.T) {
	tbl := New[int, int](0)
	tbl.Set(1, 1)
	if v, ok := tbl.Get(1); !ok || v != 1 {
		t.Fatalf("Get(1) = (%d, %v), want (1, true)", v, ok)
	}
	h := tbl.head.Obtain()
	seg := *h.Value()
	if seg.size != 1 {
		t.Errorf("size = %d, want 1 (coerced from 0)", seg.size)
	}
}

// TestConcurrentWritersReaders mirrors spec §8 scenario 5: N writers and M
// readers contend over K keys; at quiescence every key's value must equal
// the last write issued for it, with no observed value outside the
// written range in between.
func TestConcurrentWritersReaders(t *testing.T) {
	tbl := New[int, int](2)

	const keys = 64
	const writesPerKey = 50
	const readers = 16

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				k := (r * 7) % keys
				if v, ok := tbl.Get(k); ok {
					if v < 0 || v >= writesPerKey {
						t.Errorf("Get(%d) = %d, out of expected range", k, v)
					}
				}
			}
		}()
	}

	var writers sync.WaitGroup
	for k := 0; k < keys; k++ {
		writers.Add(1)
		go func(k int) {
			defer writers.Done()
			for v := 0; v < writesPerKey; v++ {
				tbl.Set(k, v)
			}
		}(k)
	}
	writers.Wait()
	close(stop)
	wg.Wait()

	for k := 0; k < keys; k++ {
		if v, ok := tbl.Get(k); !ok || v != writesPerKey-1 {
			t.Errorf("Get(%d) = (%d, %v), want (%d, true)", k, v, ok, writesPerKey-1)
		}
	}
}
