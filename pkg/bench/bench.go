// Package bench drives the concurrent workloads used to exercise
// pkg/lockfree end to end (spec.md §8 scenario 5) and to cross-check it
// against the pkg/locking oracle (spec.md §4.3). It carries no table
// design of its own — it is harness code, explicitly out of scope per
// spec.md §1 — but it is the table's primary consumer, so it still needs
// to exist and compile.
package bench

import (
	"sync"
	"time"

	"golang.org/x/exp/constraints"

	"drckv/pkg/lockfree"
	"drckv/pkg/locking"
)

// Counter is a concurrency-safe running total over any integer type,
// used to aggregate per-goroutine statistics during a run.
type Counter[T constraints.Integer] struct {
	mu    sync.Mutex
	total T
}

// Add adds delta to the counter.
func (c *Counter[T]) Add(delta T) {
	c.mu.Lock()
	c.total += delta
	c.mu.Unlock()
}

// Value returns the counter's current total.
func (c *Counter[T]) Value() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Result summarizes one workload run.
type Result struct {
	Writes int64
	Reads  int64
	Hits   int64
	Misses int64
}

// Config describes one workload run against a lockfree.Table.
type Config[K comparable, V any] struct {
	Writers  int
	Readers  int
	Duration time.Duration
	// KeyFn produces the key a writer or reader goroutine should act on
	// for its goroutineID and the seq-th operation it issues.
	KeyFn func(goroutineID, seq int) K
	// ValueFn produces the value a writer should install for the seq-th
	// write it issues.
	ValueFn func(seq int) V
}

// Run drives cfg.Writers writer goroutines and cfg.Readers reader
// goroutines against tbl for cfg.Duration, then returns aggregate counts.
func Run[K comparable, V any](tbl *lockfree.Table[K, V], cfg Config[K, V]) Result {
	var writes, reads, hits, misses Counter[int64]

	stop := make(chan struct{})
	var wg sync.WaitGroup

	for w := 0; w < cfg.Writers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for seq := 0; ; seq++ {
				select {
				case <-stop:
					return
				default:
				}
				tbl.Set(cfg.KeyFn(id, seq), cfg.ValueFn(seq))
				writes.Add(1)
			}
		}(w)
	}

	for r := 0; r < cfg.Readers; r++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for seq := 0; ; seq++ {
				select {
				case <-stop:
					return
				default:
				}
				if _, ok := tbl.Get(cfg.KeyFn(id, seq)); ok {
					hits.Add(1)
				} else {
					misses.Add(1)
				}
				reads.Add(1)
			}
		}(r)
	}

	time.Sleep(cfg.Duration)
	close(stop)
	wg.Wait()

	return Result{
		Writes: writes.Value(),
		Reads:  reads.Value(),
		Hits:   hits.Value(),
		Misses: misses.Value(),
	}
}

// CompareAgainstOracle replays apply against a fresh lockfree.Table and a
// fresh locking.Table, then reports how many of keys have disagreeing
// final values between the two (spec §4.3: the locking table is a
// semantic oracle for the lock-free one).
func CompareAgainstOracle[K comparable, V comparable](keys []K, apply func(set func(K, V), remove func(K))) int64 {
	lf := lockfree.New[K, V](1)
	lk := locking.New[K, V](1)

	apply(lf.Set, lf.Remove)
	apply(lk.Set, lk.Remove)

	var mismatches int64
	for _, k := range keys {
		lfVal, lfOK := lf.Get(k)
		lkVal, lkOK := lk.Get(k)
		if lfOK != lkOK || lfVal != lkVal {
			mismatches++
		}
	}
	return mismatches
}
