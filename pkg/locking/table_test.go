package locking

import (
	"sync"
	"testing"
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

func TestResizeInPlace(t *testing.T) {
	tbl := New[int, int](2)
	for i := 0; i < 20; i++ {
		tbl.Set(i, i*10)
	}
	for i := 0; i < 20; i++ {
		if v, ok := tbl.Get(i); !ok || v != i*10 {
			t.Errorf("Get(%d) = (%d, %v), want (%d, true)", i, v, ok, i*10)
		}
	}
	if tbl.size <= 2 {
		t.Errorf("expected the table to have grown beyond its initial size")
	}
}

func TestTombstonesDiscardedOnResize(t *testing.T) {
	tbl := New[int, int](2)
	tbl.Set(1, 1)
	tbl.Remove(1)
	for i := 2; i < 10; i++ {
		tbl.Set(i, i)
	}
	if _, ok := tbl.Get(1); ok {
		t.Fatalf("removed key resurfaced after resize")
	}
}

func TestInitialSizeZeroCoercedToOne(t *testing.T) {
	tbl := New[int, int](0)
	if tbl.size != 1 {
		t.Errorf("size = %d, want 1 (coerced from 0)", tbl.size)
	}
}

func TestConcurrentReadersWriter(t *testing.T) {
	tbl := New[int, int](4)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl.Set(i%5, i)
		}(i)
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tbl.Get(3)
		}()
	}
	wg.Wait()
}
