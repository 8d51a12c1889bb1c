package queue

import (
	"sync"
	"testing"
)

func TestFIFOOrder(t *testing.T) {
	q := New(4)
	var got []int
	for i := 0; i < 4; i++ {
		i := i
		if !q.Post(func() { got = append(got, i) }) {
			t.Fatalf("post %d rejected", i)
		}
	}

	if n := q.Drain(); n != 4 {
		t.Errorf("Drain: got %d, want 4", n)
	}
	for i, v := range got {
		if v != i {
			t.Errorf("position %d: got %d, want %d", i, v, i)
		}
	}
}

func TestPostFullDoesNotBlock(t *testing.T) {
	q := New(2)
	q.Post(func() {})
	q.Post(func() {})

	if q.Post(func() {}) {
		t.Error("expected post to fail on full queue")
	}
	if q.Dropped() != 1 {
		t.Errorf("Dropped: got %d, want 1", q.Dropped())
	}
	if q.Len() != 2 {
		t.Errorf("Len: got %d, want 2", q.Len())
	}
}

func TestDefaultCapacity(t *testing.T) {
	q := New(0)
	for i := 0; i < DefaultCapacity; i++ {
		if !q.Post(func() {}) {
			t.Fatalf("post %d rejected below default capacity", i)
		}
	}
	if q.Post(func() {}) {
		t.Error("expected default capacity to be enforced")
	}
}

func TestConcurrentProducers(t *testing.T) {
	q := New(64)
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 16; i++ {
				q.Post(func() {})
			}
		}()
	}
	wg.Wait()

	if n := q.Drain(); n != 64 {
		t.Errorf("Drain: got %d, want 64", n)
	}
	if q.Dropped() != 0 {
		t.Errorf("Dropped: got %d, want 0", q.Dropped())
	}
}

func TestReceiveFromC(t *testing.T) {
	q := New(1)
	ran := false
	q.Post(func() { ran = true })

	task := <-q.C()
	task()
	if !ran {
		t.Error("task from C did not run")
	}
}
