package irq

import (
	"sync"
	"testing"
)

func TestPushPopFIFO(t *testing.T) {
	q := NewQueue(4)
	q.Push(Irq{ID: 1, Level: 1})
	q.Push(Irq{ID: 2, Level: 1})

	v, ok := q.Pop()
	if !ok || v.ID != 1 {
		t.Fatalf("got %+v ok=%v, want ID=1", v, ok)
	}
	v, ok = q.Pop()
	if !ok || v.ID != 2 {
		t.Fatalf("got %+v ok=%v, want ID=2", v, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestPushFullQueueFails(t *testing.T) {
	q := NewQueue(2) // rounds up to capacity 2
	if !q.Push(Irq{ID: 1}) {
		t.Fatal("expected first push to succeed")
	}
	if !q.Push(Irq{ID: 2}) {
		t.Fatal("expected second push to succeed")
	}
	if q.Push(Irq{ID: 3}) {
		t.Fatal("expected third push to fail, queue full")
	}
}

func TestLevelOrdering(t *testing.T) {
	low := Irq{ID: 1, Level: 1}
	high := Irq{ID: 2, Level: 5}
	if !high.Less(low) {
		t.Fatal("higher level should sort first")
	}
	if low.Less(high) {
		t.Fatal("lower level must not sort first")
	}
}

func TestDrainAllByPriority(t *testing.T) {
	q := NewQueue(8)
	q.Push(Irq{ID: 1, Level: 2})
	q.Push(Irq{ID: 2, Level: 9})
	q.Push(Irq{ID: 3, Level: 5})

	all := q.DrainAllByPriority()
	if len(all) != 3 {
		t.Fatalf("got %d drained, want 3 (every pending IRQ, not just the highest)", len(all))
	}
	wantOrder := []uint64{2, 3, 1} // level 9, then 5, then 2
	for i, id := range wantOrder {
		if all[i].ID != id {
			t.Fatalf("all[%d].ID = %d, want %d (priority order)", i, all[i].ID, id)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected the queue to be fully drained")
	}
}

func TestConcurrentProducersSingleConsumer(t *testing.T) {
	q := NewQueue(1024)
	const perProducer = 200
	const producers = 4

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !q.Push(Irq{ID: uint64(p*perProducer + i), Level: 1}) {
				}
			}
		}(p)
	}
	wg.Wait()

	seen := 0
	for {
		if _, ok := q.Pop(); !ok {
			break
		}
		seen++
	}
	if seen != producers*perProducer {
		t.Fatalf("consumed %d, want %d", seen, producers*perProducer)
	}
}
