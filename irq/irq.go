// Package irq implements guest interrupt delivery: a totally ordered Irq
// value and a lock-free bounded multi-producer, single-consumer queue
// devices push onto and the runtime driver drains between basic blocks.
package irq

import (
	"sort"
	"sync/atomic"
)

// Irq is one pending interrupt. Level breaks ties when multiple IRQs are
// pending: higher Level is serviced first.
type Irq struct {
	ID    uint64
	Level uint8
}

// Less orders by Level descending (higher level = higher priority), ID
// ascending as a tiebreaker so delivery order is deterministic for
// same-level IRQs raised in the same poll.
func (a Irq) Less(b Irq) bool {
	if a.Level != b.Level {
		return a.Level > b.Level
	}
	return a.ID < b.ID
}

// Queue is a bounded MPSC ring buffer. Multiple device goroutines call
// Push concurrently; exactly one consumer (the runtime driver) calls Pop.
// A full queue drops the newest IRQ rather than blocking the producer,
// since a device thread must never stall on the guest core's schedule.
type Queue struct {
	slots []slot
	mask  uint64
	head  atomic.Uint64 // next slot a producer may claim
	tail  atomic.Uint64 // next slot the consumer will read
}

type slot struct {
	seq atomic.Uint64
	val Irq
}

// NewQueue builds a queue with capacity rounded up to the next power of
// two (a ring buffer of 2^n size lets index wrapping use a mask instead of
// a modulo).
func NewQueue(capacity int) *Queue {
	n := 1
	for n < capacity {
		n <<= 1
	}
	q := &Queue{slots: make([]slot, n), mask: uint64(n - 1)}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// Push enqueues irq. It reports false if the queue was full, in which case
// the caller (a device's interrupt-raise path) has dropped the IRQ.
func (q *Queue) Push(irq Irq) bool {
	for {
		pos := q.head.Load()
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if q.head.CompareAndSwap(pos, pos+1) {
				s.val = irq
				s.seq.Store(pos + 1)
				return true
			}
		case diff < 0:
			return false // queue full
		default:
			// another producer raced ahead; retry with the new head
		}
	}
}

// Pop dequeues the oldest pushed Irq. Only the single consumer goroutine
// may call Pop.
func (q *Queue) Pop() (Irq, bool) {
	pos := q.tail.Load()
	s := &q.slots[pos&q.mask]
	seq := s.seq.Load()
	diff := int64(seq) - int64(pos+1)
	if diff != 0 {
		return Irq{}, false
	}
	v := s.val
	q.tail.Store(pos + 1)
	s.seq.Store(pos + q.mask + 1)
	return v, true
}

// DrainAllByPriority pops every pending Irq and returns all of them ordered
// highest-priority first (per Irq.Less). The runtime driver calls this
// between basic blocks and delivers every one of them to ABI.on_irq, in
// this order — a device IRQ that loses the priority race is still owed a
// callback, not silently dropped.
func (q *Queue) DrainAllByPriority() []Irq {
	var all []Irq
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Less(all[j]) })
	return all
}
