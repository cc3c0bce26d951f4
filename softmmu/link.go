package softmmu

import "sync"

// LinkState implements load-linked/store-conditional exclusive access for
// one device block. A guest core's LL instruction calls Link to record a
// reservation; its SC instruction calls StoreConditional, which only
// performs the write and clears the reservation if nothing has disturbed
// it since. Any ordinary (non-exclusive) write that lands inside a live
// reservation clears it via Invalidate, so a plain store from another
// host thread correctly fails a pending SC the way real hardware's
// coherence protocol would.
type LinkState struct {
	mu       sync.Mutex
	reserved bool
	addr     uint64
	size     uint64
}

func NewLinkState() *LinkState { return &LinkState{} }

// Link records a reservation on [addr, addr+size).
func (l *LinkState) Link(addr, size uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reserved = true
	l.addr = addr
	l.size = size
}

// StoreConditional performs store() and clears the reservation if addr
// still matches an outstanding reservation; otherwise it does nothing and
// reports failure. store is called with the lock held, so the write and
// the reservation check are atomic with respect to a concurrent Link or
// Invalidate from another host thread.
func (l *LinkState) StoreConditional(addr uint64, store func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.reserved || l.addr != addr {
		return false
	}
	store()
	l.reserved = false
	return true
}

// Invalidate clears any reservation overlapping [addr, addr+size), called
// by a plain (non-exclusive) write before it lands.
func (l *LinkState) Invalidate(addr, size uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.reserved {
		return
	}
	if addr < l.addr+l.size && l.addr < addr+size {
		l.reserved = false
	}
}
