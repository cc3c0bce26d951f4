package softmmu

import (
	"sync"
	"testing"
)

func newTestMmu(t *testing.T) (*Mmu, *DeviceBlock) {
	t.Helper()
	mmu := New()
	block := NewDeviceBlock(0x1000, 0x1000, NewRam(0x1000))
	mmu.Map(block)
	return mmu, block
}

func TestCursorReadWriteRoundTrip(t *testing.T) {
	mmu, _ := newTestMmu(t)
	c := NewCursor(mmu)

	if err := c.WriteAt(0x1010, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := make([]byte, 4)
	if err := c.ReadAt(0x1010, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got[0] != 1 || got[3] != 4 {
		t.Fatalf("got %v", got)
	}
}

func TestCursorUnmappedAddressErrors(t *testing.T) {
	mmu, _ := newTestMmu(t)
	c := NewCursor(mmu)
	if err := c.ReadAt(0x500, make([]byte, 4)); err == nil {
		t.Fatal("expected error reading an unmapped address")
	}
}

func TestMapOverlapPanics(t *testing.T) {
	mmu := New()
	mmu.Map(NewDeviceBlock(0x1000, 0x1000, NewRam(0x1000)))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overlapping map")
		}
	}()
	mmu.Map(NewDeviceBlock(0x1800, 0x1000, NewRam(0x1000)))
}

func TestCursorCacheHitsSameBlock(t *testing.T) {
	mmu, block := newTestMmu(t)
	c := NewCursor(mmu)

	if err := c.WriteAt(0x1004, []byte{9}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if c.lastBlock != block {
		t.Fatal("expected the fast-path cache to remember the touched block")
	}
	if err := c.WriteAt(0x1008, []byte{9}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if c.lastBlock != block {
		t.Fatal("second access to the same block should hit the cache")
	}
}

func TestLLSCSucceedsWithoutInterference(t *testing.T) {
	mmu, _ := newTestMmu(t)
	c := NewCursor(mmu)

	if err := c.WriteAt(0x1020, []byte{0, 0, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.LL64(0x1020); err != nil {
		t.Fatal(err)
	}
	ok, err := c.SC64(0x1020, 42)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected uncontended SC64 to succeed")
	}
}

func TestLLSCFailsAfterInterveningWrite(t *testing.T) {
	mmu, _ := newTestMmu(t)
	c1 := NewCursor(mmu)
	c2 := NewCursor(mmu)

	if _, err := c1.LL64(0x1020); err != nil {
		t.Fatal(err)
	}
	// a second thread's ordinary store to the same address invalidates
	// the first thread's reservation.
	if err := c2.WriteAt(0x1020, make([]byte, 8)); err != nil {
		t.Fatal(err)
	}
	ok, err := c1.SC64(0x1020, 99)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected SC64 to fail after an intervening write")
	}
}

// TestLLSCConcurrentRaceExactlyOneWinner runs two goroutines racing an
// LL/SC increment against the same word many times; exactly one must win
// each round; over many rounds the word must end up with one successful
// increment per round — never double-counted, never lost.
func TestLLSCConcurrentRaceExactlyOneWinner(t *testing.T) {
	mmu, _ := newTestMmu(t)
	const rounds = 200
	addr := uint64(0x1040)
	c0 := NewCursor(mmu)
	if err := c0.WriteAt(addr, make([]byte, 8)); err != nil {
		t.Fatal(err)
	}

	var successes int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	attempt := func() {
		defer wg.Done()
		c := NewCursor(mmu)
		for i := 0; i < rounds; i++ {
			for {
				old, err := c.LL64(addr)
				if err != nil {
					t.Error(err)
					return
				}
				ok, err := c.SC64(addr, old+1)
				if err != nil {
					t.Error(err)
					return
				}
				if ok {
					mu.Lock()
					successes++
					mu.Unlock()
					break
				}
			}
		}
	}
	wg.Add(2)
	go attempt()
	go attempt()
	wg.Wait()

	final, err := c0.LL64(addr)
	if err != nil {
		t.Fatal(err)
	}
	if final != uint64(2*rounds) {
		t.Fatalf("final value = %d, want %d (every increment landed exactly once)", final, 2*rounds)
	}
}
