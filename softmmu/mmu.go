package softmmu

import (
	"fmt"
	"sort"
	"sync"
)

// Mmu is the guest physical address space: a sorted, non-overlapping set
// of DeviceBlocks, guarded by an RWMutex since device registration can
// race with concurrent accesses from host-side device-emulation
// goroutines while the single guest core keeps running.
type Mmu struct {
	mu     sync.RWMutex
	blocks []*DeviceBlock // kept sorted by Base
}

// ErrAccessViolation is returned (wrapped) whenever a guest address falls
// outside every mapped DeviceBlock. A compiled guest load or store turns
// it into a synchronous Exception; a failed instruction fetch in the
// runtime driver returns it as a host-fatal error.
var ErrAccessViolation = fmt.Errorf("softmmu: access violation")

func New() *Mmu { return &Mmu{} }

// Map registers a new device block. It panics on overlap with an existing
// block: a guest memory map is fixed topology decided once at boot, not a
// runtime condition callers are expected to recover from.
func (m *Mmu) Map(block *DeviceBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := sort.Search(len(m.blocks), func(i int) bool { return m.blocks[i].Base >= block.Base })
	if i > 0 && m.blocks[i-1].Base+m.blocks[i-1].Size > block.Base {
		panic(fmt.Sprintf("softmmu: block [%#x,%#x) overlaps [%#x,%#x)",
			block.Base, block.Base+block.Size, m.blocks[i-1].Base, m.blocks[i-1].Base+m.blocks[i-1].Size))
	}
	if i < len(m.blocks) && block.Base+block.Size > m.blocks[i].Base {
		panic(fmt.Sprintf("softmmu: block [%#x,%#x) overlaps [%#x,%#x)",
			block.Base, block.Base+block.Size, m.blocks[i].Base, m.blocks[i].Base+m.blocks[i].Size))
	}

	m.blocks = append(m.blocks, nil)
	copy(m.blocks[i+1:], m.blocks[i:])
	m.blocks[i] = block
}

// lookup finds the block containing addr via binary search over the
// sorted block list.
func (m *Mmu) lookup(addr uint64) (*DeviceBlock, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.blocks)
	i := sort.Search(n, func(i int) bool { return m.blocks[i].Base+m.blocks[i].Size > addr })
	if i < n && m.blocks[i].contains(addr) {
		return m.blocks[i], i, true
	}
	return nil, 0, false
}

// Cursor is a guest core's single-threaded view of an Mmu: it remembers
// the last block it touched so back-to-back accesses to the same device
// (the overwhelming common case — straight-line code touching one block
// of RAM) skip the binary search. Go has no goroutine-local storage, so
// unlike a thread_local cache this is an explicit object the runtime
// driver owns one of per guest core and threads through every access.
type Cursor struct {
	mmu       *Mmu
	lastIndex int
	lastBlock *DeviceBlock
}

func NewCursor(mmu *Mmu) *Cursor { return &Cursor{mmu: mmu, lastIndex: -1} }

func (c *Cursor) resolve(addr uint64) (*DeviceBlock, error) {
	if c.lastBlock != nil && c.lastBlock.contains(addr) {
		return c.lastBlock, nil
	}
	block, idx, ok := c.mmu.lookup(addr)
	if !ok {
		return nil, fmt.Errorf("%w: address %#x is unmapped", ErrAccessViolation, addr)
	}
	c.lastBlock, c.lastIndex = block, idx
	return block, nil
}

func (c *Cursor) ReadAt(addr uint64, dst []byte) error {
	block, err := c.resolve(addr)
	if err != nil {
		return err
	}
	return block.Device.ReadAt(addr-block.Base, dst)
}

func (c *Cursor) WriteAt(addr uint64, src []byte) error {
	block, err := c.resolve(addr)
	if err != nil {
		return err
	}
	block.link.Invalidate(addr, uint64(len(src)))
	return block.Device.WriteAt(addr-block.Base, src)
}

// LinkStateFor returns the LinkState guarding LL/SC against the block
// containing addr, for the exclusive-access instructions.
func (c *Cursor) LinkStateFor(addr uint64) (*LinkState, error) {
	block, err := c.resolve(addr)
	if err != nil {
		return nil, err
	}
	return block.link, nil
}
