package softmmu

import "github.com/IntuitionAmiga/aargon/bitutil"

// LL64 performs an exclusive load of 8 bytes at addr, establishing a
// reservation a later SC64 against the same address can succeed against.
func (c *Cursor) LL64(addr uint64) (uint64, error) {
	block, err := c.resolve(addr)
	if err != nil {
		return 0, err
	}
	block.link.Link(addr, 8)
	var buf [8]byte
	if err := block.Device.ReadAt(addr-block.Base, buf[:]); err != nil {
		return 0, err
	}
	return bitutil.Get64LE(buf[:], 0), nil
}

// LL32 is LL64 narrowed to a 4-byte reservation granule.
func (c *Cursor) LL32(addr uint64) (uint32, error) {
	block, err := c.resolve(addr)
	if err != nil {
		return 0, err
	}
	block.link.Link(addr, 4)
	var buf [4]byte
	if err := block.Device.ReadAt(addr-block.Base, buf[:]); err != nil {
		return 0, err
	}
	return bitutil.Get32LE(buf[:], 0), nil
}

// SC64 attempts to store value at addr, succeeding only if the
// reservation from the most recent LL64 at addr is still intact.
func (c *Cursor) SC64(addr uint64, value uint64) (bool, error) {
	block, err := c.resolve(addr)
	if err != nil {
		return false, err
	}
	var storeErr error
	ok := block.link.StoreConditional(addr, func() {
		var buf [8]byte
		bitutil.Put64LE(buf[:], 0, value)
		storeErr = block.Device.WriteAt(addr-block.Base, buf[:])
	})
	if storeErr != nil {
		return false, storeErr
	}
	return ok, nil
}

// SC32 is SC64 narrowed to a 4-byte store.
func (c *Cursor) SC32(addr uint64, value uint32) (bool, error) {
	block, err := c.resolve(addr)
	if err != nil {
		return false, err
	}
	var storeErr error
	ok := block.link.StoreConditional(addr, func() {
		var buf [4]byte
		bitutil.Put32LE(buf[:], 0, value)
		storeErr = block.Device.WriteAt(addr-block.Base, buf[:])
	})
	if storeErr != nil {
		return false, storeErr
	}
	return ok, nil
}
