// Package regfile implements the architecture-neutral flat register file
// IR values are projected onto: one backing byte buffer, described by a
// table of (offset, size, read-only) entries keyed by raw register id.
package regfile

import (
	"fmt"

	"github.com/IntuitionAmiga/aargon/ir"
)

// Entry describes one architectural register's placement in the backing
// buffer.
type Entry struct {
	Offset   int
	Size     int
	ReadOnly bool
}

// Desc is a fixed table of register placements, built once per
// architecture and shared read-only across every RegisterFile instance.
type Desc struct {
	entries   map[ir.RawRegisterID]Entry
	totalSize int
}

// NewDesc lays out regs (in the given order) back to back, 8-byte aligned,
// and returns the resulting Desc.
func NewDesc(order []ir.RawRegisterID, size func(ir.RawRegisterID) int, readOnly func(ir.RawRegisterID) bool) *Desc {
	d := &Desc{entries: make(map[ir.RawRegisterID]Entry, len(order))}
	offset := 0
	for _, id := range order {
		sz := size(id)
		d.entries[id] = Entry{Offset: offset, Size: sz, ReadOnly: readOnly(id)}
		offset += align8(sz)
	}
	d.totalSize = offset
	return d
}

func align8(n int) int { return (n + 7) &^ 7 }

func (d *Desc) Lookup(id ir.RawRegisterID) (Entry, bool) {
	e, ok := d.entries[id]
	return e, ok
}

func (d *Desc) TotalSize() int { return d.totalSize }

// File is a register file backed by a flat byte slice laid out per Desc.
type File struct {
	desc *Desc
	buf  []byte
}

func New(desc *Desc) *File {
	return &File{desc: desc, buf: make([]byte, desc.TotalSize())}
}

func (f *File) entryFor(id ir.RawRegisterID, width int) Entry {
	e, ok := f.desc.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("regfile: unknown register id %d", id))
	}
	if width > e.Size {
		panic(fmt.Sprintf("regfile: register %d is %d bytes, requested %d", id, e.Size, width))
	}
	return e
}

// Get64 reads width bytes (1, 2, 4 or 8) of register id, zero-extended to
// uint64. Narrower-than-native reads (e.g. W0 as a view of X0) read the
// register's low bytes, little-endian.
func (f *File) Get64(id ir.RawRegisterID, width int) uint64 {
	e := f.entryFor(id, width)
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(f.buf[e.Offset+i]) << (8 * i)
	}
	return v
}

// Set64 writes the low width bytes of v into register id, little-endian.
// Writing a narrower-than-native width zero-extends into the rest of the
// register's storage, matching AArch64's W-register write semantics.
func (f *File) Set64(id ir.RawRegisterID, width int, v uint64) {
	e := f.entryFor(id, width)
	if e.ReadOnly {
		panic(fmt.Sprintf("regfile: register %d is read-only", id))
	}
	for i := 0; i < e.Size; i++ {
		if i < width {
			f.buf[e.Offset+i] = byte(v >> (8 * i))
		} else {
			f.buf[e.Offset+i] = 0
		}
	}
}

// SetRaw force-writes a read-only register (PC advancement, reset vectors)
// bypassing the ReadOnly guard Set64 enforces against guest code.
func (f *File) SetRaw(id ir.RawRegisterID, width int, v uint64) {
	e := f.entryFor(id, width)
	for i := 0; i < e.Size; i++ {
		if i < width {
			f.buf[e.Offset+i] = byte(v >> (8 * i))
		} else {
			f.buf[e.Offset+i] = 0
		}
	}
}
