// Package abi defines the interface the runtime driver calls into when a
// compiled block yields an Interrupt: the guest/host boundary for system
// calls, faults and process lifecycle, kept separate from the core
// translation pipeline so a new guest ABI needs no changes to ir, codegen
// or the lifter.
package abi

import "github.com/IntuitionAmiga/aargon/ir"

// Abi handles every Interrupt kind a compiled block can yield, plus guest
// startup and device-raised IRQ delivery. Handlers read and write guest
// state through access, which the runtime driver passes in so an Abi
// implementation never has to reach into driver internals.
type Abi interface {
	// Initialize runs once before the first block executes, letting the
	// ABI set up any guest-visible state (stack, initial registers) the
	// driver itself doesn't know how to prepare.
	Initialize(access Access) error

	// SystemCall handles a guest SVC. It returns the guest's exit code
	// and true if the call terminated the process (exit/exit_group);
	// otherwise it returns false and the driver keeps running the next
	// block.
	SystemCall(access Access, code int64) (exitCode int32, exited bool, err error)

	// Exception handles a synchronous fault (BRK, divide-by-zero, an
	// unmapped memory access). It returns the guest's exit code and true
	// if the fault is fatal; otherwise false to resume execution.
	Exception(access Access, code int64) (exitCode int32, exited bool, err error)

	// Interrupt handles a compiled block yielding KindInterrupt directly
	// (a synchronous, in-block interrupt request) — distinct from a
	// device-raised IRQ drained from the pending queue, which goes
	// through Irq instead.
	Interrupt(access Access, code int64) (exitCode int32, exited bool, err error)

	// Irq handles one device-raised interrupt drained from the pending
	// queue. The runtime driver calls this once per drained IRQ, in
	// priority order (highest Level first), both between blocks and when
	// resuming from KindWaitForInterrupt.
	Irq(access Access, id uint64, level uint8) (exitCode int32, exited bool, err error)
}

// Access is the narrow view of guest state an Abi implementation needs:
// general-purpose register read/write (by AArch64 calling-convention
// register number, x0..x7 for syscall args, x8 for the syscall number,
// x0 again for the return value) and a flat byte-addressable view of
// guest memory for string/buffer arguments.
type Access interface {
	GetReg(n int) uint64
	SetReg(n int, v uint64)
	ReadMem(addr uint64, buf []byte) error
	WriteMem(addr uint64, buf []byte) error
}

// RawRegisterFor maps an AArch64 calling-convention argument index (0-7)
// to the raw register id the lifter and regfile use.
func RawRegisterFor(argIndex int) ir.RawRegisterID {
	return ir.RawRegisterID(argIndex)
}
