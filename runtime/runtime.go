// Package runtime drives the outer fetch-decode-lift-compile-execute loop:
// fetch a window of guest bytes, lift instructions into a BasicBlock until
// a terminator or the window runs out, compile it, run it, dispatch
// whatever Interrupt it yields to an Abi, and repeat at the resolved next
// PC. Between blocks it drains every pending IRQ and delivers each one,
// highest priority first.
package runtime

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IntuitionAmiga/aargon/aarch64/decoder"
	"github.com/IntuitionAmiga/aargon/aarch64/lifter"
	"github.com/IntuitionAmiga/aargon/abi"
	"github.com/IntuitionAmiga/aargon/codegen"
	"github.com/IntuitionAmiga/aargon/ir"
	"github.com/IntuitionAmiga/aargon/irq"
	"github.com/IntuitionAmiga/aargon/regfile"
	"github.com/IntuitionAmiga/aargon/softmmu"
)

// fetchWindow is the number of bytes fetched from guest memory per
// translation unit; a block is sealed early by a branch/call/return, or
// forced closed if it runs off the end of the window without one.
const fetchWindow = 4096

// Runtime owns the guest-visible machine state (registers, flags, guest
// memory) and the host-side services needed to run a translated AArch64
// guest to completion. There is no compiled-block cache: every block is
// translated again each time execution reaches it.
type Runtime struct {
	Regs  *regfile.File
	Flags *regfile.FlagBank
	Mem   *softmmu.Mmu
	Cur   *softmmu.Cursor
	Irqs  *irq.Queue
	Abi   abi.Abi

	access *runtimeAccess
}

// New builds a Runtime over mmu with a fresh aarch64 register file and
// flag bank, ready to Run from entryPC.
func New(mmu *softmmu.Mmu, irqCapacity int, guestAbi abi.Abi) *Runtime {
	regs := regfile.New(lifter.RegisterFileDesc())
	var flags regfile.FlagBank
	cur := softmmu.NewCursor(mmu)
	rt := &Runtime{
		Regs:  regs,
		Flags: &flags,
		Mem:   mmu,
		Cur:   cur,
		Irqs:  irq.NewQueue(irqCapacity),
		Abi:   guestAbi,
	}
	rt.access = &runtimeAccess{rt: rt}
	return rt
}

// Run executes the guest starting at entryPC until the guest (or a fatal
// host-visible error) ends the process, returning the guest's exit code.
func (rt *Runtime) Run(entryPC uint64) (int32, error) {
	rt.Regs.SetRaw(lifter.GetPCRegister(), 8, entryPC)

	if err := rt.Abi.Initialize(rt.access); err != nil {
		return 0, err
	}

	for {
		pc := rt.Regs.Get64(lifter.GetPCRegister(), 8)
		_, compiled, err := rt.translateAt(pc)
		if err != nil {
			return 0, err
		}

		ctx := codegen.NewContext(rt.Regs, rt.Flags, rt.Cur, compiled)
		for {
			interrupt, nextPC, err := compiled.Run(ctx)
			if err != nil {
				return 0, err
			}
			if interrupt == nil {
				rt.Regs.SetRaw(lifter.GetPCRegister(), 8, nextPC)
				break
			}
			exitCode, exited, err := rt.dispatch(*interrupt)
			if err != nil {
				return 0, err
			}
			if exited {
				return exitCode, nil
			}
		}

		exitCode, exited, err := rt.deliverPendingIrqs()
		if err != nil {
			return 0, err
		}
		if exited {
			return exitCode, nil
		}
	}
}

// deliverPendingIrqs drains every IRQ currently pending on the device queue
// and calls ABI.Irq once per IRQ, highest priority first — every pending
// interrupt is owed a callback, not just the one that wins the priority
// race. It stops as soon as any delivery ends the process.
func (rt *Runtime) deliverPendingIrqs() (int32, bool, error) {
	for _, pending := range rt.Irqs.DrainAllByPriority() {
		exitCode, exited, err := rt.Abi.Irq(rt.access, pending.ID, pending.Level)
		if err != nil {
			return 0, false, err
		}
		if exited {
			return exitCode, true, nil
		}
	}
	return 0, false, nil
}

// waitForInterrupt parks until at least one device IRQ is pending, then
// delivers every IRQ pending at that point through ABI.Irq in priority
// order — the guest-visible effect of AArch64's WFI once an interrupt
// arrives. There is no condition variable wired from irq.Queue.Push to a
// waiter yet, so this polls; the sleep keeps a parked guest core from
// spinning a host CPU at 100%.
func (rt *Runtime) waitForInterrupt() (int32, bool, error) {
	for {
		pending := rt.Irqs.DrainAllByPriority()
		if len(pending) == 0 {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		for _, p := range pending {
			exitCode, exited, err := rt.Abi.Irq(rt.access, p.ID, p.Level)
			if err != nil {
				return 0, false, err
			}
			if exited {
				return exitCode, true, nil
			}
		}
		return 0, false, nil
	}
}

func (rt *Runtime) dispatch(interrupt ir.Interrupt) (int32, bool, error) {
	switch interrupt.Kind {
	case ir.KindSystemCall:
		return rt.Abi.SystemCall(rt.access, interrupt.Code)
	case ir.KindException:
		return rt.Abi.Exception(rt.access, interrupt.Code)
	case ir.KindInterrupt:
		return rt.Abi.Interrupt(rt.access, interrupt.Code)
	case ir.KindAbort:
		return int32(interrupt.Code), true, nil
	case ir.KindReset:
		return 0, true, nil
	case ir.KindYield:
		return 0, false, nil
	case ir.KindWaitForInterrupt:
		return rt.waitForInterrupt()
	default:
		return 0, false, fmt.Errorf("runtime: unhandled interrupt kind %v", interrupt.Kind)
	}
}

// translateAt fetches up to fetchWindow bytes at pc, lifts instructions
// into one BasicBlock until a terminator closes it or the window is
// exhausted, and compiles the result.
func (rt *Runtime) translateAt(pc uint64) (*ir.BasicBlock, *codegen.Block, error) {
	buf := make([]byte, fetchWindow)
	if err := rt.Cur.ReadAt(pc, buf); err != nil {
		return nil, nil, fmt.Errorf("runtime: fetch at %#x: %w", pc, err)
	}

	bb := ir.NewBasicBlock(pc)
	offset := 0
	cur := pc
	for offset+4 <= len(buf) {
		instr, ok := decoder.Decode(buf[offset:])
		if !ok {
			bb.Emit(ir.MakeInterrupt(ir.Exception(0)))
			bb.Seal(ir.Next())
			break
		}
		if err := lifter.Lift(instr, cur, bb); err != nil {
			var unsupported *lifter.UnsupportedError
			if errors.As(err, &unsupported) {
				bb.Emit(ir.MakeInterrupt(ir.Exception(0)))
				bb.Seal(ir.Next())
				break
			}
			return nil, nil, err
		}
		if bb.Sealed() {
			break
		}
		offset += instr.Size
		cur += uint64(instr.Size)
	}
	if !bb.Sealed() {
		bb.Seal(ir.Next())
	}

	compiled, err := codegen.Compile(bb, lifter.GetPCRegister())
	if err != nil {
		return nil, nil, fmt.Errorf("runtime: compiling block at %#x: %w", pc, err)
	}
	return bb, compiled, nil
}

// runtimeAccess adapts a Runtime's register file and memory cursor to the
// narrow abi.Access interface.
type runtimeAccess struct {
	rt *Runtime
}

func (a *runtimeAccess) GetReg(n int) uint64 {
	return a.rt.Regs.Get64(ir.RawRegisterID(n), 8)
}

func (a *runtimeAccess) SetReg(n int, v uint64) {
	a.rt.Regs.Set64(ir.RawRegisterID(n), 8, v)
}

func (a *runtimeAccess) ReadMem(addr uint64, buf []byte) error {
	return a.rt.Cur.ReadAt(addr, buf)
}

func (a *runtimeAccess) WriteMem(addr uint64, buf []byte) error {
	return a.rt.Cur.WriteAt(addr, buf)
}

// PumpDevices runs each of devices concurrently, waits for all of them to
// return, and returns the first error any of them returned. It does not
// cancel the others when one fails. This is the host-thread coordination
// the runtime driver uses for asynchronous device emulation that raises IRQs into the queue
// Run drains between blocks.
func PumpDevices(devices ...func() error) error {
	var g errgroup.Group
	for _, d := range devices {
		d := d
		g.Go(d)
	}
	return g.Wait()
}
