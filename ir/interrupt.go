// interrupt.go - guest-visible control transfers out of a compiled block
//
// A compiled step closure returns *Interrupt, nil meaning it ran to
// completion without yielding. The runtime driver switches on
// InterruptKind to decide how to resume the guest.

package ir

// InterruptKind tags the reason a compiled block's execution yielded back
// to the runtime driver instead of completing.
type InterruptKind uint8

const (
	// KindException is a synchronous architectural fault (e.g. divide by
	// zero, BRK with a debug payload). Code carries the fault vector.
	KindException InterruptKind = iota
	// KindInterrupt is an interrupt request yielded by a compiled block
	// itself. Device-raised IRQs do not travel through it; the runtime
	// driver drains those from the irq queue. Code carries the interrupt id.
	KindInterrupt
	// KindSystemCall is a guest SVC. Code carries the imm16 operand.
	KindSystemCall
	// KindAbort terminates the process with the given exit code.
	KindAbort
	// KindReset terminates the process with exit code 0.
	KindReset
	// KindYield cooperatively hands the host scheduler a turn.
	KindYield
	// KindWaitForInterrupt parks the driver until an IRQ is delivered.
	KindWaitForInterrupt
)

// Interrupt is the payload yielded by a step closure. Reset/Yield/
// WaitForInterrupt do not use Code; for the other kinds its meaning is
// documented on the kind constant above.
type Interrupt struct {
	Kind InterruptKind
	Code int64
}

func Exception(code uint64) Interrupt {
	return Interrupt{Kind: KindException, Code: int64(code)}
}

func Irq(id uint64) Interrupt {
	return Interrupt{Kind: KindInterrupt, Code: int64(id)}
}

func SystemCall(imm16 uint64) Interrupt {
	return Interrupt{Kind: KindSystemCall, Code: int64(imm16)}
}

func Aborts(code int32) Interrupt {
	return Interrupt{Kind: KindAbort, Code: int64(code)}
}

func Reset() Interrupt { return Interrupt{Kind: KindReset} }

func Yield() Interrupt { return Interrupt{Kind: KindYield} }

func WaitForInterrupt() Interrupt { return Interrupt{Kind: KindWaitForInterrupt} }
