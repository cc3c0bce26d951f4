// Package aarch64unixlinux implements abi.Abi for an aarch64-unknown-linux
// guest, translating the handful of syscalls a static, single-threaded
// guest binary typically makes into host syscalls via golang.org/x/sys/unix.
package aarch64unixlinux

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/IntuitionAmiga/aargon/abi"
)

const (
	sysIoctl      = 29
	sysWritev     = 66
	sysExit       = 93
	sysExitGroup  = 94
	sysBrk        = 214
	sysUname      = 160
	sysMmap       = 222
	sysWrite      = 64
	sysReadlinkat = 78
)

// Linux is a concrete Abi implementation for aarch64-unknown-linux guests.
// Brk is modeled as a bump allocator over a fixed-size arena rather than
// growing the host's own heap, since the guest's notion of "the break"
// must live inside the soft-MMU's address space, not the translator's.
type Linux struct {
	brkBase    uint64
	brkCurrent uint64
	brkLimit   uint64
}

// New builds a Linux ABI shim whose brk arena spans [base, base+size).
func New(base, size uint64) *Linux {
	return &Linux{brkBase: base, brkCurrent: base, brkLimit: base + size}
}

// Initialize has nothing to do: there is no ELF loader setting up argv,
// envp or auxv, so the guest's own _start is responsible for whatever
// stack layout it expects.
func (l *Linux) Initialize(access abi.Access) error { return nil }

// Interrupt handles a block-internal interrupt request. A static,
// single-threaded Linux guest never raises one synchronously (it has no
// vector table to target), so this is treated the same as an unrecoverable
// exception.
func (l *Linux) Interrupt(access abi.Access, code int64) (int32, bool, error) {
	return int32(128 + code), true, nil
}

// Irq delivers one device-raised interrupt. A guest with no interrupt
// controller or driver installed has nothing useful to do with it; this
// shim just acknowledges delivery and keeps running.
func (l *Linux) Irq(access abi.Access, id uint64, level uint8) (int32, bool, error) {
	return 0, false, nil
}

func (l *Linux) SystemCall(access abi.Access, code int64) (int32, bool, error) {
	nr := access.GetReg(8)
	switch nr {
	case sysExit, sysExitGroup:
		return int32(access.GetReg(0)), true, nil

	case sysWrite:
		fd := int(access.GetReg(0))
		addr := access.GetReg(1)
		count := access.GetReg(2)
		buf := make([]byte, count)
		if err := access.ReadMem(addr, buf); err != nil {
			return 0, false, err
		}
		n, err := writeToHostFd(fd, buf)
		access.SetReg(0, uint64(n))
		return 0, false, err

	case sysBrk:
		requested := access.GetReg(0)
		if requested == 0 || requested < l.brkBase {
			access.SetReg(0, l.brkCurrent)
			return 0, false, nil
		}
		if requested > l.brkLimit {
			access.SetReg(0, l.brkCurrent) // deny growth past the arena, guest sees no change
			return 0, false, nil
		}
		l.brkCurrent = requested
		access.SetReg(0, l.brkCurrent)
		return 0, false, nil

	case sysUname:
		return 0, false, l.writeUname(access, access.GetReg(0))

	case sysMmap:
		// anonymous-only bump allocation within the brk arena; a real
		// file-backed mmap has no meaning without an ELF loader, which
		// is outside this translator's scope.
		length := access.GetReg(1)
		addr := l.brkCurrent
		if addr+length > l.brkLimit {
			access.SetReg(0, uint64(int64(-int64(unix.ENOMEM))))
			return 0, false, nil
		}
		l.brkCurrent += length
		access.SetReg(0, addr)
		return 0, false, nil

	case sysIoctl, sysWritev, sysReadlinkat:
		access.SetReg(0, uint64(int64(-int64(unix.ENOSYS))))
		return 0, false, nil

	default:
		access.SetReg(0, uint64(int64(-int64(unix.ENOSYS))))
		return 0, false, nil
	}
}

func (l *Linux) Exception(access abi.Access, code int64) (int32, bool, error) {
	// Every synchronous fault this translator raises (BRK immediate,
	// divide-by-zero, unmapped memory access) is unrecoverable for a
	// user-mode guest with no exception vector table installed: report it
	// as the process's exit status, 128 plus the fault code.
	return int32(128 + code), true, nil
}

func writeToHostFd(fd int, buf []byte) (int, error) {
	switch fd {
	case 1:
		return os.Stdout.Write(buf)
	case 2:
		return os.Stderr.Write(buf)
	default:
		n, err := unix.Write(fd, buf)
		if err != nil {
			return n, fmt.Errorf("aarch64unixlinux: write(fd=%d): %w", fd, err)
		}
		return n, nil
	}
}

// writeUname fills a guest struct utsname at addr with this host's
// identity, reusing unix.Uname rather than hand-rolling the field layout.
func (l *Linux) writeUname(access abi.Access, addr uint64) error {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return fmt.Errorf("aarch64unixlinux: uname: %w", err)
	}
	const fieldSize = 65
	fields := [][65]byte{u.Sysname, u.Nodename, u.Release, u.Version, u.Machine, u.Domainname}
	for i, f := range fields {
		buf := make([]byte, fieldSize)
		for j, b := range f {
			buf[j] = byte(b)
		}
		if err := access.WriteMem(addr+uint64(i*fieldSize), buf); err != nil {
			return err
		}
	}
	return nil
}
