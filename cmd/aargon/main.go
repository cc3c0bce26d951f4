// Command aargon runs a flat AArch64 guest binary under the translator.
//
// It takes exactly one positional argument, the path to a raw (not ELF)
// guest image, loads it at a fixed base address and starts execution there.
// There is no loader: the guest image is just bytes laid out at its own
// load address, per this translator's scope.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/IntuitionAmiga/aargon/abi/aarch64unixlinux"
	"github.com/IntuitionAmiga/aargon/runtime"
	"github.com/IntuitionAmiga/aargon/softmmu"
)

const (
	loadBase = 0x0000_0000
	ramSize  = 64 << 20 // 64 MiB guest address space
	brkSize  = 16 << 20
	irqDepth = 256
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: aargon <guest-binary>\n\nRuns a flat AArch64 guest image under the translator.\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	code, err := run(flag.Arg(0), logger)
	if err != nil {
		reportFatal(err)
		os.Exit(1)
	}
	os.Exit(int(code))
}

func run(path string, logger *slog.Logger) (int32, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("aargon: reading %s: %w", path, err)
	}
	if len(image) > ramSize {
		return 0, fmt.Errorf("aargon: guest image (%d bytes) exceeds guest RAM size (%d bytes)", len(image), ramSize)
	}

	logger.Info("loading guest image", "path", path, "bytes", len(image), "base", fmt.Sprintf("%#x", loadBase))

	mmu := softmmu.New()
	mmu.Map(softmmu.NewDeviceBlock(loadBase, ramSize, softmmu.NewRam(ramSize)))

	cur := softmmu.NewCursor(mmu)
	if err := cur.WriteAt(loadBase, image); err != nil {
		return 0, fmt.Errorf("aargon: loading guest image: %w", err)
	}

	guestAbi := aarch64unixlinux.New(loadBase+ramSize-brkSize, brkSize)
	rt := runtime.New(mmu, irqDepth, guestAbi)

	logger.Info("starting guest", "entry", fmt.Sprintf("%#x", loadBase))
	return rt.Run(loadBase)
}

// reportFatal prints a driver-fatal error to stderr, colourised when stderr
// is a terminal.
func reportFatal(err error) {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprintf(os.Stderr, "\033[31maargon: %v\033[0m\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "aargon: %v\n", err)
}
