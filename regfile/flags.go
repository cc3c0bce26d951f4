package regfile

import "github.com/IntuitionAmiga/aargon/ir"

// FlagBank is the fixed-size condition flag store codegen's Add/Sub
// closures write and MoveFlag closures read.
type FlagBank [ir.NumFlags]bool

func (b *FlagBank) Get(f ir.Flag) bool  { return b[f] }
func (b *FlagBank) Set(f ir.Flag, v bool) { b[f] = v }
