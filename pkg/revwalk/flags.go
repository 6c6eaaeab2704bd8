package revwalk

import (
	"errors"
	"fmt"
	"math/bits"
)

// Bits used by the walk itself. Application flags are allocated above them.
const (
	flagParsed uint32 = 1 << iota
	flagSeen
	flagUninteresting
	flagRewrite
	flagTopoDelay
	flagBoundary
	flagDuplicate

	reservedFlags = iota
)

const appFlags = ^uint32(0) &^ (1<<reservedFlags - 1)

// ErrTooManyFlags is returned by NewFlag once every application bit is in use.
var ErrTooManyFlags = errors.New("revwalk: too many flags allocated")

// RevFlag is a named bit that can be set on any object of one walk.
type RevFlag struct {
	name string
	mask uint32
	walk *Walk // nil for the built-in flags, which are valid in every walk
}

func (f *RevFlag) Name() string { return f.name }

func (f *RevFlag) String() string { return f.name }

// Built-in flags, readable on objects of any walk.
var (
	// FlagSeen is set once a commit has been queued as a start point or parent.
	FlagSeen = &RevFlag{name: "SEEN", mask: flagSeen}
	// FlagParsed is set once an object's canonical bytes were decoded.
	FlagParsed = &RevFlag{name: "PARSED", mask: flagParsed}
	// FlagUninteresting marks commits excluded from output, and their ancestors.
	FlagUninteresting = &RevFlag{name: "UNINTERESTING", mask: flagUninteresting}
	// FlagBoundary marks uninteresting commits produced by the Boundary sort.
	FlagBoundary = &RevFlag{name: "BOUNDARY", mask: flagBoundary}
)

// NewFlag allocates an application flag. Flags are scoped to the walk that
// allocated them and are cleared by Reset.
func (w *Walk) NewFlag(name string) (*RevFlag, error) {
	if w.freeFlags == 0 {
		return nil, fmt.Errorf("%w: cannot allocate %q", ErrTooManyFlags, name)
	}
	mask := uint32(1) << bits.TrailingZeros32(w.freeFlags)
	w.freeFlags &^= mask
	return &RevFlag{name: name, mask: mask, walk: w}, nil
}

// DisposeFlag clears f from every object and returns its bit to the pool.
func (w *Walk) DisposeFlag(f *RevFlag) {
	w.checkFlag("DisposeFlag", f)
	if f.mask&reservedMask() != 0 {
		return
	}
	w.removeFlagBits(f.mask)
	w.carry &^= f.mask
	w.freeFlags |= f.mask
}

// FreeFlagCount reports how many application flags can still be allocated.
func (w *Walk) FreeFlagCount() int { return bits.OnesCount32(w.freeFlags) }

// Carry makes the walk propagate f from each commit to its parents as the
// commit is popped, the way Uninteresting is carried.
func (w *Walk) Carry(flags ...*RevFlag) {
	for _, f := range flags {
		w.checkFlag("Carry", f)
		w.carry |= f.mask
	}
}

func reservedMask() uint32 { return 1<<reservedFlags - 1 }

func (w *Walk) checkFlag(op string, f *RevFlag) {
	if f.walk != nil && f.walk != w {
		panic(&MisuseError{Op: op, Reason: fmt.Sprintf("flag %s belongs to another walk", f.name)})
	}
}

func (w *Walk) removeFlagBits(mask uint32) {
	for _, o := range w.objects {
		o.base().flags &^= mask
	}
}

// carryFlags pushes the bits of mask set on c down to every known ancestor.
func carryFlags(c *RevCommit, mask uint32) {
	for {
		parents := c.parents
		if len(parents) == 0 {
			return
		}
		for _, p := range parents[1:] {
			if p.flags&mask == mask {
				continue
			}
			p.flags |= mask
			carryFlags(p, mask)
		}
		c = parents[0]
		if c.flags&mask == mask {
			return
		}
		c.flags |= mask
	}
}
