package diff

import (
	"fmt"
	"strings"
)

// EditType classifies an Edit by which of its two ranges are empty.
type EditType int

const (
	Empty   EditType = iota // Both ranges are empty.
	Insert                  // Only the B range has lines.
	Delete                  // Only the A range has lines.
	Replace                 // Both ranges have lines.
)

func (t EditType) String() string {
	switch t {
	case Empty:
		return "EMPTY"
	case Insert:
		return "INSERT"
	case Delete:
		return "DELETE"
	case Replace:
		return "REPLACE"
	default:
		return fmt.Sprintf("EditType(%d)", int(t))
	}
}

// Edit is a pair of half-open line ranges: lines [BeginA, EndA) of the old
// sequence were replaced by lines [BeginB, EndB) of the new one. Edits are
// compared with ==.
type Edit struct {
	BeginA, EndA int
	BeginB, EndB int
}

// NewEdit returns the edit replacing [beginA, endA) with [beginB, endB).
func NewEdit(beginA, endA, beginB, endB int) Edit {
	return Edit{BeginA: beginA, EndA: endA, BeginB: beginB, EndB: endB}
}

// NewEmptyEdit returns an edit with empty ranges at as and bs.
func NewEmptyEdit(as, bs int) Edit {
	return Edit{BeginA: as, EndA: as, BeginB: bs, EndB: bs}
}

// Type reports the kind of change the edit describes.
func (e Edit) Type() EditType {
	switch {
	case e.BeginA == e.EndA && e.BeginB == e.EndB:
		return Empty
	case e.BeginA == e.EndA:
		return Insert
	case e.BeginB == e.EndB:
		return Delete
	default:
		return Replace
	}
}

// LengthA is the number of old lines covered.
func (e Edit) LengthA() int { return e.EndA - e.BeginA }

// LengthB is the number of new lines covered.
func (e Edit) LengthB() int { return e.EndB - e.BeginB }

// Swap exchanges the A and B ranges, turning an edit from a to b into one from b to a.
func (e *Edit) Swap() {
	e.BeginA, e.BeginB = e.BeginB, e.BeginA
	e.EndA, e.EndB = e.EndB, e.EndA
}

// ExtendA grows the A range by one line.
func (e *Edit) ExtendA() { e.EndA++ }

// ExtendB grows the B range by one line.
func (e *Edit) ExtendB() { e.EndB++ }

func (e Edit) String() string {
	return fmt.Sprintf("%s(%d-%d,%d-%d)", e.Type(), e.BeginA, e.EndA, e.BeginB, e.EndB)
}

// EditList is an edit script in ascending line order.
type EditList []Edit

func (l EditList) String() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.String()
	}
	return "EditList[" + strings.Join(parts, ", ") + "]"
}
