package treewalk

import (
	"errors"
	"strings"
)

// Filter selects which entries a TreeWalk reports. Excluding a subtree
// also skips everything below it.
type Filter interface {
	Include(w *TreeWalk) (bool, error)
	// ShouldBeRecursive reports whether the filter looks below the
	// top level and so needs the walk to descend to decide.
	ShouldBeRecursive() bool
}

type allFilter struct{}

func (allFilter) Include(*TreeWalk) (bool, error) { return true, nil }
func (allFilter) ShouldBeRecursive() bool         { return false }
func (allFilter) String() string                  { return "ALL" }

type anyDiffFilter struct{}

func (anyDiffFilter) Include(w *TreeWalk) (bool, error) {
	n := w.TreeCount()
	if n <= 1 {
		return true, nil
	}
	m0, id0 := w.RawMode(0), w.ObjectID(0)
	for i := 1; i < n; i++ {
		if w.RawMode(i) != m0 || w.ObjectID(i) != id0 {
			return true, nil
		}
	}
	return false, nil
}

func (anyDiffFilter) ShouldBeRecursive() bool { return false }
func (anyDiffFilter) String() string          { return "ANY_DIFF" }

var (
	// All includes every entry.
	All Filter = allFilter{}
	// AnyDiff includes entries whose mode or id differs across the trees.
	AnyDiff Filter = anyDiffFilter{}
)

type andFilter []Filter

// And includes an entry only if every filter does. Evaluation stops at
// the first exclusion.
func And(filters ...Filter) Filter {
	if len(filters) == 1 {
		return filters[0]
	}
	return andFilter(append([]Filter(nil), filters...))
}

func (f andFilter) Include(w *TreeWalk) (bool, error) {
	for _, sub := range f {
		ok, err := sub.Include(w)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (f andFilter) ShouldBeRecursive() bool { return anyRecursive(f) }

func (f andFilter) String() string { return joinFilters("AND", f) }

type orFilter []Filter

// Or includes an entry if any filter does.
func Or(filters ...Filter) Filter {
	if len(filters) == 1 {
		return filters[0]
	}
	return orFilter(append([]Filter(nil), filters...))
}

func (f orFilter) Include(w *TreeWalk) (bool, error) {
	for _, sub := range f {
		ok, err := sub.Include(w)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (f orFilter) ShouldBeRecursive() bool { return anyRecursive(f) }

func (f orFilter) String() string { return joinFilters("OR", f) }

type notFilter struct{ f Filter }

// Not inverts f.
func Not(f Filter) Filter {
	if n, ok := f.(notFilter); ok {
		return n.f
	}
	return notFilter{f: f}
}

func (n notFilter) Include(w *TreeWalk) (bool, error) {
	ok, err := n.f.Include(w)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (n notFilter) ShouldBeRecursive() bool { return n.f.ShouldBeRecursive() }

func (n notFilter) String() string { return "NOT(" + filterString(n.f) + ")" }

func anyRecursive(filters []Filter) bool {
	for _, f := range filters {
		if f.ShouldBeRecursive() {
			return true
		}
	}
	return false
}

func joinFilters(op string, filters []Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = filterString(f)
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}

func filterString(f Filter) string {
	if s, ok := f.(interface{ String() string }); ok {
		return s.String()
	}
	return "?"
}

// ErrEmptyPath is returned when a path filter is built from an empty path.
var ErrEmptyPath = errors.New("treewalk: empty path filter")
