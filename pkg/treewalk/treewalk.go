// Package treewalk walks one or more trees in parallel, merging their
// entries by path in git order.
package treewalk

import (
	"errors"
	"fmt"

	"github.com/odvcencio/revgraph/pkg/object"
)

// ErrNotSubtree is returned by EnterSubtree when the current entry is not a tree on any side.
var ErrNotSubtree = errors.New("treewalk: current entry is not a subtree")

// level is one directory depth of the walk: the entries of each tree
// at that directory, plus the directory entry that opened it.
type level struct {
	prefix  string
	entries [][]object.TreeEntry
	pos     []int
	dir     *current
}

// current is the entry the walk is positioned on.
type current struct {
	path  string
	name  string
	modes []object.FileMode
	ids   []object.ObjectID
	post  bool
}

// TreeWalk iterates the union of entries of N trees. A tree that lacks an
// entry the others have reports ModeMissing and the zero id for it.
type TreeWalk struct {
	r         object.Reader
	stack     []*level
	cur       *current
	filter    Filter
	recursive bool
	postOrder bool
}

// New returns an empty walk that reads trees from r.
func New(r object.Reader) *TreeWalk {
	w := &TreeWalk{r: r, filter: All}
	w.Reset()
	return w
}

// Reset drops every tree and positions the walk before the first entry.
// Then each id is added as by AddTree. Post-order and recursive settings
// and the filter are kept.
func (w *TreeWalk) Reset(ids ...object.ObjectID) error {
	w.stack = []*level{{}}
	w.cur = nil
	for _, id := range ids {
		if err := w.AddTree(id); err != nil {
			return err
		}
	}
	return nil
}

// AddTree appends a tree to walk in parallel. The zero id is an empty tree.
// Trees must be added before the first call to Next.
func (w *TreeWalk) AddTree(id object.ObjectID) error {
	tr, err := object.ReadTree(w.r, id)
	if err != nil {
		return fmt.Errorf("treewalk add tree %s: %w", id, err)
	}
	root := w.stack[0]
	root.entries = append(root.entries, tr.Entries)
	root.pos = append(root.pos, 0)
	return nil
}

// TreeCount returns the number of trees being walked.
func (w *TreeWalk) TreeCount() int { return len(w.stack[0].entries) }

// SetFilter sets the filter entries must pass to be reported. nil means All.
func (w *TreeWalk) SetFilter(f Filter) {
	if f == nil {
		f = All
	}
	w.filter = f
}

func (w *TreeWalk) Filter() Filter { return w.filter }

// SetRecursive makes the walk enter every subtree on its own. The
// subtree entries themselves are then reported only as post-order visits.
func (w *TreeWalk) SetRecursive(on bool) { w.recursive = on }

func (w *TreeWalk) Recursive() bool { return w.recursive }

// SetPostOrderTraversal makes entered subtrees report a second time,
// after their children, with IsPostChildren true.
func (w *TreeWalk) SetPostOrderTraversal(on bool) { w.postOrder = on }

func (w *TreeWalk) PostOrderTraversal() bool { return w.postOrder }

// Next advances to the next entry that passes the filter.
func (w *TreeWalk) Next() (bool, error) {
	for {
		top := w.stack[len(w.stack)-1]
		c, ok := w.advance(top)
		if !ok {
			if len(w.stack) == 1 {
				w.cur = nil
				return false, nil
			}
			w.stack = w.stack[:len(w.stack)-1]
			if w.postOrder {
				post := *top.dir
				post.post = true
				w.cur = &post
				return true, nil
			}
			continue
		}

		w.cur = c
		include, err := w.filter.Include(w)
		if err != nil {
			return false, err
		}
		if !include {
			continue
		}
		if w.recursive && w.IsSubtree() {
			if err := w.EnterSubtree(); err != nil {
				return false, err
			}
			continue
		}
		return true, nil
	}
}

// advance pops the smallest entry across the trees of lv.
func (w *TreeWalk) advance(lv *level) (*current, bool) {
	best := -1
	for i, ents := range lv.entries {
		if lv.pos[i] >= len(ents) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		e, b := ents[lv.pos[i]], lv.entries[best][lv.pos[best]]
		if object.CompareEntryNames(e.Name, e.Mode, b.Name, b.Mode) < 0 {
			best = i
		}
	}
	if best < 0 {
		return nil, false
	}

	n := len(lv.entries)
	ref := lv.entries[best][lv.pos[best]]
	c := &current{
		path:  lv.prefix + ref.Name,
		name:  ref.Name,
		modes: make([]object.FileMode, n),
		ids:   make([]object.ObjectID, n),
	}
	for i, ents := range lv.entries {
		if lv.pos[i] >= len(ents) {
			continue
		}
		e := ents[lv.pos[i]]
		if object.CompareEntryNames(e.Name, e.Mode, ref.Name, ref.Mode) != 0 {
			continue
		}
		c.modes[i] = e.Mode
		c.ids[i] = e.ID
		lv.pos[i]++
	}
	return c, true
}

// EnterSubtree descends into the current entry. Trees on which the entry
// is not a subtree contribute nothing below it.
func (w *TreeWalk) EnterSubtree() error {
	if w.cur == nil || w.cur.post || !w.IsSubtree() {
		return ErrNotSubtree
	}
	n := len(w.cur.modes)
	lv := &level{
		prefix:  w.cur.path + "/",
		entries: make([][]object.TreeEntry, n),
		pos:     make([]int, n),
		dir:     w.cur,
	}
	for i, m := range w.cur.modes {
		if !m.IsTree() {
			continue
		}
		tr, err := object.ReadTree(w.r, w.cur.ids[i])
		if err != nil {
			return fmt.Errorf("treewalk enter %s: %w", w.cur.path, err)
		}
		lv.entries[i] = tr.Entries
	}
	w.stack = append(w.stack, lv)
	return nil
}

// IsSubtree reports whether the current entry is a tree on any side.
func (w *TreeWalk) IsSubtree() bool {
	if w.cur == nil {
		return false
	}
	for _, m := range w.cur.modes {
		if m.IsTree() {
			return true
		}
	}
	return false
}

// IsPostChildren reports whether the current entry is the post-order
// visit of a subtree whose children were walked.
func (w *TreeWalk) IsPostChildren() bool { return w.cur != nil && w.cur.post }

// PathString returns the slash-separated path of the current entry.
func (w *TreeWalk) PathString() string {
	if w.cur == nil {
		return ""
	}
	return w.cur.path
}

// Name returns the last path component of the current entry.
func (w *TreeWalk) Name() string {
	if w.cur == nil {
		return ""
	}
	return w.cur.name
}

// Depth is the number of subtrees entered above the current entry.
func (w *TreeWalk) Depth() int { return len(w.stack) - 1 }

// RawMode returns the mode of the current entry in tree i.
func (w *TreeWalk) RawMode(i int) object.FileMode {
	if w.cur == nil {
		return object.ModeMissing
	}
	return w.cur.modes[i]
}

// FileMode returns the mode of the current entry in tree i, normalized to
// one of the object.Mode constants.
func (w *TreeWalk) FileMode(i int) object.FileMode {
	m := w.RawMode(i)
	switch {
	case m == object.ModeMissing:
		return object.ModeMissing
	case m.IsTree():
		return object.ModeTree
	case m == object.ModeSymlink, m == object.ModeGitlink:
		return m
	case m&0o111 != 0:
		return object.ModeExecutable
	default:
		return object.ModeRegular
	}
}

// ObjectID returns the id of the current entry in tree i.
func (w *TreeWalk) ObjectID(i int) object.ObjectID {
	if w.cur == nil {
		return object.ZeroID
	}
	return w.cur.ids[i]
}

// IDEqual reports whether trees a and b hold the same id at the current entry.
func (w *TreeWalk) IDEqual(a, b int) bool {
	return w.ObjectID(a) == w.ObjectID(b)
}
