// Package revwalk turns commit objects into a lazily parsed graph and walks
// it in date, topological or reverse order, optionally limited to the
// history of a set of paths.
//
// A Walk is not safe for concurrent use.
package revwalk

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/treewalk"
)

// Walk owns a pool of RevObjects read from one object source and produces
// commits from its start points.
type Walk struct {
	r       object.Reader
	objects map[object.ObjectID]RevObject

	roots      []*RevCommit
	queue      *dateQueue
	pending    generator
	err        error
	sorting    sortSet
	treeFilter treewalk.Filter

	freeFlags uint32
	carry     uint32
}

// New returns a walk reading objects from r.
func New(r object.Reader) *Walk {
	return &Walk{
		r:         r,
		objects:   make(map[object.ObjectID]RevObject),
		freeFlags: appFlags,
		carry:     flagUninteresting,
	}
}

// Reader returns the object source of the walk.
func (w *Walk) Reader() object.Reader { return w.r }

// ---------------------------------------------------------------------------
// Pool
// ---------------------------------------------------------------------------

// LookupCommit returns the walk's commit for id, creating it unparsed if
// needed. It panics with *MisuseError if id is known as another type.
func (w *Walk) LookupCommit(id object.ObjectID) *RevCommit {
	c, err := w.lookupCommit(id)
	if err != nil {
		panic(misuse("LookupCommit", "%v", err))
	}
	return c
}

// LookupTree is LookupCommit for trees.
func (w *Walk) LookupTree(id object.ObjectID) *RevTree {
	t, err := w.lookupTree(id)
	if err != nil {
		panic(misuse("LookupTree", "%v", err))
	}
	return t
}

// LookupBlob is LookupCommit for blobs.
func (w *Walk) LookupBlob(id object.ObjectID) *RevBlob {
	o, err := w.lookupAny(id, object.TypeBlob)
	if err != nil {
		panic(misuse("LookupBlob", "%v", err))
	}
	return o.(*RevBlob)
}

// LookupTag is LookupCommit for annotated tags.
func (w *Walk) LookupTag(id object.ObjectID) *RevTag {
	o, err := w.lookupAny(id, object.TypeTag)
	if err != nil {
		panic(misuse("LookupTag", "%v", err))
	}
	return o.(*RevTag)
}

// LookupAny returns the walk's object for id, creating one of typ if needed.
func (w *Walk) LookupAny(id object.ObjectID, typ object.ObjectType) RevObject {
	o, err := w.lookupAny(id, typ)
	if err != nil {
		panic(misuse("LookupAny", "%v", err))
	}
	return o
}

// Lookup returns the object already pooled for id, if any.
func (w *Walk) Lookup(id object.ObjectID) (RevObject, bool) {
	o, ok := w.objects[id]
	return o, ok
}

func (w *Walk) lookupAny(id object.ObjectID, typ object.ObjectType) (RevObject, error) {
	if o, ok := w.objects[id]; ok {
		if o.Type() != typ {
			return nil, &object.IncorrectTypeError{ID: id, Want: typ, Got: o.Type()}
		}
		return o, nil
	}
	o, err := newObject(id, typ)
	if err != nil {
		return nil, err
	}
	w.objects[id] = o
	return o, nil
}

func (w *Walk) lookupCommit(id object.ObjectID) (*RevCommit, error) {
	o, err := w.lookupAny(id, object.TypeCommit)
	if err != nil {
		return nil, err
	}
	return o.(*RevCommit), nil
}

func (w *Walk) lookupTree(id object.ObjectID) (*RevTree, error) {
	o, err := w.lookupAny(id, object.TypeTree)
	if err != nil {
		return nil, err
	}
	return o.(*RevTree), nil
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseAny reads id, whatever its type, and returns it parsed.
func (w *Walk) ParseAny(id object.ObjectID) (RevObject, error) {
	if o, ok := w.objects[id]; ok {
		return o, w.ParseHeaders(o)
	}
	typ, raw, err := w.r.Read(id)
	if err != nil {
		return nil, err
	}
	o, err := newObject(id, typ)
	if err != nil {
		return nil, err
	}
	if err := w.parseBytes(o, raw); err != nil {
		return nil, err
	}
	w.objects[id] = o
	return o, nil
}

// ParseHeaders parses o if it is not parsed yet.
func (w *Walk) ParseHeaders(o RevObject) error {
	if o.IsParsed() {
		return nil
	}
	raw, err := object.ReadTyped(w.r, o.ID(), o.Type())
	if err != nil {
		return err
	}
	return w.parseBytes(o, raw)
}

func (w *Walk) parseHeaders(c *RevCommit) error {
	if c.flags&flagParsed != 0 {
		return nil
	}
	return w.ParseHeaders(c)
}

func (w *Walk) parseBytes(o RevObject, raw []byte) error {
	switch o := o.(type) {
	case *RevCommit:
		return o.ParseCanonical(w, raw)
	case *RevTag:
		return o.parseCanonical(w, raw)
	default:
		o.base().flags |= flagParsed
		return nil
	}
}

// Peel follows annotated tags from o to the first object that is not a tag.
func (w *Walk) Peel(o RevObject) (RevObject, error) {
	for {
		tag, ok := o.(*RevTag)
		if !ok {
			return o, nil
		}
		if err := w.ParseHeaders(tag); err != nil {
			return nil, err
		}
		o = tag.Object()
		if err := w.ParseHeaders(o); err != nil {
			return nil, err
		}
	}
}

// ParseCommit reads id as a commit, peeling annotated tags.
func (w *Walk) ParseCommit(id object.ObjectID) (*RevCommit, error) {
	o, err := w.ParseAny(id)
	if err != nil {
		return nil, err
	}
	o, err = w.Peel(o)
	if err != nil {
		return nil, err
	}
	c, ok := o.(*RevCommit)
	if !ok {
		return nil, &object.IncorrectTypeError{ID: id, Want: object.TypeCommit, Got: o.Type()}
	}
	return c, nil
}

// ParseTree reads id as a tree. Tags are peeled and commits yield their tree.
func (w *Walk) ParseTree(id object.ObjectID) (*RevTree, error) {
	o, err := w.ParseAny(id)
	if err != nil {
		return nil, err
	}
	o, err = w.Peel(o)
	if err != nil {
		return nil, err
	}
	if c, ok := o.(*RevCommit); ok {
		o = c.Tree()
		if err := w.ParseHeaders(o); err != nil {
			return nil, err
		}
	}
	t, ok := o.(*RevTree)
	if !ok {
		return nil, &object.IncorrectTypeError{ID: id, Want: object.TypeTree, Got: o.Type()}
	}
	return t, nil
}

// ParseTag reads id as an annotated tag.
func (w *Walk) ParseTag(id object.ObjectID) (*RevTag, error) {
	o, err := w.ParseAny(id)
	if err != nil {
		return nil, err
	}
	t, ok := o.(*RevTag)
	if !ok {
		return nil, &object.IncorrectTypeError{ID: id, Want: object.TypeTag, Got: o.Type()}
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Sort replaces the sort modes. None, or no argument, restores the default
// date order. It panics with *MisuseError once output has started.
func (w *Walk) Sort(modes ...RevSort) {
	if w.started() {
		panic(misuse("Sort", "walk already produced output; call Reset first"))
	}
	w.sorting = 0
	for _, m := range modes {
		w.sorting = w.sorting.with(m)
	}
}

// HasSort reports whether mode is active. HasSort(None) is true when no
// other mode is.
func (w *Walk) HasSort(mode RevSort) bool { return w.sorting.has(mode) }

// SetTreeFilter limits output to commits that change paths admitted by f,
// simplifying the graph around the others. nil or treewalk.All disables
// the limit. It panics with *MisuseError once output has started.
func (w *Walk) SetTreeFilter(f treewalk.Filter) {
	if w.started() {
		panic(misuse("SetTreeFilter", "walk already produced output; call Reset first"))
	}
	if f == treewalk.All {
		f = nil
	}
	w.treeFilter = f
}

// TreeFilter returns the active tree filter, treewalk.All when none is set.
func (w *Walk) TreeFilter() treewalk.Filter {
	if w.treeFilter == nil {
		return treewalk.All
	}
	return w.treeFilter
}

// ---------------------------------------------------------------------------
// Start points
// ---------------------------------------------------------------------------

// MarkStart adds c as a starting point. Commits already queued are ignored.
func (w *Walk) MarkStart(c *RevCommit) error {
	if c.flags&flagSeen != 0 {
		return nil
	}
	if err := w.parseHeaders(c); err != nil {
		return err
	}
	c.flags |= flagSeen
	w.roots = append(w.roots, c)
	if w.queue != nil {
		w.queue.add(c)
	}
	return nil
}

// MarkUninteresting excludes c and all of its ancestors from output.
// Ancestors already parsed are marked now; the rest as the walk reaches them.
func (w *Walk) MarkUninteresting(c *RevCommit) error {
	c.flags |= flagUninteresting
	if c.IsParsed() {
		carryFlags(c, flagUninteresting)
	}
	return w.MarkStart(c)
}

// Roots returns the start points in the order they were marked.
func (w *Walk) Roots() []*RevCommit { return append([]*RevCommit(nil), w.roots...) }

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

func (w *Walk) started() bool { return w.pending != nil || w.err != nil }

// Next returns the next commit, or io.EOF once the walk is done.
func (w *Walk) Next() (*RevCommit, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.pending == nil {
		if err := w.start(); err != nil {
			w.err = err
			return nil, err
		}
	}
	c, err := w.pending.next()
	if err != nil {
		w.err = err
		return nil, err
	}
	if c == nil {
		return nil, io.EOF
	}
	return c, nil
}

// start assembles the generator chain for the configured sort and filter.
func (w *Walk) start() error {
	q := newDateQueue(w.HasSort(CommitTimeDesc))
	for _, c := range w.roots {
		q.add(c)
	}
	w.queue = q
	uninteresting := q.anybodyHas(flagUninteresting)

	var rewrite *rewriteTreeFilter
	if w.treeFilter != nil {
		rewrite = newRewriteTreeFilter(w, w.treeFilter)
	}
	var g generator = newPendingGenerator(w, q, rewrite)
	var err error

	if rewrite != nil {
		// Rewriting needs the whole filtered graph before it can link
		// produced commits to their nearest produced ancestors.
		var buf *fifoQueue
		if buf, err = drainFIFO(g); err != nil {
			return err
		}
		g = &rewriteGenerator{source: buf}
	}
	if w.HasSort(Topo) {
		if g, err = newTopoGenerator(g); err != nil {
			return err
		}
	}
	if w.HasSort(Reverse) {
		if g, err = drainLIFO(g); err != nil {
			return err
		}
	}
	switch {
	case w.HasSort(Boundary):
		g = &boundaryGenerator{w: w, source: g}
	case uninteresting:
		if q.size() > 0 {
			g = &delayGenerator{source: g, delay: newFIFO()}
		}
		g = &fixUninterestingGenerator{source: g}
	}
	w.pending = g
	return nil
}

// ForEach calls fn for every remaining commit. Returning ErrStop from fn
// ends the walk early with a nil error.
func (w *Walk) ForEach(fn func(*RevCommit) error) error {
	for {
		c, err := w.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// All returns an iterator over the remaining commits. An error is yielded
// once, with a nil commit, and ends the sequence.
func (w *Walk) All() iter.Seq2[*RevCommit, error] {
	return func(yield func(*RevCommit, error) bool) {
		for {
			c, err := w.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Reset
// ---------------------------------------------------------------------------

// Reset prepares the walk for another run over the same pool. Every flag
// except Parsed is cleared, start points are dropped and rewritten graph
// parents are forgotten. Sort modes and the tree filter are kept.
func (w *Walk) Reset() { w.ResetRetain() }

// ResetRetain is Reset but keeps the given flags on every object.
func (w *Walk) ResetRetain(keep ...*RevFlag) {
	retain := flagParsed
	for _, f := range keep {
		w.checkFlag("ResetRetain", f)
		retain |= f.mask
	}
	for _, o := range w.objects {
		o.base().flags &= retain
		if c, ok := o.(*RevCommit); ok {
			c.inDegree = 0
			c.graph = nil
		}
	}
	w.roots = nil
	w.queue = nil
	w.pending = nil
	w.err = nil
}

// Dispose resets the walk, empties its pool and frees every application flag.
func (w *Walk) Dispose() {
	w.Reset()
	w.objects = make(map[object.ObjectID]RevObject)
	w.freeFlags = appFlags
	w.carry = flagUninteresting
}

func (w *Walk) String() string {
	return fmt.Sprintf("revwalk{objects=%d roots=%d sort=%s}", len(w.objects), len(w.roots), w.sorting)
}
