package revwalk

import (
	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/treewalk"
)

// rewriteTreeFilter decides whether a commit touched the filtered paths.
// Commits that did not are flagged for rewriting and not produced; a merge
// that matches one parent is narrowed to that parent.
type rewriteTreeFilter struct {
	w      *Walk
	filter treewalk.Filter
}

func newRewriteTreeFilter(w *Walk, f treewalk.Filter) *rewriteTreeFilter {
	return &rewriteTreeFilter{w: w, filter: treewalk.And(f, treewalk.AnyDiff)}
}

func (f *rewriteTreeFilter) walk(trees ...object.ObjectID) (*treewalk.TreeWalk, error) {
	tw := treewalk.New(f.w.r)
	tw.SetRecursive(true)
	tw.SetFilter(f.filter)
	if err := tw.Reset(trees...); err != nil {
		return nil, err
	}
	return tw, nil
}

func (f *rewriteTreeFilter) include(c *RevCommit) (bool, error) {
	parents := c.GraphParents()
	trees := make([]object.ObjectID, 0, len(parents)+1)
	for _, p := range parents {
		if err := f.w.parseHeaders(p); err != nil {
			return false, err
		}
		trees = append(trees, p.tree.id)
	}
	trees = append(trees, c.tree.id)
	n := len(parents)

	tw, err := f.walk(trees...)
	if err != nil {
		return false, err
	}

	switch n {
	case 0:
		// A root is interesting only if it holds something under the filter.
		ok, err := tw.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			c.flags |= flagRewrite
		}
		return ok, nil
	case 1:
		ok, err := tw.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			// Same as the parent under the filter; the parent takes the blame.
			c.flags |= flagRewrite
		}
		return ok, nil
	}

	changes := make([]int, n)
	adds := make([]int, n)
	for {
		ok, err := tw.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		mine := tw.RawMode(n)
		for i := 0; i < n; i++ {
			theirs := tw.RawMode(i)
			if mine == theirs && tw.IDEqual(i, n) {
				continue
			}
			changes[i]++
			if theirs == object.ModeMissing && mine != object.ModeMissing {
				adds[i]++
			}
		}
	}

	same, diff := false, false
	for i, p := range parents {
		if changes[i] == 0 {
			if p.flags&flagUninteresting != 0 {
				// Look for an interesting parent to blame instead.
				same = true
				continue
			}
			c.flags |= flagRewrite
			c.graph = []*RevCommit{p}
			return false, nil
		}
		if changes[i] == adds[i] {
			// Every difference is a path this parent never had, so its
			// history cannot explain the filtered paths.
			p.graph = []*RevCommit{}
		}
		diff = true
	}
	if diff && !same {
		return true, nil
	}
	c.flags |= flagRewrite
	return false, nil
}
