package repo

import (
	"errors"
	"fmt"
	"io"

	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/revwalk"
	"github.com/odvcencio/revgraph/pkg/treewalk"
)

// LogOptions selects the commits Log returns.
type LogOptions struct {
	Start   []string // revisions to start from; empty means HEAD
	Exclude []string // revisions whose history is left out
	Paths   []string // limit to commits touching these paths
	Sort    []revwalk.RevSort
	Limit   int // 0 means no limit

	// Resolve maps a revision name to an id. nil means Repo.ResolveRef.
	Resolve func(name string) (object.ObjectID, error)
}

// Log walks history read from src and returns the selected commits in
// output order. A nil src reads the loose object store.
func (r *Repo) Log(src object.Reader, opts LogOptions) ([]*revwalk.RevCommit, error) {
	if src == nil {
		src = r.Store
	}
	w, err := r.NewWalk(src, opts)
	if err != nil {
		return nil, err
	}

	var out []*revwalk.RevCommit
	for opts.Limit <= 0 || len(out) < opts.Limit {
		c, err := w.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// NewWalk returns a walk over src configured by opts, with start points
// marked and not yet producing output. Limit is ignored.
func (r *Repo) NewWalk(src object.Reader, opts LogOptions) (*revwalk.Walk, error) {
	resolve := opts.Resolve
	if resolve == nil {
		resolve = r.ResolveRef
	}
	start := opts.Start
	if len(start) == 0 {
		start = []string{"HEAD"}
	}

	w := revwalk.New(src)
	w.Sort(opts.Sort...)
	if len(opts.Paths) > 0 {
		f, err := treewalk.NewPathFilterGroup(opts.Paths...)
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		w.SetTreeFilter(f)
	}

	for _, name := range start {
		c, err := parseRev(w, resolve, name)
		if err != nil {
			return nil, err
		}
		if err := w.MarkStart(c); err != nil {
			return nil, fmt.Errorf("log: start %s: %w", name, err)
		}
	}
	for _, name := range opts.Exclude {
		c, err := parseRev(w, resolve, name)
		if err != nil {
			return nil, err
		}
		if err := w.MarkUninteresting(c); err != nil {
			return nil, fmt.Errorf("log: exclude %s: %w", name, err)
		}
	}
	return w, nil
}

func parseRev(w *revwalk.Walk, resolve func(string) (object.ObjectID, error), name string) (*revwalk.RevCommit, error) {
	id, err := resolve(name)
	if err != nil {
		return nil, fmt.Errorf("log: resolve %s: %w", name, err)
	}
	c, err := w.ParseCommit(id)
	if err != nil {
		return nil, fmt.Errorf("log: %s: %w", name, err)
	}
	return c, nil
}
