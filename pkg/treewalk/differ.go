package treewalk

import "github.com/odvcencio/revgraph/pkg/object"

// Differs reports whether trees a and b differ anywhere filter admits.
// The zero id stands for an empty tree, so Differs(r, ZeroID, t, f)
// answers whether t holds anything under f.
func Differs(r object.Reader, a, b object.ObjectID, filter Filter) (bool, error) {
	if a == b {
		return false, nil
	}
	if filter == nil {
		filter = All
	}
	w := New(r)
	if err := w.Reset(a, b); err != nil {
		return false, err
	}
	w.SetRecursive(true)
	w.SetFilter(And(filter, AnyDiff))
	return w.Next()
}

// Changed lists the paths of the file entries that differ between a and b
// under filter.
func Changed(r object.Reader, a, b object.ObjectID, filter Filter) ([]string, error) {
	if filter == nil {
		filter = All
	}
	w := New(r)
	if err := w.Reset(a, b); err != nil {
		return nil, err
	}
	w.SetRecursive(true)
	w.SetFilter(And(filter, AnyDiff))
	var out []string
	for {
		ok, err := w.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, w.PathString())
	}
}
