package treewalk

import (
	"sort"
	"strings"
)

// PathFilter includes one path, the directories leading to it and
// everything below it.
type PathFilter struct {
	path string
}

// NewPathFilter builds a filter for a slash-separated repository path.
// Leading and trailing slashes are ignored.
func NewPathFilter(path string) (*PathFilter, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, ErrEmptyPath
	}
	return &PathFilter{path: path}, nil
}

func (f *PathFilter) Path() string { return f.path }

func (f *PathFilter) Include(w *TreeWalk) (bool, error) {
	return matchPath(f.path, w.PathString()), nil
}

// ShouldBeRecursive is true when the filtered path sits below the top level.
func (f *PathFilter) ShouldBeRecursive() bool { return strings.Contains(f.path, "/") }

func (f *PathFilter) String() string { return "PATH(\"" + f.path + "\")" }

// matchPath reports whether entry is the filtered path, one of its
// ancestor directories or one of its descendants.
func matchPath(filter, entry string) bool {
	switch {
	case entry == filter:
		return true
	case strings.HasPrefix(filter, entry) && filter[len(entry)] == '/':
		return true
	case strings.HasPrefix(entry, filter) && entry[len(filter)] == '/':
		return true
	}
	return false
}

// PathFilterGroup includes an entry if any of its paths matches it.
type PathFilterGroup struct {
	paths []*PathFilter
}

// NewPathFilterGroup builds a group from one or more paths. Duplicate
// paths are collapsed.
func NewPathFilterGroup(paths ...string) (*PathFilterGroup, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyPath
	}
	seen := make(map[string]bool, len(paths))
	g := &PathFilterGroup{}
	for _, p := range paths {
		pf, err := NewPathFilter(p)
		if err != nil {
			return nil, err
		}
		if seen[pf.path] {
			continue
		}
		seen[pf.path] = true
		g.paths = append(g.paths, pf)
	}
	sort.Slice(g.paths, func(i, j int) bool { return g.paths[i].path < g.paths[j].path })
	return g, nil
}

func (g *PathFilterGroup) Include(w *TreeWalk) (bool, error) {
	entry := w.PathString()
	for _, p := range g.paths {
		if matchPath(p.path, entry) {
			return true, nil
		}
	}
	return false, nil
}

func (g *PathFilterGroup) ShouldBeRecursive() bool {
	for _, p := range g.paths {
		if p.ShouldBeRecursive() {
			return true
		}
	}
	return false
}

// Paths returns the normalized filtered paths in sorted order.
func (g *PathFilterGroup) Paths() []string {
	out := make([]string, len(g.paths))
	for i, p := range g.paths {
		out[i] = p.path
	}
	return out
}

func (g *PathFilterGroup) String() string {
	parts := make([]string, len(g.paths))
	for i, p := range g.paths {
		parts[i] = p.String()
	}
	return "FAST(" + strings.Join(parts, " OR ") + ")"
}
