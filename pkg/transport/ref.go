package transport

import (
	"strings"

	"github.com/odvcencio/revgraph/pkg/object"
)

// RefStorage tells where a reference was read from.
type RefStorage int

const (
	StorageNew    RefStorage = iota // Not stored anywhere yet.
	StorageLoose                    // A file under refs/.
	StoragePacked                   // A line of packed-refs.
)

func (s RefStorage) String() string {
	switch s {
	case StorageLoose:
		return "loose"
	case StoragePacked:
		return "packed"
	default:
		return "new"
	}
}

// Ref is a named pointer to an object. A symbolic ref has Target set to
// the name it points at; ID is then the id Target resolved to, if known.
type Ref struct {
	Name    string
	Target  string
	ID      object.ObjectID
	Storage RefStorage
}

// IsSymbolic reports whether the ref points at another ref.
func (r Ref) IsSymbolic() bool { return r.Target != "" }

// ShortName strips the refs/heads/, refs/tags/ or refs/remotes/ prefix.
func ShortName(name string) string {
	for _, prefix := range []string{"refs/heads/", "refs/tags/", "refs/remotes/"} {
		if s, ok := strings.CutPrefix(name, prefix); ok {
			return s
		}
	}
	return name
}

// ExpandSources returns, for every ref matched by the source side of some
// spec, that spec expanded against the ref's name. Refs matched by several
// specs are reported once, for the first spec that matches.
func ExpandSources(specs []RefSpec, refs []Ref) []RefSpec {
	var out []RefSpec
	for _, r := range refs {
		for _, rs := range specs {
			if rs.MatchSource(r.Name) {
				out = append(out, rs.ExpandFromSource(r.Name))
				break
			}
		}
	}
	return out
}
