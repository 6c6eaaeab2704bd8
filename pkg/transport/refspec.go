// Package transport holds the value types that describe how references map
// between repositories.
package transport

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRefSpec is wrapped by every RefSpec parse error.
var ErrInvalidRefSpec = errors.New("invalid refspec")

const wildcard = "*"

// RefSpec maps source reference names to destination names, in the form
// [+]<source>[:<destination>]. A spec whose source and destination both
// contain '*' is a wildcard spec and matches a whole namespace.
//
// RefSpec is an immutable value: the Set methods return a modified copy and
// two specs are equal when they compare equal with ==.
type RefSpec struct {
	force       bool
	wildcard    bool
	source      string
	destination string
}

// NewRefSpec returns the default spec, which names HEAD as its source.
func NewRefSpec() RefSpec {
	return RefSpec{source: "HEAD"}
}

// ParseRefSpec parses spec. The destination is split at the last ':' so
// sources may themselves contain colons. An empty source before ':' means
// the spec deletes its destination.
func ParseRefSpec(spec string) (RefSpec, error) {
	rs := RefSpec{}
	s := spec
	if strings.HasPrefix(s, "+") {
		rs.force = true
		s = s[1:]
	}
	if s == "" || s == ":" {
		return RefSpec{}, fmt.Errorf("%w %q: empty", ErrInvalidRefSpec, spec)
	}

	if i := strings.LastIndex(s, ":"); i >= 0 {
		rs.source = s[:i]
		rs.destination = s[i+1:]
	} else {
		rs.source = s
	}

	srcWild := isWildcard(rs.source)
	if rs.destination != "" && srcWild != isWildcard(rs.destination) {
		return RefSpec{}, fmt.Errorf("%w %q: wildcard on one side only", ErrInvalidRefSpec, spec)
	}
	for _, side := range []string{rs.source, rs.destination} {
		if strings.Count(side, wildcard) > 1 {
			return RefSpec{}, fmt.Errorf("%w %q: more than one wildcard in %q", ErrInvalidRefSpec, spec, side)
		}
	}
	rs.wildcard = srcWild
	return rs, nil
}

// MustParseRefSpec is ParseRefSpec for literals; it panics on error.
func MustParseRefSpec(spec string) RefSpec {
	rs, err := ParseRefSpec(spec)
	if err != nil {
		panic(err)
	}
	return rs
}

// Force reports whether non-fast-forward updates are allowed.
func (rs RefSpec) Force() bool { return rs.force }

// Wildcard reports whether the spec matches a namespace rather than one name.
func (rs RefSpec) Wildcard() bool { return rs.wildcard }

// Source returns the source name or pattern, "" when the spec has none.
func (rs RefSpec) Source() string { return rs.source }

// Destination returns the destination name or pattern, "" when undefined.
func (rs RefSpec) Destination() string { return rs.destination }

// SetForce returns a copy with the force flag set to force.
func (rs RefSpec) SetForce(force bool) RefSpec {
	rs.force = force
	return rs
}

// SetSource returns a copy with source replaced. It fails if the result
// would not parse back from its String form, as with a wildcard on one side
// only or a ':' that would move the split point.
func (rs RefSpec) SetSource(source string) (RefSpec, error) {
	return rs.SetSourceDestination(source, rs.destination)
}

// SetDestination returns a copy with destination replaced.
func (rs RefSpec) SetDestination(destination string) (RefSpec, error) {
	return rs.SetSourceDestination(rs.source, destination)
}

// SetSourceDestination returns a copy with both sides replaced. The copy
// always round-trips through String and ParseRefSpec.
func (rs RefSpec) SetSourceDestination(source, destination string) (RefSpec, error) {
	out := rs
	out.source = source
	out.destination = destination
	out.wildcard = isWildcard(source)

	back, err := ParseRefSpec(out.String())
	if err != nil {
		return rs, err
	}
	if back != out {
		return rs, fmt.Errorf("%w: %q:%q reads back as %q:%q", ErrInvalidRefSpec, source, destination, back.source, back.destination)
	}
	return out, nil
}

// MatchSource reports whether name is covered by the source side.
func (rs RefSpec) MatchSource(name string) bool {
	return match(rs.source, rs.wildcard, name)
}

// MatchDestination reports whether name is covered by the destination side.
func (rs RefSpec) MatchDestination(name string) bool {
	return match(rs.destination, rs.wildcard, name)
}

// ExpandFromSource resolves a wildcard spec against a concrete source name
// matched by MatchSource. Non-wildcard specs are returned unchanged.
func (rs RefSpec) ExpandFromSource(name string) RefSpec {
	if !rs.wildcard {
		return rs
	}
	return RefSpec{
		force:       rs.force,
		source:      name,
		destination: expand(rs.source, rs.destination, name),
	}
}

// ExpandFromDestination is ExpandFromSource for a destination name.
func (rs RefSpec) ExpandFromDestination(name string) RefSpec {
	if !rs.wildcard {
		return rs
	}
	return RefSpec{
		force:       rs.force,
		source:      expand(rs.destination, rs.source, name),
		destination: name,
	}
}

// String renders the spec so that ParseRefSpec returns an equal value.
func (rs RefSpec) String() string {
	var b strings.Builder
	if rs.force {
		b.WriteByte('+')
	}
	b.WriteString(rs.source)
	if rs.destination != "" {
		b.WriteByte(':')
		b.WriteString(rs.destination)
	}
	return b.String()
}

func isWildcard(s string) bool { return strings.Contains(s, wildcard) }

func match(pattern string, wild bool, name string) bool {
	if pattern == "" {
		return false
	}
	if !wild {
		return pattern == name
	}
	pre, suf, _ := strings.Cut(pattern, wildcard)
	return len(name) >= len(pre)+len(suf) && strings.HasPrefix(name, pre) && strings.HasSuffix(name, suf)
}

// expand substitutes the part of name matched by from's '*' into to's '*'.
func expand(from, to, name string) string {
	pre, suf, _ := strings.Cut(from, wildcard)
	middle := strings.TrimSuffix(strings.TrimPrefix(name, pre), suf)
	return strings.Replace(to, wildcard, middle, 1)
}
