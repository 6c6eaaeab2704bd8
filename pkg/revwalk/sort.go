package revwalk

import (
	"fmt"
	"strings"
)

// RevSort selects an output ordering. Modes other than None combine.
type RevSort int

const (
	// None is the default: newest commit first, ties in discovery order.
	None RevSort = iota
	// Topo never produces a parent before all of its children.
	Topo
	// CommitTimeDesc orders strictly by commit time, newest first.
	CommitTimeDesc
	// Reverse flips whatever order the other modes produce.
	Reverse
	// Boundary also produces the uninteresting parents of produced commits.
	Boundary
)

var sortNames = map[RevSort]string{
	None:           "none",
	Topo:           "topo",
	CommitTimeDesc: "date",
	Reverse:        "reverse",
	Boundary:       "boundary",
}

func (s RevSort) String() string {
	if n, ok := sortNames[s]; ok {
		return n
	}
	return fmt.Sprintf("RevSort(%d)", int(s))
}

// ParseSort maps the names used in configuration and on the command line
// ("none", "topo", "date", "reverse", "boundary") to a RevSort.
func ParseSort(name string) (RevSort, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "commit_time_desc", "commit-time-desc", "time":
		return CommitTimeDesc, nil
	}
	for s, sn := range sortNames {
		if sn == n {
			return s, nil
		}
	}
	return None, fmt.Errorf("revwalk: unknown sort %q", name)
}

type sortSet uint8

func (s sortSet) with(m RevSort) sortSet {
	if m == None {
		return s
	}
	return s | 1<<uint(m)
}

func (s sortSet) has(m RevSort) bool {
	if m == None {
		return s == 0
	}
	return s&(1<<uint(m)) != 0
}

func (s sortSet) String() string {
	if s == 0 {
		return None.String()
	}
	var parts []string
	for m := Topo; m <= Boundary; m++ {
		if s.has(m) {
			parts = append(parts, m.String())
		}
	}
	return strings.Join(parts, "+")
}
