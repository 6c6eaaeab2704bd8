package object

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/sets/linkedhashset"
)

// Reachable returns every object id reachable from roots by following
// object references, in discovery order. Missing roots are ignored;
// a missing object referenced from a present one is an error.
func Reachable(r Reader, roots []ObjectID) ([]ObjectID, error) {
	seen := linkedhashset.New()
	stack := make([]ObjectID, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	isRoot := make(map[ObjectID]bool, len(roots))
	for _, id := range roots {
		isRoot[id] = true
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id.IsZero() || seen.Contains(id) {
			continue
		}
		objType, data, err := r.Read(id)
		if err != nil {
			if isRoot[id] && errors.Is(err, ErrObjectNotFound) {
				continue
			}
			return nil, fmt.Errorf("reachable read %s: %w", id, err)
		}
		seen.Add(id)

		refs, err := referencedIDs(objType, data)
		if err != nil {
			return nil, fmt.Errorf("reachable parse %s (%s): %w", id, objType, err)
		}
		for i := len(refs) - 1; i >= 0; i-- {
			stack = append(stack, refs[i])
		}
	}

	out := make([]ObjectID, 0, seen.Size())
	for _, v := range seen.Values() {
		out = append(out, v.(ObjectID))
	}
	return out, nil
}

func referencedIDs(objType ObjectType, data []byte) ([]ObjectID, error) {
	switch objType {
	case TypeBlob:
		return nil, nil
	case TypeTag:
		tag, err := UnmarshalTag(data)
		if err != nil {
			return nil, err
		}
		return []ObjectID{tag.Object}, nil
	case TypeCommit:
		tree, parents, err := CommitLinks(data)
		if err != nil {
			return nil, err
		}
		return append([]ObjectID{tree}, parents...), nil
	case TypeTree:
		tree, err := UnmarshalTree(data)
		if err != nil {
			return nil, err
		}
		refs := make([]ObjectID, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			if e.Mode == ModeGitlink {
				continue
			}
			refs = append(refs, e.ID)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported object type %q", objType)
	}
}
