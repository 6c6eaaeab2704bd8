package repo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/transport"
)

// ListRefs lists references whose full name starts with prefix (for
// example "refs/heads/"), loose and packed, sorted by name. A loose ref
// shadows a packed ref of the same name. Symbolic loose refs are resolved.
func (r *Repo) ListRefs(prefix string) ([]transport.Ref, error) {
	packed, err := r.readPackedRefs()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]transport.Ref, len(packed))
	for name, id := range packed {
		if strings.HasPrefix(name, prefix) {
			byName[name] = transport.Ref{Name: name, ID: id, Storage: transport.StoragePacked}
		}
	}

	root := filepath.Join(r.GitDir, "refs")
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}

		rel, err := filepath.Rel(r.GitDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		ref := transport.Ref{Name: name, Storage: transport.StorageLoose}
		value := strings.TrimSpace(string(data))
		if target, ok := strings.CutPrefix(value, "ref: "); ok {
			ref.Target = target
			if id, err := r.ResolveRef(target); err == nil {
				ref.ID = id
			}
		} else if ref.ID, err = object.FromHex(value); err != nil {
			return fmt.Errorf("ref %s: %w", name, err)
		}
		byName[name] = ref
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("list refs: %w", err)
	}

	refs := make([]transport.Ref, 0, len(byName))
	for _, ref := range byName {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// MatchRefs expands specs against the repository's references and returns
// one concrete spec per matched ref: HEAD first, then in ref name order.
func (r *Repo) MatchRefs(specs ...transport.RefSpec) ([]transport.RefSpec, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, err
	}
	if head, err := r.headRef(); err == nil {
		refs = append([]transport.Ref{head}, refs...)
	}
	return transport.ExpandSources(specs, refs), nil
}

func (r *Repo) headRef() (transport.Ref, error) {
	head, err := r.Head()
	if err != nil {
		return transport.Ref{}, err
	}
	ref := transport.Ref{Name: "HEAD", Storage: transport.StorageLoose}
	if strings.HasPrefix(head, "refs/") {
		ref.Target = head
	}
	ref.ID, err = r.ResolveRef("HEAD")
	return ref, err
}

// readPackedRefs parses .git/packed-refs. Comment lines and peeled "^"
// lines are skipped. A missing file yields no refs.
func (r *Repo) readPackedRefs() (map[string]object.ObjectID, error) {
	f, err := os.Open(filepath.Join(r.GitDir, "packed-refs"))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]object.ObjectID{}, nil
		}
		return nil, fmt.Errorf("packed-refs: %w", err)
	}
	defer f.Close()

	refs := make(map[string]object.ObjectID)
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}
		hex, name, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("packed-refs line %d: missing name", lineNo)
		}
		id, err := object.FromHex(hex)
		if err != nil {
			return nil, fmt.Errorf("packed-refs line %d: %w", lineNo, err)
		}
		refs[name] = id
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("packed-refs: %w", err)
	}
	return refs, nil
}
