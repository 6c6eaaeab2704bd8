// Package storage adapts external object databases to object.Reader and
// object.Writer: a git directory read through go-git, which understands
// pack files, and a pebble key-value store.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/transport"
)

// ErrRefNotFound is returned when a reference name does not resolve.
var ErrRefNotFound = errors.New("reference not found")

// GitSource reads loose and packed objects and references of a git
// directory (the .git directory itself, or a bare repository).
type GitSource struct {
	dir string
	s   *filesystem.Storage
}

// OpenGit opens the git directory at gitDir.
func OpenGit(gitDir string) (*GitSource, error) {
	info, err := os.Stat(gitDir)
	if err != nil {
		return nil, fmt.Errorf("open git dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open git dir %s: not a directory", gitDir)
	}
	return &GitSource{
		dir: gitDir,
		s:   filesystem.NewStorage(osfs.New(gitDir), cache.NewObjectLRUDefault()),
	}, nil
}

// Dir returns the git directory the source reads.
func (g *GitSource) Dir() string { return g.dir }

// Read returns the type and canonical content of id.
func (g *GitSource) Read(id object.ObjectID) (object.ObjectType, []byte, error) {
	obj, err := g.s.EncodedObject(plumbing.AnyObject, plumbing.Hash(id))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return "", nil, &object.MissingObjectError{ID: id}
		}
		return "", nil, fmt.Errorf("git read %s: %w", id, err)
	}
	typ, err := object.ParseObjectType(obj.Type().String())
	if err != nil {
		return "", nil, &object.CorruptObjectError{ID: id, Reason: err.Error()}
	}
	rc, err := obj.Reader()
	if err != nil {
		return "", nil, fmt.Errorf("git read %s: %w", id, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, fmt.Errorf("git read %s: %w", id, err)
	}
	return typ, data, nil
}

// Write stores data as a loose object.
func (g *GitSource) Write(objType object.ObjectType, data []byte) (object.ObjectID, error) {
	pt, err := plumbing.ParseObjectType(string(objType))
	if err != nil {
		return object.ZeroID, fmt.Errorf("git write: %w", err)
	}
	obj := g.s.NewEncodedObject()
	obj.SetType(pt)
	obj.SetSize(int64(len(data)))
	w, err := obj.Writer()
	if err != nil {
		return object.ZeroID, fmt.Errorf("git write: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return object.ZeroID, fmt.Errorf("git write: %w", err)
	}
	if err := w.Close(); err != nil {
		return object.ZeroID, fmt.Errorf("git write: %w", err)
	}
	h, err := g.s.SetEncodedObject(obj)
	if err != nil {
		return object.ZeroID, fmt.Errorf("git write: %w", err)
	}
	return object.ObjectID(h), nil
}

// Has reports whether id is stored, loose or packed.
func (g *GitSource) Has(id object.ObjectID) bool {
	return g.s.HasEncodedObject(plumbing.Hash(id)) == nil
}

// Reference resolves name, following symbolic references. For a symbolic
// ref the returned Target is the name it pointed at.
func (g *GitSource) Reference(name string) (transport.Ref, error) {
	rn := plumbing.ReferenceName(name)
	raw, err := g.s.Reference(rn)
	if err != nil {
		return transport.Ref{}, g.refErr(name, err)
	}
	ref := transport.Ref{Name: name}
	if raw.Type() == plumbing.SymbolicReference {
		ref.Target = raw.Target().String()
		resolved, err := storer.ResolveReference(g.s, rn)
		if err != nil {
			return ref, g.refErr(name, err)
		}
		raw = resolved
	}
	ref.ID = object.ObjectID(raw.Hash())
	return ref, nil
}

// References lists every reference, sorted by name. Symbolic references
// are reported with their Target and resolved ID where possible.
func (g *GitSource) References() ([]transport.Ref, error) {
	iter, err := g.s.IterReferences()
	if err != nil {
		return nil, fmt.Errorf("git references: %w", err)
	}
	defer iter.Close()

	var refs []transport.Ref
	err = iter.ForEach(func(r *plumbing.Reference) error {
		ref := transport.Ref{Name: r.Name().String()}
		switch r.Type() {
		case plumbing.HashReference:
			ref.ID = object.ObjectID(r.Hash())
		case plumbing.SymbolicReference:
			ref.Target = r.Target().String()
			if resolved, err := storer.ResolveReference(g.s, r.Name()); err == nil {
				ref.ID = object.ObjectID(resolved.Hash())
			}
		}
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("git references: %w", err)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// Close releases pack file handles held by the storage.
func (g *GitSource) Close() error {
	return g.s.Close()
}

func (g *GitSource) refErr(name string, err error) error {
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("%w: %s", ErrRefNotFound, name)
	}
	return fmt.Errorf("git reference %s: %w", name, err)
}
