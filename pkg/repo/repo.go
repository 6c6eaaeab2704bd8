package repo

import (
	"fmt"
	"path/filepath"

	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/storage"
)

// Repo represents an opened git repository.
type Repo struct {
	RootDir string        // working directory root, "" for a bare repository
	GitDir  string        // .git/ directory, or the repository itself when bare
	Store   *object.Store // loose object store under GitDir
}

// StoreKind names an object source a Repo can read history from.
type StoreKind string

const (
	StoreLoose  StoreKind = "loose"  // loose objects only, read by object.Store
	StoreGit    StoreKind = "git"    // loose and packed objects, read through go-git
	StorePebble StoreKind = "pebble" // a pebble database filled by Import
)

// ParseStoreKind validates a store name from flags or configuration.
func ParseStoreKind(s string) (StoreKind, error) {
	switch k := StoreKind(s); k {
	case StoreLoose, StoreGit, StorePebble:
		return k, nil
	case "":
		return StoreGit, nil
	default:
		return "", fmt.Errorf("unknown store %q (want loose, git or pebble)", s)
	}
}

// Source is an object reader that may hold open files.
type Source interface {
	object.Reader
	Close() error
}

type looseSource struct{ *object.Store }

func (looseSource) Close() error { return nil }

// DefaultPebbleDir is where Import writes when no directory is given.
func (r *Repo) DefaultPebbleDir() string {
	return filepath.Join(r.GitDir, "revgraph", "pebble")
}

// OpenSource opens the object source of the given kind. pebbleDir is only
// used for StorePebble; "" selects DefaultPebbleDir.
func (r *Repo) OpenSource(kind StoreKind, pebbleDir string) (Source, error) {
	switch kind {
	case StoreLoose:
		return looseSource{r.Store}, nil
	case StoreGit, "":
		return storage.OpenGit(r.GitDir)
	case StorePebble:
		if pebbleDir == "" {
			pebbleDir = r.DefaultPebbleDir()
		}
		return storage.OpenPebble(pebbleDir, nil)
	default:
		return nil, fmt.Errorf("open source: unknown store %q", kind)
	}
}
