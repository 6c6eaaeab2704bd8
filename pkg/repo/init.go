package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/storage"
)

var ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")

// ErrRefNotFound is returned when a name resolves to no reference.
var ErrRefNotFound = storage.ErrRefNotFound

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second

	maxSymrefDepth = 5
)

// Init creates a new git repository at path. It creates the .git/ directory
// structure: HEAD, objects/, refs/heads/ and refs/tags/. Returns an error if
// a .git/ directory already exists.
func Init(path string) (*Repo, error) {
	gitDir := filepath.Join(path, ".git")

	// Fail if .git/ already exists.
	if _, err := os.Stat(gitDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gitDir)
	}

	dirs := []string{
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(gitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repo{
		RootDir: path,
		GitDir:  gitDir,
		Store:   object.NewStore(gitDir),
	}, nil
}

// Open searches upward from path for a .git/ directory and opens the
// repository. A directory that is itself a bare repository is opened as is.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, ".git")
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			return &Repo{
				RootDir: cur,
				GitDir:  gitDir,
				Store:   object.NewStore(gitDir),
			}, nil
		}
		if isBare(cur) {
			return &Repo{GitDir: cur, Store: object.NewStore(cur)}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a git repository (or any parent up to /)")
		}
		cur = parent
	}
}

func isBare(dir string) bool {
	for _, name := range []string{"HEAD", "objects", "refs"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// Head reads .git/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hex id.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// ResolveRef resolves a ref name to an object id.
//
// Resolution order:
//  1. "HEAD" reads HEAD, following a symbolic HEAD to its target.
//  2. Names starting with "refs/" are read as is, loose before packed.
//  3. A 40-digit hex string is taken as an id.
//  4. Otherwise refs/<name>, refs/tags/<name>, refs/heads/<name>,
//     refs/remotes/<name> and refs/remotes/<name>/HEAD are tried in order.
func (r *Repo) ResolveRef(name string) (object.ObjectID, error) {
	return r.resolve(name, 0)
}

func (r *Repo) resolve(name string, depth int) (object.ObjectID, error) {
	if depth > maxSymrefDepth {
		return object.ZeroID, fmt.Errorf("resolve ref %q: symbolic refs nested too deep", name)
	}
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return object.ZeroID, err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.resolve(head, depth+1)
		}
		return object.FromHex(head)
	}

	if strings.HasPrefix(name, "refs/") {
		value, err := r.readRef(name)
		if err != nil {
			return object.ZeroID, err
		}
		if target, ok := strings.CutPrefix(value, "ref: "); ok {
			return r.resolve(target, depth+1)
		}
		id, err := object.FromHex(value)
		if err != nil {
			return object.ZeroID, fmt.Errorf("resolve ref %q: %w", name, err)
		}
		return id, nil
	}

	if object.IsHex(name) && len(name) == 2*object.IDSize {
		return object.FromHex(name)
	}

	for _, candidate := range []string{
		"refs/" + name,
		"refs/tags/" + name,
		"refs/heads/" + name,
		"refs/remotes/" + name,
		"refs/remotes/" + name + "/HEAD",
	} {
		id, err := r.resolve(candidate, depth)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrRefNotFound) {
			return object.ZeroID, err
		}
	}
	return object.ZeroID, fmt.Errorf("%w: %s", ErrRefNotFound, name)
}

// readRef returns the raw value of a full ref name: a hex id or "ref: <target>".
func (r *Repo) readRef(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, filepath.FromSlash(name)))
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !os.IsNotExist(err) && !isDirErr(r.GitDir, name) {
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	packed, err := r.readPackedRefs()
	if err != nil {
		return "", err
	}
	if id, ok := packed[name]; ok {
		return id.String(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrRefNotFound, name)
}

// isDirErr reports whether name exists as a directory, as refs/heads/<ns>
// does for namespaced branches.
func isDirErr(gitDir, name string) bool {
	info, err := os.Stat(filepath.Join(gitDir, filepath.FromSlash(name)))
	return err == nil && info.IsDir()
}

// UpdateRef writes id to the named ref file under .git/. Parent
// directories are created as needed.
func (r *Repo) UpdateRef(name string, id object.ObjectID) error {
	return r.UpdateRefCAS(name, id)
}

// UpdateRefCAS writes id to the named ref file under .git/ using
// lockfile + rename atomic semantics. If expectedOld is provided, the
// update only succeeds when the current ref value matches it; the zero id
// expects the ref to be absent.
func (r *Repo) UpdateRefCAS(name string, id object.ObjectID, expectedOld ...object.ObjectID) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old id", name)
	}
	if !strings.HasPrefix(name, "refs/") && name != "HEAD" {
		return fmt.Errorf("update ref %q: name must start with refs/", name)
	}

	refPath := filepath.Join(r.GitDir, filepath.FromSlash(name))

	dir := filepath.Dir(refPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	if len(expectedOld) == 1 {
		oldID, err := r.currentRefID(name)
		if err != nil {
			return fmt.Errorf("update ref %q: read old id: %w", name, err)
		}
		if oldID != expectedOld[0] {
			return fmt.Errorf(
				"update ref %q: %w (expected %s, found %s)",
				name,
				ErrRefCASMismatch,
				expectedOld[0],
				oldID,
			)
		}
	}

	if _, err := lockFile.WriteString(id.String() + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false
	return nil
}

// currentRefID returns the id name points at, or the zero id if it does not exist.
func (r *Repo) currentRefID(name string) (object.ObjectID, error) {
	id, err := r.ResolveRef(name)
	if errors.Is(err, ErrRefNotFound) {
		return object.ZeroID, nil
	}
	return id, err
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}
