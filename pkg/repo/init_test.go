package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/odvcencio/revgraph/pkg/object"
)

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()

	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	gitDir := filepath.Join(dir, ".git")
	if r.GitDir != gitDir {
		t.Errorf("GitDir = %q, want %q", r.GitDir, gitDir)
	}
	assertDir(t, filepath.Join(gitDir, "objects"))
	assertDir(t, filepath.Join(gitDir, "refs", "heads"))
	assertDir(t, filepath.Join(gitDir, "refs", "tags"))
	assertFile(t, filepath.Join(gitDir, "HEAD"))
}

func TestInit_AlreadyExists(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if _, err := Init(dir); err == nil {
		t.Fatal("second Init should fail, got nil error")
	}
}

func TestOpen_FromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	r, err := Open(sub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want, _ := filepath.Abs(dir)
	if r.RootDir != want {
		t.Errorf("RootDir = %q, want %q", r.RootDir, want)
	}
	if r.Store == nil {
		t.Error("Store is nil after Open")
	}
}

func TestOpen_Bare(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	gitDir := filepath.Join(dir, ".git")

	r, err := Open(gitDir)
	if err != nil {
		t.Fatalf("Open(bare): %v", err)
	}
	if r.RootDir != "" {
		t.Errorf("RootDir = %q, want empty for bare repository", r.RootDir)
	}
	want, _ := filepath.Abs(gitDir)
	if r.GitDir != want {
		t.Errorf("GitDir = %q, want %q", r.GitDir, want)
	}
}

func TestOpen_NoRepo_Error(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("Open should fail in non-repo directory, got nil error")
	}
}

func TestInit_HeadDefault(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	ref, err := r.Head()
	if err != nil {
		t.Fatalf("Head(): %v", err)
	}
	if ref != "refs/heads/main" {
		t.Errorf("Head() = %q, want %q", ref, "refs/heads/main")
	}
}

func TestResolveRef(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	main := idOf("aa")
	tag := idOf("bb")
	remote := idOf("cc")
	packedOnly := idOf("dd")
	mustUpdate(t, r, "refs/heads/main", main)
	mustUpdate(t, r, "refs/tags/v1", tag)
	mustUpdate(t, r, "refs/remotes/origin/main", remote)
	writePackedRefs(t, r,
		"# pack-refs with: peeled fully-peeled sorted",
		packedOnly.String()+" refs/heads/old",
		"^"+main.String(),
		idOf("ee").String()+" refs/heads/main",
	)
	if err := os.WriteFile(filepath.Join(r.GitDir, "refs", "remotes", "origin", "HEAD"),
		[]byte("ref: refs/remotes/origin/main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want object.ObjectID
	}{
		{"HEAD", main},
		{"refs/heads/main", main},
		{"main", main},
		{"heads/main", main},
		{"v1", tag},
		{"origin/main", remote},
		{"origin", remote},
		{"old", packedOnly},
		{"refs/heads/old", packedOnly},
		{main.String(), main},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveRef(tt.name)
			if err != nil {
				t.Fatalf("ResolveRef(%q): %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ResolveRef(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestResolveRef_Missing(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, name := range []string{"HEAD", "nope", "refs/heads/nope"} {
		if _, err := r.ResolveRef(name); !errors.Is(err, ErrRefNotFound) {
			t.Errorf("ResolveRef(%q) error = %v, want ErrRefNotFound", name, err)
		}
	}
}

func TestResolveRef_DetachedHead(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	id := idOf("12")
	if err := os.WriteFile(filepath.Join(r.GitDir, "HEAD"), []byte(id.String()+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef(HEAD): %v", err)
	}
	if got != id {
		t.Errorf("ResolveRef(HEAD) = %s, want %s", got, id)
	}
}

func TestResolveRef_SymrefLoop(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	heads := filepath.Join(r.GitDir, "refs", "heads")
	if err := os.WriteFile(filepath.Join(heads, "a"), []byte("ref: refs/heads/b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(heads, "b"), []byte("ref: refs/heads/a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ResolveRef("refs/heads/a"); err == nil {
		t.Fatal("ResolveRef on a symref loop should fail")
	}
}

func TestUpdateRef_RejectsBareName(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := r.UpdateRef("main", idOf("aa")); err == nil {
		t.Fatal("UpdateRef(main) should require a refs/ prefix")
	}
}

func TestUpdateRefCAS_ExpectAbsent(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := r.UpdateRefCAS("refs/heads/new", idOf("aa"), object.ZeroID); err != nil {
		t.Fatalf("create with zero expected: %v", err)
	}
	err = r.UpdateRefCAS("refs/heads/new", idOf("bb"), object.ZeroID)
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Fatalf("second create error = %v, want ErrRefCASMismatch", err)
	}
	if _, err := os.Stat(filepath.Join(r.GitDir, "refs", "heads", "new.lock")); !os.IsNotExist(err) {
		t.Fatalf("lock file left behind: %v", err)
	}
}

func TestUpdateRefCAS_ConcurrentSingleWinner(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	base := idOf("aa")
	mustUpdate(t, r, "refs/heads/main", base)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)

	successCh := make(chan object.ObjectID, workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			next := object.MustFromHex(fmt.Sprintf("%040x", i+1))
			if err := r.UpdateRefCAS("refs/heads/main", next, base); err != nil {
				errCh <- err
				return
			}
			successCh <- next
		}()
	}

	wg.Wait()
	close(successCh)
	close(errCh)

	var winner object.ObjectID
	successes := 0
	for id := range successCh {
		successes++
		winner = id
	}
	if successes != 1 {
		t.Fatalf("successful CAS updates = %d, want 1", successes)
	}
	for err := range errCh {
		if !errors.Is(err, ErrRefCASMismatch) {
			t.Fatalf("unexpected error type: %v", err)
		}
	}

	got, err := r.ResolveRef("refs/heads/main")
	if err != nil {
		t.Fatalf("ResolveRef(main): %v", err)
	}
	if got != winner {
		t.Fatalf("refs/heads/main = %s, want winner %s", got, winner)
	}
}

// helpers

// idOf repeats a two-digit hex byte into a full id.
func idOf(b string) object.ObjectID {
	s := ""
	for i := 0; i < object.IDSize; i++ {
		s += b
	}
	return object.MustFromHex(s)
}

func mustUpdate(t *testing.T, r *Repo, name string, id object.ObjectID) {
	t.Helper()
	if err := r.UpdateRef(name, id); err != nil {
		t.Fatalf("UpdateRef(%s): %v", name, err)
	}
}

func writePackedRefs(t *testing.T, r *Repo, lines ...string) {
	t.Helper()
	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(filepath.Join(r.GitDir, "packed-refs"), data, 0o644); err != nil {
		t.Fatalf("write packed-refs: %v", err)
	}
}

func assertDir(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory %q to exist: %v", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("%q exists but is not a directory", path)
	}
}

func assertFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected file %q to exist: %v", path, err)
		return
	}
	if info.IsDir() {
		t.Errorf("%q exists but is a directory, expected file", path)
	}
}
