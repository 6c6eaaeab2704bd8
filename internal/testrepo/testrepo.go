// Package testrepo builds small object graphs in memory for tests.
package testrepo

import (
	"sort"
	"strings"
	"testing"

	"github.com/odvcencio/revgraph/pkg/object"
)

// StartTime is the commit time of the first commit a Builder writes.
const StartTime int64 = 1236977987

// Entry is a file placed into a tree by Builder.Tree.
type Entry struct {
	Path string
	Mode object.FileMode
	ID   object.ObjectID
}

// File places blob at path as a regular file.
func File(path string, blob object.ObjectID) Entry {
	return Entry{Path: path, Mode: object.ModeRegular, ID: blob}
}

// Builder writes blobs, trees and commits into a MemoryStore. Each commit
// is stamped one tick later than the last.
type Builder struct {
	t     testing.TB
	Store *object.MemoryStore
	When  int64
	TZ    int
	Who   object.PersonIdent
}

func New(t testing.TB) *Builder {
	t.Helper()
	return &Builder{
		t:     t,
		Store: object.NewMemoryStore(),
		When:  StartTime,
		TZ:    -420,
		Who:   object.PersonIdent{Name: "J. Author", Email: "jauthor@example.com"},
	}
}

// Tick advances the clock by secs.
func (b *Builder) Tick(secs int64) { b.When += secs }

// Blob stores content and returns its id.
func (b *Builder) Blob(content string) object.ObjectID {
	b.t.Helper()
	id, err := object.WriteBlob(b.Store, []byte(content))
	if err != nil {
		b.t.Fatalf("write blob: %v", err)
	}
	return id
}

// Tree stores a tree holding entries, creating intermediate subtrees for
// slash-separated paths. No entries yields the empty tree.
func (b *Builder) Tree(entries ...Entry) object.ObjectID {
	b.t.Helper()
	return b.writeDir("", entries)
}

func (b *Builder) writeDir(prefix string, entries []Entry) object.ObjectID {
	files := make([]object.TreeEntry, 0, len(entries))
	subdirs := make(map[string][]Entry)
	for _, e := range entries {
		rel := strings.TrimPrefix(e.Path, prefix)
		if dir, _, ok := strings.Cut(rel, "/"); ok {
			subdirs[dir] = append(subdirs[dir], e)
			continue
		}
		files = append(files, object.TreeEntry{Mode: e.Mode, Name: rel, ID: e.ID})
	}
	names := make([]string, 0, len(subdirs))
	for name := range subdirs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id := b.writeDir(prefix+name+"/", subdirs[name])
		files = append(files, object.TreeEntry{Mode: object.ModeTree, Name: name, ID: id})
	}
	id, err := object.WriteTree(b.Store, &object.TreeObj{Entries: files})
	if err != nil {
		b.t.Fatalf("write tree: %v", err)
	}
	return id
}

// Commit ticks the clock and stores a commit of tree with the given parents.
func (b *Builder) Commit(tree object.ObjectID, parents ...object.ObjectID) object.ObjectID {
	b.t.Helper()
	return b.CommitMessage("", tree, parents...)
}

// CommitMessage is Commit with an explicit message.
func (b *Builder) CommitMessage(msg string, tree object.ObjectID, parents ...object.ObjectID) object.ObjectID {
	b.t.Helper()
	b.Tick(1)
	return b.write(msg, b.When, tree, parents)
}

// CommitAt stores a commit stamped at when without moving the clock.
func (b *Builder) CommitAt(when int64, tree object.ObjectID, parents ...object.ObjectID) object.ObjectID {
	b.t.Helper()
	return b.write("", when, tree, parents)
}

func (b *Builder) write(msg string, when int64, tree object.ObjectID, parents []object.ObjectID) object.ObjectID {
	who := b.Who
	who.When = when
	who.TZOffset = b.TZ
	id, err := object.WriteCommit(b.Store, &object.CommitObj{
		Tree:      tree,
		Parents:   parents,
		Author:    who,
		Committer: who,
		Message:   msg,
	})
	if err != nil {
		b.t.Fatalf("write commit: %v", err)
	}
	return id
}

// Tag stores an annotated tag pointing at target.
func (b *Builder) Tag(name string, target object.ObjectID, targetType object.ObjectType) object.ObjectID {
	b.t.Helper()
	who := b.Who
	who.When = b.When
	id, err := object.WriteTag(b.Store, &object.TagObj{
		Object:     target,
		ObjectType: targetType,
		Name:       name,
		Tagger:     &who,
		Message:    name + "\n",
	})
	if err != nil {
		b.t.Fatalf("write tag: %v", err)
	}
	return id
}
