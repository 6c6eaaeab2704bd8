package revwalk

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/odvcencio/revgraph/internal/testrepo"
	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/treewalk"
)

// drain runs w to the end and returns the produced commits' short messages.
func drain(t *testing.T, w *Walk) string {
	t.Helper()
	var out []string
	for {
		c, err := w.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, c.ShortMessage())
	}
	return strings.Join(out, " ")
}

func markStart(t *testing.T, w *Walk, ids ...object.ObjectID) {
	t.Helper()
	for _, id := range ids {
		if err := w.MarkStart(w.LookupCommit(id)); err != nil {
			t.Fatalf("MarkStart(%s): %v", id.Short(7), err)
		}
	}
}

func markUninteresting(t *testing.T, w *Walk, ids ...object.ObjectID) {
	t.Helper()
	for _, id := range ids {
		if err := w.MarkUninteresting(w.LookupCommit(id)); err != nil {
			t.Fatalf("MarkUninteresting(%s): %v", id.Short(7), err)
		}
	}
}

func pathGroup(t *testing.T, paths ...string) treewalk.Filter {
	t.Helper()
	g, err := treewalk.NewPathFilterGroup(paths...)
	if err != nil {
		t.Fatalf("NewPathFilterGroup: %v", err)
	}
	return g
}

// linear builds a <- b <- c <- d, each commit named by its message.
func linear(t *testing.T) (*testrepo.Builder, map[string]object.ObjectID) {
	t.Helper()
	b := testrepo.New(t)
	ids := map[string]object.ObjectID{}
	var parents []object.ObjectID
	for _, name := range []string{"a", "b", "c", "d"} {
		tree := b.Tree(testrepo.File("f", b.Blob(name)))
		ids[name] = b.CommitMessage(name, tree, parents...)
		parents = []object.ObjectID{ids[name]}
	}
	return b, ids
}

// simplifyHistory builds the graph of git's history simplification tests:
//
//	a <- b <- g <- h <- i
//	 \    \       /
//	  c <- d <- e <- f
//
// where e merges d and b, and h merges g and f.
func simplifyHistory(t *testing.T) (*testrepo.Builder, map[string]object.ObjectID) {
	t.Helper()
	b := testrepo.New(t)
	zF, zH, zI := b.Blob("f"), b.Blob("h"), b.Blob("i")
	zS, zY := b.Blob("s"), b.Blob("y")

	ids := map[string]object.ObjectID{}
	ids["a"] = b.CommitMessage("a", b.Tree(testrepo.File("pF", zH)))
	ids["b"] = b.CommitMessage("b", b.Tree(testrepo.File("pF", zI)), ids["a"])
	ids["c"] = b.CommitMessage("c", b.Tree(testrepo.File("pF", zI)), ids["a"])
	dTree := b.Tree(testrepo.File("pA", zS), testrepo.File("pF", zI))
	ids["d"] = b.CommitMessage("d", dTree, ids["c"])
	ids["e"] = b.CommitMessage("e", dTree, ids["d"], ids["b"])
	fTree := b.Tree(testrepo.File("pA", zS), testrepo.File("pE", zY), testrepo.File("pF", zI))
	ids["f"] = b.CommitMessage("f", fTree, ids["e"])
	ids["g"] = b.CommitMessage("g", b.Tree(testrepo.File("pE", zY), testrepo.File("pF", zI)), ids["b"])
	ids["h"] = b.CommitMessage("h", fTree, ids["g"], ids["f"])
	iTree := b.Tree(testrepo.File("pA", zS), testrepo.File("pE", zY), testrepo.File("pF", zF))
	ids["i"] = b.CommitMessage("i", iTree, ids["h"])
	return b, ids
}

func TestSimplifyHistory(t *testing.T) {
	tests := []struct {
		name   string
		sort   []RevSort
		filter []string
		want   string
	}{
		{name: "unfiltered", want: "i h g f e d c b a"},
		{name: "unfiltered topo", sort: []RevSort{Topo}, want: "i h g f e d c b a"},
		{name: "filtered", filter: []string{"pF"}, want: "i b a"},
		{name: "filtered topo", sort: []RevSort{Topo}, filter: []string{"pF"}, want: "i b a"},
		{name: "filtered reverse", sort: []RevSort{Reverse}, filter: []string{"pF"}, want: "a b i"},
		{name: "unknown path", filter: []string{"nope"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ids := simplifyHistory(t)
			w := New(b.Store)
			w.Sort(tt.sort...)
			if tt.filter != nil {
				w.SetTreeFilter(pathGroup(t, tt.filter...))
			}
			markStart(t, w, ids["i"])
			if got := drain(t, w); got != tt.want {
				t.Fatalf("walk = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSimplifyHistoryRewritesParents(t *testing.T) {
	b, ids := simplifyHistory(t)
	w := New(b.Store)
	w.SetTreeFilter(pathGroup(t, "pF"))
	markStart(t, w, ids["i"])
	drain(t, w)

	i := w.LookupCommit(ids["i"])
	if got := i.GraphParents(); len(got) != 1 || got[0].ID() != ids["b"] {
		t.Fatalf("i graph parents = %v, want [b]", got)
	}
	if got := i.Parents(); len(got) != 1 || got[0].ID() != ids["h"] {
		t.Fatalf("i parents = %v, want [h] unchanged", got)
	}
	if got := w.LookupCommit(ids["b"]).GraphParents(); len(got) != 1 || got[0].ID() != ids["a"] {
		t.Fatalf("b graph parents = %v, want [a]", got)
	}
	if w.LookupCommit(ids["f"]).Has(FlagSeen) {
		t.Fatal("f was queued although h was narrowed to g")
	}
}

func TestLinearOrders(t *testing.T) {
	tests := []struct {
		sort []RevSort
		want string
	}{
		{nil, "d c b a"},
		{[]RevSort{None}, "d c b a"},
		{[]RevSort{Topo}, "d c b a"},
		{[]RevSort{CommitTimeDesc}, "d c b a"},
		{[]RevSort{Reverse}, "a b c d"},
		{[]RevSort{Topo, Reverse}, "a b c d"},
	}
	for _, tt := range tests {
		b, ids := linear(t)
		w := New(b.Store)
		w.Sort(tt.sort...)
		markStart(t, w, ids["d"])
		if got := drain(t, w); got != tt.want {
			t.Errorf("Sort(%v) = %q, want %q", tt.sort, got, tt.want)
		}
	}
}

// TestLinearPathFilter filters a chain where by, dy and ey touch only y;
// the x commits must come out in every order.
func TestLinearPathFilter(t *testing.T) {
	tests := []struct {
		name string
		sort []RevSort
	}{
		{name: "default"},
		{name: "topo", sort: []RevSort{Topo}},
		{name: "topo date", sort: []RevSort{Topo, CommitTimeDesc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testrepo.New(t)
			files := map[string]string{}
			var head object.ObjectID
			var parents []object.ObjectID
			for _, name := range []string{"ax", "by", "cx", "dy", "ey", "fx"} {
				files[name[1:]] = name
				var entries []testrepo.Entry
				for _, path := range []string{"x", "y"} {
					if content, ok := files[path]; ok {
						entries = append(entries, testrepo.File(path, b.Blob(content)))
					}
				}
				head = b.CommitMessage(name, b.Tree(entries...), parents...)
				parents = []object.ObjectID{head}
			}

			w := New(b.Store)
			w.Sort(tt.sort...)
			w.SetTreeFilter(pathGroup(t, "x"))
			markStart(t, w, head)
			if got := drain(t, w); got != "fx cx ax" {
				t.Fatalf("walk = %q, want %q", got, "fx cx ax")
			}
		})
	}
}

func TestTopoWithClockSkew(t *testing.T) {
	b := testrepo.New(t)
	tree := b.Tree()
	base := testrepo.StartTime
	a := b.CommitAt(base+3, b.Tree(testrepo.File("a", b.Blob("a"))))
	bb := b.CommitAt(base+2, tree, a)
	c := b.CommitAt(base+4, b.Tree(testrepo.File("c", b.Blob("c"))), a)
	m := b.CommitAt(base+5, b.Tree(testrepo.File("m", b.Blob("m"))), bb, c)

	ids := func(w *Walk) []object.ObjectID {
		var out []object.ObjectID
		for c, err := range w.All() {
			if err != nil {
				t.Fatalf("All: %v", err)
			}
			out = append(out, c.ID())
		}
		return out
	}

	w := New(b.Store)
	markStart(t, w, m)
	byDate := ids(w)
	if len(byDate) != 4 || byDate[2] != a {
		t.Fatalf("date order = %v, want a third", byDate)
	}

	w.Reset()
	w.Sort(Topo)
	markStart(t, w, m)
	got := ids(w)
	want := []object.ObjectID{m, c, bb, a}
	if len(got) != len(want) {
		t.Fatalf("topo order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("topo order[%d] = %s, want %s", i, got[i].Short(7), want[i].Short(7))
		}
	}
}

func TestCommitTimeTies(t *testing.T) {
	b := testrepo.New(t)
	x := b.CommitAt(testrepo.StartTime, b.Tree(testrepo.File("x", b.Blob("x"))))
	y := b.CommitAt(testrepo.StartTime, b.Tree(testrepo.File("y", b.Blob("y"))))

	for _, tt := range []struct {
		sort  RevSort
		first object.ObjectID
	}{
		{None, x},
		{CommitTimeDesc, y},
	} {
		w := New(b.Store)
		w.Sort(tt.sort)
		markStart(t, w, x, y)
		c, err := w.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if c.ID() != tt.first {
			t.Errorf("Sort(%s) first = %s, want %s", tt.sort, c.ID().Short(7), tt.first.Short(7))
		}
	}
}

func TestMarkUninteresting(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	markStart(t, w, ids["d"])
	markUninteresting(t, w, ids["b"])
	if got := drain(t, w); got != "d c" {
		t.Fatalf("walk = %q, want %q", got, "d c")
	}
	if !w.LookupCommit(ids["a"]).Has(FlagUninteresting) {
		t.Fatal("uninteresting was not carried to a")
	}
}

func TestUninterestingStartIsSelf(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	markStart(t, w, ids["c"])
	markUninteresting(t, w, ids["c"])
	if got := drain(t, w); got != "" {
		t.Fatalf("walk = %q, want nothing", got)
	}
}

func TestBoundary(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	w.Sort(Boundary)
	markStart(t, w, ids["d"])
	markUninteresting(t, w, ids["b"])
	if got := drain(t, w); got != "d c b" {
		t.Fatalf("walk = %q, want %q", got, "d c b")
	}
	if !w.LookupCommit(ids["b"]).Has(FlagBoundary) {
		t.Fatal("b is not flagged as boundary")
	}
	if w.LookupCommit(ids["c"]).Has(FlagBoundary) {
		t.Fatal("c is flagged as boundary")
	}
}

func TestLookupIdentity(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	c1 := w.LookupCommit(ids["c"])
	if c2 := w.LookupCommit(ids["c"]); c1 != c2 {
		t.Fatal("LookupCommit returned two instances for one id")
	}
	if o, ok := w.Lookup(ids["c"]); !ok || o != RevObject(c1) {
		t.Fatalf("Lookup = %v, %v", o, ok)
	}
	if _, ok := w.Lookup(ids["a"]); ok {
		t.Fatal("Lookup found an object never referenced")
	}
	if c1.IsParsed() {
		t.Fatal("LookupCommit parsed eagerly")
	}

	c, err := w.ParseCommit(ids["c"])
	if err != nil {
		t.Fatalf("ParseCommit: %v", err)
	}
	if c != c1 || !c.IsParsed() {
		t.Fatal("ParseCommit did not parse the pooled commit")
	}
	if c.Parent(0) != w.LookupCommit(ids["b"]) {
		t.Fatal("parent is not the pooled instance")
	}

	defer func() {
		if _, ok := recover().(*MisuseError); !ok {
			t.Fatal("LookupTree on a commit id did not panic with *MisuseError")
		}
	}()
	w.LookupTree(ids["c"])
}

func TestLookupIsPerWalk(t *testing.T) {
	b, ids := linear(t)
	w1 := New(b.Store)
	w2 := New(b.Store)
	c1 := w1.LookupCommit(ids["c"])
	c2 := w2.LookupCommit(ids["c"])
	if c1 == c2 {
		t.Fatal("two walks share one RevCommit instance")
	}
	if c1.ID() != c2.ID() {
		t.Fatalf("ids differ: %s vs %s", c1.ID(), c2.ID())
	}

	markStart(t, w1, ids["c"])
	drain(t, w1)
	if c2.Has(FlagSeen) {
		t.Fatal("walking w1 flagged w2's commit")
	}
}

func TestParsePeelsTags(t *testing.T) {
	b, ids := linear(t)
	tag := b.Tag("v1", ids["c"], object.TypeCommit)
	outer := b.Tag("v1-signed", tag, object.TypeTag)
	w := New(b.Store)

	c, err := w.ParseCommit(outer)
	if err != nil {
		t.Fatalf("ParseCommit(tag): %v", err)
	}
	if c.ID() != ids["c"] {
		t.Fatalf("ParseCommit(tag) = %s, want c", c.ID())
	}

	tg, err := w.ParseTag(tag)
	if err != nil {
		t.Fatalf("ParseTag: %v", err)
	}
	if tg.TagName() != "v1" || tg.Object() != RevObject(c) || tg.ShortMessage() != "v1" {
		t.Fatalf("tag = %q -> %v (%q)", tg.TagName(), tg.Object(), tg.ShortMessage())
	}
	if tg.TaggerIdent() == nil || tg.TaggerIdent().Email != "jauthor@example.com" {
		t.Fatalf("TaggerIdent = %+v", tg.TaggerIdent())
	}

	tree, err := w.ParseTree(ids["c"])
	if err != nil {
		t.Fatalf("ParseTree(commit): %v", err)
	}
	if tree != c.Tree() {
		t.Fatal("ParseTree(commit) is not the commit's tree")
	}

	if _, err := w.ParseTag(ids["c"]); !errors.Is(err, object.ErrIncorrectType) {
		t.Fatalf("ParseTag(commit) = %v, want ErrIncorrectType", err)
	}
	blob := b.Blob("x")
	if _, err := w.ParseCommit(blob); !errors.Is(err, object.ErrIncorrectType) {
		t.Fatalf("ParseCommit(blob) = %v, want ErrIncorrectType", err)
	}
}

func TestParseMissing(t *testing.T) {
	w := New(object.NewMemoryStore())
	id := object.MustFromHex("ce013625030ba8dba906f756967f9e9ca394464a")
	if _, err := w.ParseAny(id); !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("ParseAny = %v, want ErrObjectNotFound", err)
	}
	if err := w.MarkStart(w.LookupCommit(id)); !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("MarkStart = %v, want ErrObjectNotFound", err)
	}
}

func TestMissingParentIsSticky(t *testing.T) {
	b := testrepo.New(t)
	ghost := object.MustFromHex("ce013625030ba8dba906f756967f9e9ca394464a")
	tip := b.CommitMessage("tip", b.Tree(), ghost)
	w := New(b.Store)
	markStart(t, w, tip)

	_, err := w.Next()
	if !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("Next = %v, want ErrObjectNotFound", err)
	}
	if _, again := w.Next(); again != err {
		t.Fatalf("second Next = %v, want the same error", again)
	}
}

func TestNextAfterEnd(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	markStart(t, w, ids["a"])
	drain(t, w)
	for i := 0; i < 2; i++ {
		if _, err := w.Next(); err != io.EOF {
			t.Fatalf("Next after end = %v, want io.EOF", err)
		}
	}
}

func TestResetReplays(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	markStart(t, w, ids["d"])
	first := drain(t, w)

	reads := b.Store.Reads()
	w.Reset()
	d := w.LookupCommit(ids["d"])
	if d.Has(FlagSeen) || !d.Has(FlagParsed) {
		t.Fatal("Reset should clear Seen and keep Parsed")
	}
	if len(w.Roots()) != 0 {
		t.Fatal("Reset kept start points")
	}
	markStart(t, w, ids["d"])
	if got := drain(t, w); got != first {
		t.Fatalf("second walk = %q, want %q", got, first)
	}
	if b.Store.Reads() != reads {
		t.Fatalf("second walk read %d objects, want 0", b.Store.Reads()-reads)
	}
}

func TestResetClearsUninteresting(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	markStart(t, w, ids["d"])
	markUninteresting(t, w, ids["b"])
	if got := drain(t, w); got != "d c" {
		t.Fatalf("d ^b = %q, want %q", got, "d c")
	}

	w.Reset()
	if w.LookupCommit(ids["b"]).Has(FlagUninteresting) {
		t.Fatal("Reset kept Uninteresting on b")
	}
	markStart(t, w, ids["d"])
	if got := drain(t, w); got != "d c b a" {
		t.Fatalf("walk after Reset = %q, want %q", got, "d c b a")
	}
}

func TestConfigureAfterStartPanics(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	markStart(t, w, ids["d"])
	if _, err := w.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	for name, fn := range map[string]func(){
		"Sort":          func() { w.Sort(Topo) },
		"SetTreeFilter": func() { w.SetTreeFilter(pathGroup(t, "f")) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if _, ok := recover().(*MisuseError); !ok {
					t.Fatalf("%s after start did not panic with *MisuseError", name)
				}
			}()
			fn()
		})
	}

	w.Reset()
	w.Sort(Topo)
	if !w.HasSort(Topo) || w.HasSort(None) {
		t.Fatal("Sort after Reset was not applied")
	}
}

func TestTreeFilterDefault(t *testing.T) {
	w := New(object.NewMemoryStore())
	if w.TreeFilter() != treewalk.All {
		t.Fatalf("TreeFilter = %v, want All", w.TreeFilter())
	}
	w.SetTreeFilter(treewalk.All)
	if w.TreeFilter() != treewalk.All {
		t.Fatal("SetTreeFilter(All) did not reset to All")
	}
}

func TestFlags(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	free := w.FreeFlagCount()
	if free != 25 {
		t.Fatalf("FreeFlagCount = %d, want 25", free)
	}

	mine, err := w.NewFlag("MINE")
	if err != nil {
		t.Fatalf("NewFlag: %v", err)
	}
	if w.FreeFlagCount() != free-1 {
		t.Fatalf("FreeFlagCount after NewFlag = %d", w.FreeFlagCount())
	}
	kept, err := w.NewFlag("KEPT")
	if err != nil {
		t.Fatalf("NewFlag: %v", err)
	}

	w.Carry(mine)
	d := w.LookupCommit(ids["d"])
	d.Add(mine)
	d.Add(kept)
	markStart(t, w, ids["d"])
	drain(t, w)
	a := w.LookupCommit(ids["a"])
	if !a.Has(mine) {
		t.Fatal("carried flag did not reach a")
	}
	if a.Has(kept) {
		t.Fatal("non-carried flag reached a")
	}
	if !a.HasAny(kept, mine) {
		t.Fatal("HasAny missed a set flag")
	}

	w.ResetRetain(kept)
	if d.Has(mine) || !d.Has(kept) {
		t.Fatal("ResetRetain did not keep exactly the retained flag")
	}

	w.DisposeFlag(kept)
	if d.Has(kept) {
		t.Fatal("DisposeFlag left the bit set")
	}
	if w.FreeFlagCount() != free-1 {
		t.Fatalf("FreeFlagCount after DisposeFlag = %d, want %d", w.FreeFlagCount(), free-1)
	}
}

func TestTooManyFlags(t *testing.T) {
	w := New(object.NewMemoryStore())
	for i := w.FreeFlagCount(); i > 0; i-- {
		if _, err := w.NewFlag("f"); err != nil {
			t.Fatalf("NewFlag: %v", err)
		}
	}
	if _, err := w.NewFlag("overflow"); !errors.Is(err, ErrTooManyFlags) {
		t.Fatalf("NewFlag = %v, want ErrTooManyFlags", err)
	}
	w.Dispose()
	if w.FreeFlagCount() != 25 {
		t.Fatalf("FreeFlagCount after Dispose = %d", w.FreeFlagCount())
	}
}

func TestForeignFlagPanics(t *testing.T) {
	w1 := New(object.NewMemoryStore())
	w2 := New(object.NewMemoryStore())
	f, err := w1.NewFlag("W1")
	if err != nil {
		t.Fatalf("NewFlag: %v", err)
	}
	defer func() {
		if _, ok := recover().(*MisuseError); !ok {
			t.Fatal("Carry with a foreign flag did not panic with *MisuseError")
		}
	}()
	w2.Carry(f)
}

func TestForEachStop(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	markStart(t, w, ids["d"])
	var seen []string
	err := w.ForEach(func(c *RevCommit) error {
		seen = append(seen, c.ShortMessage())
		if len(seen) == 2 {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if strings.Join(seen, " ") != "d c" {
		t.Fatalf("ForEach saw %v", seen)
	}

	boom := errors.New("boom")
	if err := w.ForEach(func(*RevCommit) error { return boom }); err != boom {
		t.Fatalf("ForEach = %v, want callback error", err)
	}
}

func TestAllBreak(t *testing.T) {
	b, ids := linear(t)
	w := New(b.Store)
	markStart(t, w, ids["d"])
	for c, err := range w.All() {
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if c.ShortMessage() == "c" {
			break
		}
	}
	next, err := w.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next.ShortMessage() != "b" {
		t.Fatalf("Next after break = %q, want b", next.ShortMessage())
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in   string
		want RevSort
	}{
		{"none", None},
		{"TOPO", Topo},
		{"date", CommitTimeDesc},
		{"commit_time_desc", CommitTimeDesc},
		{" reverse ", Reverse},
		{"boundary", Boundary},
	}
	for _, tt := range tests {
		got, err := ParseSort(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseSort(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseSort("sideways"); err == nil {
		t.Fatal("ParseSort accepted an unknown name")
	}
}
