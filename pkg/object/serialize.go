package object

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// CompareEntryNames orders tree entry names the way git does: a subtree
// sorts as if its name carried a trailing '/'.
func CompareEntryNames(a string, aMode FileMode, b string, bMode FileMode) int {
	n := min(len(a), len(b))
	if c := strings.Compare(a[:n], b[:n]); c != 0 {
		return c
	}
	ca, cb := entryTail(a, n, aMode), entryTail(b, n, bMode)
	switch {
	case ca < cb:
		return -1
	case ca > cb:
		return 1
	}
	return 0
}

func entryTail(name string, n int, mode FileMode) int {
	if n < len(name) {
		return int(name[n])
	}
	if mode.IsTree() {
		return '/'
	}
	return 0
}

// MarshalTree serializes a TreeObj in canonical git form:
//
//	<octal mode> SP <name> NUL <20 raw id bytes>
//
// Entries are sorted into git order first.
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareEntryNames(sorted[i].Name, sorted[i].Mode, sorted[j].Name, sorted[j].Mode) < 0
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		buf.WriteString(e.Mode.String())
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.ID[:])
	}
	return buf.Bytes()
}

// UnmarshalTree parses canonical tree bytes.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("unmarshal tree: missing mode separator")
		}
		mode, err := ParseFileMode(string(data[:sp]))
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		data = data[sp+1:]
		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return nil, fmt.Errorf("unmarshal tree: missing name terminator")
		}
		name := string(data[:nul])
		data = data[nul+1:]
		if len(data) < IDSize {
			return nil, fmt.Errorf("unmarshal tree: truncated id for %q", name)
		}
		var id ObjectID
		copy(id[:], data[:IDSize])
		data = data[IDSize:]
		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, ID: id})
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj in canonical git form:
//
//	tree H
//	parent H     (zero or more)
//	author A
//	committer C
//	encoding E   (optional)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if c.Encoding != "" {
		fmt.Fprintf(&buf, "encoding %s\n", c.Encoding)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses canonical commit bytes leniently, treating names
// and messages as UTF-8. Use revwalk for charset-aware parsing.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	c := &CommitObj{}
	header, message, _ := bytes.Cut(data, []byte("\n\n"))
	c.Message = string(message)
	sawTree := false
	for _, line := range bytes.Split(header, []byte("\n")) {
		key, val, ok := bytes.Cut(line, []byte(" "))
		if !ok || len(key) == 0 {
			continue
		}
		switch string(key) {
		case "tree":
			id, err := FromHex(string(val))
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: %w", err)
			}
			c.Tree = id
			sawTree = true
		case "parent":
			id, err := FromHex(string(val))
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: %w", err)
			}
			c.Parents = append(c.Parents, id)
		case "author":
			p, err := ParseIdent(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author = p
		case "committer":
			p, err := ParseIdent(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer = p
		case "encoding":
			c.Encoding = string(val)
		}
	}
	if !sawTree {
		return nil, fmt.Errorf("unmarshal commit: missing tree header")
	}
	return c, nil
}

// CommitLinks returns the tree and parent ids named by canonical commit
// bytes without parsing idents or the message.
func CommitLinks(data []byte) (ObjectID, []ObjectID, error) {
	var tree ObjectID
	var parents []ObjectID
	for len(data) > 0 {
		line := data
		if nl := bytes.IndexByte(data, '\n'); nl >= 0 {
			line, data = data[:nl], data[nl+1:]
		} else {
			data = nil
		}
		if len(line) == 0 {
			break
		}
		switch {
		case bytes.HasPrefix(line, []byte("tree ")):
			id, err := FromHex(string(line[5:]))
			if err != nil {
				return ZeroID, nil, err
			}
			tree = id
		case bytes.HasPrefix(line, []byte("parent ")):
			id, err := FromHex(string(line[7:]))
			if err != nil {
				return ZeroID, nil, err
			}
			parents = append(parents, id)
		}
	}
	return tree, parents, nil
}

// ---------------------------------------------------------------------------
// Tag
// ---------------------------------------------------------------------------

// MarshalTag serializes a TagObj:
//
//	object H
//	type T
//	tag N
//	tagger P     (optional)
//
//	message
func MarshalTag(t *TagObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.Object)
	fmt.Fprintf(&buf, "type %s\n", t.ObjectType)
	fmt.Fprintf(&buf, "tag %s\n", t.Name)
	if t.Tagger != nil {
		fmt.Fprintf(&buf, "tagger %s\n", *t.Tagger)
	}
	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	return buf.Bytes()
}

// UnmarshalTag parses canonical tag bytes.
func UnmarshalTag(data []byte) (*TagObj, error) {
	header, message, _ := bytes.Cut(data, []byte("\n\n"))
	t := &TagObj{Message: string(message)}
	sawObject := false
	for _, line := range bytes.Split(header, []byte("\n")) {
		key, val, ok := bytes.Cut(line, []byte(" "))
		if !ok {
			continue
		}
		switch string(key) {
		case "object":
			id, err := FromHex(string(val))
			if err != nil {
				return nil, fmt.Errorf("unmarshal tag: %w", err)
			}
			t.Object = id
			sawObject = true
		case "type":
			typ, err := ParseObjectType(string(val))
			if err != nil {
				return nil, fmt.Errorf("unmarshal tag: %w", err)
			}
			t.ObjectType = typ
		case "tag":
			t.Name = string(val)
		case "tagger":
			p, err := ParseIdent(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal tag: tagger: %w", err)
			}
			t.Tagger = &p
		}
	}
	if !sawObject {
		return nil, fmt.Errorf("unmarshal tag: missing object header")
	}
	return t, nil
}
