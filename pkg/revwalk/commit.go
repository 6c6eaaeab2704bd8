package revwalk

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/odvcencio/revgraph/pkg/charset"
	"github.com/odvcencio/revgraph/pkg/object"
)

// RevCommit is a commit in the graph of one Walk. Before it is parsed its
// tree, parents and identities are nil; after parsing they never change.
type RevCommit struct {
	objectBase

	tree    *RevTree
	parents []*RevCommit
	// graph replaces parents for output when path-filter simplification
	// rewrote them; nil means "same as parents".
	graph []*RevCommit

	commitTime int64
	inDegree   int

	buffer    []byte
	author    []byte
	committer []byte
	encoding  string
	message   []byte
}

// NewCommit returns an unparsed commit that belongs to no walk. Most
// callers want Walk.LookupCommit instead.
func NewCommit(id object.ObjectID) *RevCommit {
	return &RevCommit{objectBase: objectBase{id: id}}
}

func (c *RevCommit) Type() object.ObjectType { return object.TypeCommit }

// Tree returns the commit's root tree, or nil before parsing.
func (c *RevCommit) Tree() *RevTree { return c.tree }

// Parents returns the parents in declaration order, duplicates included.
// It is nil before parsing and non-nil (possibly empty) after.
func (c *RevCommit) Parents() []*RevCommit { return c.parents }

// GraphParents returns the parents as seen by the output graph. Under a
// tree filter these are rewritten past commits that did not touch the
// filtered paths; otherwise they equal Parents.
func (c *RevCommit) GraphParents() []*RevCommit {
	if c.graph != nil {
		return c.graph
	}
	return c.parents
}

// ParentCount returns len(Parents()).
func (c *RevCommit) ParentCount() int { return len(c.parents) }

// Parent returns the i-th declared parent.
func (c *RevCommit) Parent(i int) *RevCommit { return c.parents[i] }

// CommitTime returns the committer timestamp in seconds, 0 before parsing.
func (c *RevCommit) CommitTime() int64 { return c.commitTime }

// Encoding returns the declared encoding name, "" when none is declared.
func (c *RevCommit) Encoding() string { return c.encoding }

// RawBuffer returns the canonical bytes the commit was parsed from.
func (c *RevCommit) RawBuffer() []byte { return c.buffer }

// AuthorIdent decodes the author line, or returns nil before parsing.
func (c *RevCommit) AuthorIdent() *object.PersonIdent {
	if c.author == nil {
		return nil
	}
	return decodeIdent(c.author, c.encoding)
}

// CommitterIdent decodes the committer line, or returns nil before parsing.
func (c *RevCommit) CommitterIdent() *object.PersonIdent {
	if c.committer == nil {
		return nil
	}
	return decodeIdent(c.committer, c.encoding)
}

// FullMessage returns the decoded text after the header separator.
// It panics with *MisuseError before parsing.
func (c *RevCommit) FullMessage() string {
	if c.buffer == nil {
		panic(misuse("RevCommit.FullMessage", "commit %s is not parsed", c.id))
	}
	return decodeText(c.message, c.encoding)
}

// ShortMessage returns the first paragraph of the message with its line
// breaks turned into spaces. It panics with *MisuseError before parsing.
func (c *RevCommit) ShortMessage() string {
	if c.buffer == nil {
		panic(misuse("RevCommit.ShortMessage", "commit %s is not parsed", c.id))
	}
	return shortMessage(c.FullMessage())
}

func (c *RevCommit) String() string {
	return "commit " + c.id.String() + " " + strconv.FormatInt(c.commitTime, 10)
}

// ParseCanonical decodes raw as the body of this commit, resolving tree
// and parent ids through w's pool. Parsing an already parsed commit is a
// no-op. raw is retained and must not be modified afterwards.
func (c *RevCommit) ParseCanonical(w *Walk, raw []byte) error {
	if c.IsParsed() {
		return nil
	}
	p := commitParser{id: c.id, raw: raw}

	treeHex, ok := p.line("tree")
	if !ok {
		return p.corrupt("missing tree header, first line %q", p.peek())
	}
	treeID, err := object.FromHex(string(treeHex))
	if err != nil {
		return p.corrupt("bad tree id %q", treeHex)
	}

	parents := []*RevCommit{}
	for {
		hex, ok := p.line("parent")
		if !ok {
			break
		}
		id, err := object.FromHex(string(hex))
		if err != nil {
			return p.corrupt("bad parent id %q", hex)
		}
		pc, err := w.lookupCommit(id)
		if err != nil {
			return err
		}
		parents = append(parents, pc)
	}

	var author, committer, encoding []byte
	for !p.atEnd() {
		start := p.pos
		key, val := p.header()
		line := bytes.TrimSuffix(p.raw[start:p.pos], []byte("\n"))
		switch string(key) {
		case "":
			// continuation of a multi-line header such as gpgsig
		case "author":
			if author != nil {
				return p.corrupt("duplicate author header %q", line)
			}
			author = val
		case "committer":
			if committer != nil {
				return p.corrupt("duplicate committer header %q", line)
			}
			committer = val
		case "encoding":
			encoding = val
		}
	}
	if author == nil {
		return p.corrupt("missing author header")
	}
	if committer == nil {
		return p.corrupt("missing committer header")
	}
	if _, err := object.ParseIdentBytes(author); err != nil {
		return p.corrupt("author: %v", err)
	}
	when, err := object.ParseIdentBytes(committer)
	if err != nil {
		return p.corrupt("committer: %v", err)
	}

	tree, err := w.lookupTree(treeID)
	if err != nil {
		return err
	}
	c.tree = tree
	c.parents = parents
	c.commitTime = when.When
	c.buffer = raw
	c.author = author
	c.committer = committer
	c.encoding = string(encoding)
	c.message = p.message()
	c.flags |= flagParsed
	return nil
}

// commitParser walks the header lines of a canonical commit.
type commitParser struct {
	id  object.ObjectID
	raw []byte
	pos int
	end bool
}

func (p *commitParser) corrupt(format string, args ...any) error {
	return &object.CorruptObjectError{
		ID:     p.id,
		Type:   object.TypeCommit,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (p *commitParser) atEnd() bool {
	if p.end || p.pos >= len(p.raw) {
		return true
	}
	if p.raw[p.pos] == '\n' {
		p.end = true
		p.pos++
		return true
	}
	return false
}

// peek returns the next line without consuming it.
func (p *commitParser) peek() []byte {
	rest := p.raw[p.pos:]
	if nl := bytes.IndexByte(rest, '\n'); nl >= 0 {
		return rest[:nl]
	}
	return rest
}

// next returns the next header line without its newline.
func (p *commitParser) next() []byte {
	rest := p.raw[p.pos:]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 {
		p.pos = len(p.raw)
		return rest
	}
	p.pos += nl + 1
	return rest[:nl]
}

// line consumes a "<key> <value>" line when the next line has that key.
func (p *commitParser) line(key string) ([]byte, bool) {
	if p.atEnd() {
		return nil, false
	}
	rest := p.raw[p.pos:]
	if !bytes.HasPrefix(rest, []byte(key)) || len(rest) <= len(key) || rest[len(key)] != ' ' {
		return nil, false
	}
	return p.next()[len(key)+1:], true
}

// header consumes any header line. Continuation lines report an empty key.
func (p *commitParser) header() (key, val []byte) {
	line := p.next()
	if len(line) > 0 && line[0] == ' ' {
		return nil, line[1:]
	}
	key, val, _ = bytes.Cut(line, []byte(" "))
	return key, val
}

func (p *commitParser) message() []byte {
	if !p.end {
		for !p.atEnd() {
			p.next()
		}
	}
	if !p.end {
		return []byte{}
	}
	return p.raw[p.pos:]
}

// cutHeaders splits canonical bytes at the first blank line.
func cutHeaders(raw []byte) (header, message []byte, found bool) {
	if bytes.HasPrefix(raw, []byte("\n")) {
		return nil, raw[1:], true
	}
	i := bytes.Index(raw, []byte("\n\n"))
	if i < 0 {
		return raw, []byte{}, false
	}
	return raw[:i+1], raw[i+2:], true
}

// headerBytes returns the value of the first header line named key.
func headerBytes(header []byte, key string) []byte {
	for len(header) > 0 {
		line := header
		if nl := bytes.IndexByte(header, '\n'); nl >= 0 {
			line, header = header[:nl], header[nl+1:]
		} else {
			header = nil
		}
		if k, v, ok := bytes.Cut(line, []byte(" ")); ok && string(k) == key {
			return v
		}
	}
	return nil
}

func decodeText(raw []byte, encoding string) string {
	return charset.Decode(raw, encoding)
}

func decodeIdent(raw []byte, encoding string) *object.PersonIdent {
	f, err := object.ParseIdentBytes(raw)
	if err != nil {
		return nil
	}
	return &object.PersonIdent{
		Name:     charset.Decode(f.Name, encoding),
		Email:    charset.Decode(f.Email, encoding),
		When:     f.When,
		TZOffset: f.TZOffset,
	}
}

// shortMessage returns the first paragraph of msg, that is the lines up to
// the first empty one, without trailing newlines and joined by spaces.
func shortMessage(msg string) string {
	end := 0
	for end < len(msg) && msg[end] != '\n' {
		if nl := strings.IndexByte(msg[end:], '\n'); nl >= 0 {
			end += nl + 1
		} else {
			end = len(msg)
		}
	}
	for end > 0 && msg[end-1] == '\n' {
		end--
	}
	return strings.ReplaceAll(msg[:end], "\n", " ")
}
