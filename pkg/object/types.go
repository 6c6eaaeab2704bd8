package object

import (
	"fmt"
	"strconv"
)

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"
)

// ParseObjectType maps a canonical type name to an ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	switch t := ObjectType(s); t {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
		return t, nil
	default:
		return "", fmt.Errorf("unknown object type %q", s)
	}
}

// Code returns the numeric type code git uses in pack headers.
func (t ObjectType) Code() byte {
	switch t {
	case TypeCommit:
		return 1
	case TypeTree:
		return 2
	case TypeBlob:
		return 3
	case TypeTag:
		return 4
	default:
		return 0
	}
}

// ObjectTypeFromCode is the inverse of Code.
func ObjectTypeFromCode(c byte) (ObjectType, error) {
	switch c {
	case 1:
		return TypeCommit, nil
	case 2:
		return TypeTree, nil
	case 3:
		return TypeBlob, nil
	case 4:
		return TypeTag, nil
	default:
		return "", fmt.Errorf("unknown object type code %d", c)
	}
}

// FileMode is the raw mode bits of a tree entry.
type FileMode uint32

const (
	ModeMissing    FileMode = 0
	ModeTree       FileMode = 0o040000
	ModeRegular    FileMode = 0o100644
	ModeExecutable FileMode = 0o100755
	ModeSymlink    FileMode = 0o120000
	ModeGitlink    FileMode = 0o160000
)

// ParseFileMode parses the octal mode string used in canonical trees.
func ParseFileMode(s string) (FileMode, error) {
	if s == "" {
		return 0, fmt.Errorf("empty file mode")
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("bad file mode %q: %w", s, err)
	}
	return FileMode(v), nil
}

// IsTree reports whether m names a subtree.
func (m FileMode) IsTree() bool { return m&0o170000 == ModeTree }

// IsFile reports whether m names a regular or executable file.
func (m FileMode) IsFile() bool { return m&0o170000 == 0o100000 }

// String renders the mode the way canonical trees store it (no leading zero).
func (m FileMode) String() string {
	return strconv.FormatUint(uint64(m), 8)
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Mode FileMode
	Name string
	ID   ObjectID
}

// TreeObj holds tree entries in canonical order.
type TreeObj struct {
	Entries []TreeEntry
}

// CommitObj is the writable form of a commit, used to build canonical bytes.
type CommitObj struct {
	Tree      ObjectID
	Parents   []ObjectID
	Author    PersonIdent
	Committer PersonIdent
	Encoding  string // empty means no encoding header
	Message   string
}

// TagObj is the writable form of an annotated tag.
type TagObj struct {
	Object     ObjectID
	ObjectType ObjectType
	Name       string
	Tagger     *PersonIdent // optional, very old tags lack it
	Message    string
}
