package revwalk

import (
	"fmt"

	"github.com/odvcencio/revgraph/pkg/object"
)

// RevObject is an object known to a Walk. A walk holds exactly one
// RevObject per id; the concrete type is *RevCommit, *RevTree, *RevBlob
// or *RevTag.
type RevObject interface {
	ID() object.ObjectID
	Type() object.ObjectType
	Has(f *RevFlag) bool
	HasAny(flags ...*RevFlag) bool
	Add(f *RevFlag)
	Remove(f *RevFlag)
	IsParsed() bool

	base() *objectBase
}

type objectBase struct {
	id    object.ObjectID
	flags uint32
}

func (o *objectBase) ID() object.ObjectID { return o.id }

func (o *objectBase) Has(f *RevFlag) bool { return o.flags&f.mask != 0 }

func (o *objectBase) HasAny(flags ...*RevFlag) bool {
	for _, f := range flags {
		if o.Has(f) {
			return true
		}
	}
	return false
}

func (o *objectBase) Add(f *RevFlag) { o.flags |= f.mask }

func (o *objectBase) Remove(f *RevFlag) { o.flags &^= f.mask }

func (o *objectBase) IsParsed() bool { return o.flags&flagParsed != 0 }

func (o *objectBase) base() *objectBase { return o }

// RevTree is a tree reached by the walk. Its entries are read through treewalk.
type RevTree struct {
	objectBase
}

func (t *RevTree) Type() object.ObjectType { return object.TypeTree }

func (t *RevTree) String() string { return "tree " + t.id.String() }

// RevBlob is file content reached by the walk.
type RevBlob struct {
	objectBase
}

func (b *RevBlob) Type() object.ObjectType { return object.TypeBlob }

func (b *RevBlob) String() string { return "blob " + b.id.String() }

// RevTag is an annotated tag.
type RevTag struct {
	objectBase
	target   RevObject
	name     string
	tagger   *object.PersonIdent
	message  []byte
	encoding string
}

func (t *RevTag) Type() object.ObjectType { return object.TypeTag }

// Object returns the tagged object, or nil before the tag is parsed.
func (t *RevTag) Object() RevObject { return t.target }

// TagName returns the tag's short name, or "" before the tag is parsed.
func (t *RevTag) TagName() string { return t.name }

// TaggerIdent returns the tagger, or nil when absent or not yet parsed.
func (t *RevTag) TaggerIdent() *object.PersonIdent { return t.tagger }

// FullMessage returns the tag message. It panics with *MisuseError before parsing.
func (t *RevTag) FullMessage() string {
	if !t.IsParsed() {
		panic(misuse("RevTag.FullMessage", "tag %s is not parsed", t.id))
	}
	return decodeText(t.message, t.encoding)
}

// ShortMessage returns the first paragraph of the message on one line.
func (t *RevTag) ShortMessage() string {
	if !t.IsParsed() {
		panic(misuse("RevTag.ShortMessage", "tag %s is not parsed", t.id))
	}
	return shortMessage(t.FullMessage())
}

func (t *RevTag) String() string { return "tag " + t.id.String() }

func (t *RevTag) parseCanonical(w *Walk, raw []byte) error {
	tag, err := object.UnmarshalTag(raw)
	if err != nil {
		return &object.CorruptObjectError{ID: t.id, Type: object.TypeTag, Reason: err.Error()}
	}
	target, err := w.lookupAny(tag.Object, tag.ObjectType)
	if err != nil {
		return err
	}
	header, msg, _ := cutHeaders(raw)
	t.target = target
	t.name = tag.Name
	t.message = msg
	t.encoding = string(headerBytes(header, "encoding"))
	if line := headerBytes(header, "tagger"); line != nil {
		t.tagger = decodeIdent(line, t.encoding)
	}
	t.flags |= flagParsed
	return nil
}

func newObject(id object.ObjectID, typ object.ObjectType) (RevObject, error) {
	switch typ {
	case object.TypeCommit:
		return NewCommit(id), nil
	case object.TypeTree:
		return &RevTree{objectBase{id: id}}, nil
	case object.TypeBlob:
		return &RevBlob{objectBase{id: id}}, nil
	case object.TypeTag:
		return &RevTag{objectBase: objectBase{id: id}}, nil
	default:
		return nil, fmt.Errorf("revwalk: unknown object type %q for %s", typ, id)
	}
}
