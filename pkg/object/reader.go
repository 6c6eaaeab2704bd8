package object

// Reader supplies canonical object bytes by id. Implementations return an
// error matching ErrObjectNotFound when the id is absent.
type Reader interface {
	Read(id ObjectID) (ObjectType, []byte, error)
}

// Writer stores canonical object bytes and returns their id.
type Writer interface {
	Write(objType ObjectType, data []byte) (ObjectID, error)
}

// ReadWriter is both a Reader and a Writer.
type ReadWriter interface {
	Reader
	Writer
}

// ReadTyped reads id and checks that its stored type is want.
func ReadTyped(r Reader, id ObjectID, want ObjectType) ([]byte, error) {
	got, data, err := r.Read(id)
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, &IncorrectTypeError{ID: id, Want: want, Got: got}
	}
	return data, nil
}

// ReadTree reads and parses the tree id. The zero id reads as an empty tree.
func ReadTree(r Reader, id ObjectID) (*TreeObj, error) {
	if id.IsZero() {
		return &TreeObj{}, nil
	}
	data, err := ReadTyped(r, id, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, &CorruptObjectError{ID: id, Type: TypeTree, Reason: err.Error()}
	}
	return tr, nil
}

// ReadCommit reads and parses the commit id with UTF-8 text rules.
func ReadCommit(r Reader, id ObjectID) (*CommitObj, error) {
	data, err := ReadTyped(r, id, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, &CorruptObjectError{ID: id, Type: TypeCommit, Reason: err.Error()}
	}
	return c, nil
}

// WriteTree serializes and stores a TreeObj.
func WriteTree(w Writer, tr *TreeObj) (ObjectID, error) {
	return w.Write(TypeTree, MarshalTree(tr))
}

// WriteCommit serializes and stores a CommitObj.
func WriteCommit(w Writer, c *CommitObj) (ObjectID, error) {
	return w.Write(TypeCommit, MarshalCommit(c))
}

// WriteTag serializes and stores a TagObj.
func WriteTag(w Writer, t *TagObj) (ObjectID, error) {
	return w.Write(TypeTag, MarshalTag(t))
}

// WriteBlob stores raw blob content.
func WriteBlob(w Writer, data []byte) (ObjectID, error) {
	return w.Write(TypeBlob, data)
}
