package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/zlib"
)

// Store reads and writes git loose objects under a git directory:
// objects/ab/cdef0123..., each file a zlib stream of "type len\0content".
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given git directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// objectPath returns the filesystem path for a given id.
func (s *Store) objectPath(id ObjectID) string {
	h := id.String()
	return filepath.Join(s.root, "objects", h[:2], h[2:])
}

// Has reports whether the store contains a loose object with the given id.
func (s *Store) Has(id ObjectID) bool {
	_, err := os.Stat(s.objectPath(id))
	return err == nil
}

// Write compresses and stores an object, returning its id. Writes are
// atomic: data goes to a temp file that is then renamed into place.
func (s *Store) Write(objType ObjectType, data []byte) (ObjectID, error) {
	id := HashObject(objType, data)
	if s.Has(id) {
		return id, nil
	}

	var raw bytes.Buffer
	zw := zlib.NewWriter(&raw)
	fmt.Fprintf(zw, "%s %d\x00", objType, len(data))
	if _, err := zw.Write(data); err != nil {
		return ZeroID, fmt.Errorf("object write compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return ZeroID, fmt.Errorf("object write compress: %w", err)
	}

	dir := filepath.Dir(s.objectPath(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ZeroID, fmt.Errorf("object write mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return ZeroID, fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ZeroID, fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ZeroID, fmt.Errorf("object write close: %w", err)
	}
	if err := os.Rename(tmpName, s.objectPath(id)); err != nil {
		os.Remove(tmpName)
		return ZeroID, fmt.Errorf("object write rename: %w", err)
	}
	return id, nil
}

// Read retrieves a loose object, returning its type and raw content.
func (s *Store) Read(id ObjectID) (ObjectType, []byte, error) {
	f, err := os.Open(s.objectPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, &MissingObjectError{ID: id}
		}
		return "", nil, fmt.Errorf("object read %s: %w", id, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, corrupt(id, "", "zlib: %v", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", nil, corrupt(id, "", "zlib: %v", err)
	}
	return parseEnvelope(id, raw)
}

// parseEnvelope splits "type len\0content" and validates the length.
func parseEnvelope(id ObjectID, raw []byte) (ObjectType, []byte, error) {
	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return "", nil, corrupt(id, "", "invalid format (no NUL)")
	}
	typeName, lenText, ok := bytes.Cut(raw[:nul], []byte(" "))
	if !ok {
		return "", nil, corrupt(id, "", "invalid header %q", raw[:nul])
	}
	objType, err := ParseObjectType(string(typeName))
	if err != nil {
		return "", nil, corrupt(id, "", "%v", err)
	}
	length, err := strconv.Atoi(string(lenText))
	if err != nil {
		return "", nil, corrupt(id, objType, "invalid length %q", lenText)
	}
	content := raw[nul+1:]
	if len(content) != length {
		return "", nil, corrupt(id, objType, "length mismatch (header=%d, actual=%d)", length, len(content))
	}
	return objType, content, nil
}
