package storage

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/odvcencio/revgraph/pkg/object"
)

const (
	objectPrefix = "o/"
	refPrefix    = "r/"
)

// PebbleStore keeps objects in a pebble database. Each object is stored
// under "o/<hex id>" as its one-byte type code followed by its canonical
// content; references live under "r/<name>" as hex ids.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens, creating if needed, the database in dir. A nil fs
// means the operating system's file system.
func OpenPebble(dir string, fs vfs.FS) (*PebbleStore, error) {
	opts := &pebble.Options{}
	if fs != nil {
		opts.FS = fs
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	return &PebbleStore{db: db}, nil
}

func objectKey(id object.ObjectID) []byte { return []byte(objectPrefix + id.String()) }

func refKey(name string) []byte { return []byte(refPrefix + name) }

// Read returns the type and canonical content of id.
func (p *PebbleStore) Read(id object.ObjectID) (object.ObjectType, []byte, error) {
	val, closer, err := p.db.Get(objectKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", nil, &object.MissingObjectError{ID: id}
		}
		return "", nil, fmt.Errorf("pebble read %s: %w", id, err)
	}
	defer closer.Close()
	if len(val) == 0 {
		return "", nil, &object.CorruptObjectError{ID: id, Reason: "empty record"}
	}
	typ, err := object.ObjectTypeFromCode(val[0])
	if err != nil {
		return "", nil, &object.CorruptObjectError{ID: id, Reason: err.Error()}
	}
	return typ, append([]byte(nil), val[1:]...), nil
}

// Write stores data and returns its id. Existing objects are not rewritten.
func (p *PebbleStore) Write(objType object.ObjectType, data []byte) (object.ObjectID, error) {
	id := object.HashObject(objType, data)
	if p.Has(id) {
		return id, nil
	}
	if err := p.db.Set(objectKey(id), encodeRecord(objType, data), pebble.Sync); err != nil {
		return object.ZeroID, fmt.Errorf("pebble write %s: %w", id, err)
	}
	return id, nil
}

// Has reports whether id is stored.
func (p *PebbleStore) Has(id object.ObjectID) bool {
	_, closer, err := p.db.Get(objectKey(id))
	if err != nil {
		return false
	}
	closer.Close()
	return true
}

// Import copies every object reachable from roots out of r in one batch
// and returns how many were new.
func (p *PebbleStore) Import(r object.Reader, roots []object.ObjectID) (int, error) {
	ids, err := object.Reachable(r, roots)
	if err != nil {
		return 0, fmt.Errorf("pebble import: %w", err)
	}
	batch := p.db.NewBatch()
	defer batch.Close()

	added := 0
	for _, id := range ids {
		if p.Has(id) {
			continue
		}
		typ, data, err := r.Read(id)
		if err != nil {
			return 0, fmt.Errorf("pebble import %s: %w", id, err)
		}
		if err := batch.Set(objectKey(id), encodeRecord(typ, data), nil); err != nil {
			return 0, fmt.Errorf("pebble import %s: %w", id, err)
		}
		added++
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("pebble import commit: %w", err)
	}
	return added, nil
}

// SetRef records name as pointing at id.
func (p *PebbleStore) SetRef(name string, id object.ObjectID) error {
	if err := p.db.Set(refKey(name), []byte(id.String()), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set ref %s: %w", name, err)
	}
	return nil
}

// Ref returns the id recorded for name.
func (p *PebbleStore) Ref(name string) (object.ObjectID, error) {
	val, closer, err := p.db.Get(refKey(name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return object.ZeroID, fmt.Errorf("%w: %s", ErrRefNotFound, name)
		}
		return object.ZeroID, fmt.Errorf("pebble ref %s: %w", name, err)
	}
	defer closer.Close()
	return object.FromHex(string(val))
}

// Close flushes and closes the database.
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

func encodeRecord(objType object.ObjectType, data []byte) []byte {
	rec := make([]byte, 0, len(data)+1)
	rec = append(rec, objType.Code())
	return append(rec, data...)
}
