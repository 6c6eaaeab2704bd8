package object

import "sync"

type memEntry struct {
	typ  ObjectType
	data []byte
}

// MemoryStore is an in-memory ReadWriter, mostly for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[ObjectID]memEntry
	reads   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[ObjectID]memEntry)}
}

func (m *MemoryStore) Write(objType ObjectType, data []byte) (ObjectID, error) {
	id := HashObject(objType, data)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; !ok {
		m.objects[id] = memEntry{typ: objType, data: append([]byte(nil), data...)}
	}
	return id, nil
}

func (m *MemoryStore) Read(id ObjectID) (ObjectType, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	e, ok := m.objects[id]
	if !ok {
		return "", nil, &MissingObjectError{ID: id}
	}
	return e.typ, append([]byte(nil), e.data...), nil
}

// Has reports whether id is stored.
func (m *MemoryStore) Has(id ObjectID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id]
	return ok
}

// Delete removes id, letting tests simulate a missing object.
func (m *MemoryStore) Delete(id ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, id)
}

// Reads returns how many Read calls the store has served.
func (m *MemoryStore) Reads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
