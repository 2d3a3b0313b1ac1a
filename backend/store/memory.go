package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MemoryStore keeps documents in process. Used for local runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	order []string
	docs  map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]*memCollection{}}
}

func (m *MemoryStore) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{docs: map[string]Document{}}
		m.collections[name] = c
	}
	return c
}

func (m *MemoryStore) Get(_ context.Context, collection, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{ID: id, Data: cloneDocument(doc)}, nil
}

func (m *MemoryStore) List(_ context.Context, collection string, q Query) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return []Snapshot{}, nil
	}
	snaps := make([]Snapshot, 0, len(c.order))
	for _, id := range c.order {
		snaps = append(snaps, Snapshot{ID: id, Data: cloneDocument(c.docs[id])})
	}
	return applyQuery(snaps, q)
}

func (m *MemoryStore) Create(_ context.Context, collection string, data interface{}) (string, error) {
	doc, err := ToDocument(data)
	if err != nil {
		return "", errors.Wrap(err, "encode document")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	c := m.collection(collection)
	c.order = append(c.order, id)
	c.docs[id] = doc
	return id, nil
}

func (m *MemoryStore) Set(_ context.Context, collection, id string, data interface{}, merge bool) error {
	doc, err := ToDocument(data)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	existing, ok := c.docs[id]
	if !ok {
		c.order = append(c.order, id)
		c.docs[id] = doc
		return nil
	}
	if merge {
		mergeInto(existing, doc)
		return nil
	}
	c.docs[id] = doc
	return nil
}

func (m *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	// Work on a copy so a failed update leaves the stored document untouched.
	updated := cloneDocument(doc)
	if err := applyFields(updated, fields); err != nil {
		return err
	}
	c.docs[id] = updated
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}
