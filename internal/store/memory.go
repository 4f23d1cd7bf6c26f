package store

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store for dev and tests.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]Document
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]Document)}
}

// Create appends a document and returns its id.
func (m *Memory) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.collections[collection] = append(m.collections[collection], Document{ID: id, Fields: fields.clone()})
	m.mu.Unlock()
	return id, nil
}

// List returns every document in the collection.
func (m *Memory) List(ctx context.Context, collection string) ([]Document, error) {
	return m.Query(ctx, collection)
}

// Query returns the documents matching all filters.
func (m *Memory) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Document
	for _, doc := range m.collections[collection] {
		if matches(doc.Fields, filters) {
			out = append(out, Document{ID: doc.ID, Fields: doc.Fields.clone()})
		}
	}
	return out, nil
}

// Update merges fields into an existing document.
func (m *Memory) Update(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.collections[collection]
	for i := range docs {
		if docs[i].ID != id {
			continue
		}
		merged := docs[i].Fields.clone()
		for k, v := range fields {
			merged[k] = v
		}
		docs[i].Fields = merged
		return nil
	}
	return ErrNotFound
}

// Delete removes a document.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.collections[collection]
	for i := range docs {
		if docs[i].ID == id {
			m.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func matches(fields Fields, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}
