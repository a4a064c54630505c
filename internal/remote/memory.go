package remote

import (
	"context"
	"sort"
	"sync"

	"loot-tracker/internal/document"
)

type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]document.Document
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]document.Document)}
}

func (m *Memory) Query(_ context.Context, collection, uid string) ([]document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.collections[collection]))
	for id, doc := range m.collections[collection] {
		if doc[document.UserField] == uid {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]document.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.collections[collection][id].Overlay(nil))
	}
	return out, nil
}

func (m *Memory) Upsert(_ context.Context, collection, id string, doc document.Document, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]document.Document)
		m.collections[collection] = docs
	}
	if existing, ok := docs[id]; ok && merge {
		docs[id] = existing.Overlay(doc)
		return nil
	}
	docs[id] = doc.Overlay(nil)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

// Get returns a copy of one stored document.
func (m *Memory) Get(collection, id string) (document.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, false
	}
	return doc.Overlay(nil), true
}

func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}
