package mocks

import (
	"context"

	"loot-tracker/internal/document"

	"github.com/stretchr/testify/mock"
)

// Store is a mock implementation of remote.Store
type Store struct {
	mock.Mock
}

func (m *Store) Query(ctx context.Context, collection, uid string) ([]document.Document, error) {
	args := m.Called(ctx, collection, uid)
	if docs, ok := args.Get(0).([]document.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Upsert(ctx context.Context, collection, id string, doc document.Document, merge bool) error {
	args := m.Called(ctx, collection, id, doc, merge)
	return args.Error(0)
}

func (m *Store) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}
