package store

import (
	"context"
	"sync"

	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/transfer"
)

type memoryStore struct {
	mu       sync.RWMutex
	accounts map[transfer.AccountID]*history.History
}

// NewMemory creates a concurrency-safe in-memory store. Suitable for
// tests and development; production deployments use a durable backend.
func NewMemory() Store {
	return &memoryStore{accounts: make(map[transfer.AccountID]*history.History)}
}

func (m *memoryStore) Append(_ context.Context, owner transfer.AccountID, rec history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.accounts[owner]
	if !ok {
		h = history.New(owner)
		m.accounts[owner] = h
	}
	return h.Append(rec)
}

func (m *memoryStore) Load(_ context.Context, owner transfer.AccountID) (*history.History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.accounts[owner]; ok {
		return h.Clone(), nil
	}
	return history.New(owner), nil
}

func (m *memoryStore) Contains(_ context.Context, owner transfer.AccountID, id transfer.TransferID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.accounts[owner]; ok {
		return h.Contains(id), nil
	}
	return false, nil
}
