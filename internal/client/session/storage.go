package session

import (
	"context"
	"sync"
)

// Storage is a session-scoped key/value medium. Get returns (nil, nil) when
// the key is absent; Delete of an absent key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStorage keeps values in process memory; it vanishes with the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
