package storage

import (
	"encoding/json"
	"sort"
	"sync"
)

type MemoryStorage struct {
	items map[string]json.RawMessage
	mu    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string]json.RawMessage),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Get(key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

func (m *MemoryStorage) Set(key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[key]; !ok {
		return ErrKeyNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *MemoryStorage) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
