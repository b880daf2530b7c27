package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory keeps collections as encoded JSON so callers never share slices
// with the store.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) Load(_ context.Context, collection string, dst any) error {
	m.mu.Lock()
	raw, ok := m.data[collection]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (m *Memory) SaveAll(_ context.Context, collection string, items any) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}
	m.mu.Lock()
	m.data[collection] = raw
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
