package profiles

import (
	"context"
	"sync"
)

// MemoryKV keeps values in process memory. It backs the "memory" profile
// backend, where profiles do not survive a restart.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value
	return true, nil
}
