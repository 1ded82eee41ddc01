package storage

import (
	"context"
	"sync"
)

// MemoryGateway keeps records in process memory. Used for ephemeral runs
// and tests.
type MemoryGateway struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryGateway returns an empty in-memory gateway
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{records: make(map[string][]byte)}
}

// Get implements Gateway
func (m *MemoryGateway) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put implements Gateway
func (m *MemoryGateway) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), value...)
	return nil
}

// Close implements Gateway
func (m *MemoryGateway) Close() error {
	return nil
}
