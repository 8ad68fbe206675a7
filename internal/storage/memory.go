package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/dmitrijs2005/lockbox/internal/common"
)

// MemoryKV is an in-process backend. It is safe for concurrent use and is
// the backend of choice in tests and for throwaway vaults.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) CompareAndSwap(ctx context.Context, key string, old, new []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.data[key]
	if old == nil {
		if ok {
			return common.ErrConflict
		}
	} else if !ok || !bytes.Equal(cur, old) {
		return common.ErrConflict
	}

	m.data[key] = append([]byte(nil), new...)
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Close() error { return nil }
