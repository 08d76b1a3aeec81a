package blobstore

import (
	"context"
	"sync"
)

// Memory is an in-memory Backend intended mainly for tests.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemory returns a new, empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]map[string][]byte)}
}

// Put stores a copy of blob under (bucket, key).
func (m *Memory) Put(_ context.Context, bucket, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		m.buckets[bucket] = b
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	b[key] = cp
	return nil
}

// Get returns the blob under (bucket, key), or ErrNotFound.
func (m *Memory) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.buckets[bucket][key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// Delete removes (bucket, key); absent keys are a no-op.
func (m *Memory) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucket], key)
	return nil
}

// Exists reports whether (bucket, key) is present.
func (m *Memory) Exists(_ context.Context, bucket, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.buckets[bucket][key]
	return ok, nil
}

// List returns every key in the bucket with its size.
func (m *Memory) List(_ context.Context, bucket string) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sizes := make(map[string]int64, len(m.buckets[bucket]))
	for k, v := range m.buckets[bucket] {
		sizes[k] = int64(len(v))
	}
	return sizes, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
