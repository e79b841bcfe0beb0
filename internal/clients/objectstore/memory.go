// internal/clients/objectstore/memory.go
package objectstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Upload(_ context.Context, bucket, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(body))
	copy(buf, body)
	m.objects[bucket+"/"+key] = buf
	return nil
}

func (m *MemoryStore) SignedURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[bucket+"/"+key]; !ok {
		return "", fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return "https://assets.local/" + bucket + "/" + key, nil
}

// Get returns a stored object, for assertions in tests.
func (m *MemoryStore) Get(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.objects[bucket+"/"+key]
	return body, ok
}
