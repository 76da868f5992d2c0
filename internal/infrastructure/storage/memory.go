package storage

import (
	"context"
	"net/url"
	"slices"
	"sync"
	"time"
)

// MemoryArchive keeps objects in process memory. It backs development
// setups without an object store and tests.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryArchive creates an empty archive. Download URLs are built on baseURL.
func NewMemoryArchive(baseURL string) *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte), baseURL: baseURL}
}

// Put stores a copy of data
func (m *MemoryArchive) Put(_ context.Context, key string, data []byte, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = slices.Clone(data)
	return nil
}

// Get returns a copy of the stored object
func (m *MemoryArchive) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return slices.Clone(data), nil
}

// DownloadURL returns baseURL/key. The URL does not expire.
func (m *MemoryArchive) DownloadURL(_ context.Context, key string) (string, time.Time, error) {
	if err := validateKey(key); err != nil {
		return "", time.Time{}, err
	}
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", time.Time{}, ErrObjectNotFound
	}
	u, err := url.JoinPath(m.baseURL, key)
	if err != nil {
		return "", time.Time{}, err
	}
	return u, time.Time{}, nil
}

// Delete removes an object. Missing keys are ignored.
func (m *MemoryArchive) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Len returns the number of stored objects
func (m *MemoryArchive) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ Archive = (*MemoryArchive)(nil)
