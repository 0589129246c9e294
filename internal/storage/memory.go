package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps containers in process memory. It backs local runs and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	containers   map[string]map[string][]byte
	created      map[string]int
	uploadPrefix string
	expiry       time.Duration
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(uploadPrefix string, expiry time.Duration) *MemoryStore {
	return &MemoryStore{
		containers:   make(map[string]map[string][]byte),
		created:      make(map[string]int),
		uploadPrefix: uploadPrefix,
		expiry:       expiry,
	}
}

// CreateContainer records the container.
func (m *MemoryStore) CreateContainer(ctx context.Context, container string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[container]; !ok {
		m.containers[container] = make(map[string][]byte)
	}
	m.created[container]++
	return nil
}

// DeleteContainer drops the container and its objects.
func (m *MemoryStore) DeleteContainer(ctx context.Context, container string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.containers, container)
	return nil
}

// Upload stores a copy of data.
func (m *MemoryStore) Upload(ctx context.Context, container, object string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	objects, ok := m.containers[container]
	if !ok {
		return "", fmt.Errorf("container %s does not exist", container)
	}
	objects[object] = append([]byte(nil), data...)
	return ObjectPath(container, object), nil
}

// Download returns a copy of the object.
func (m *MemoryStore) Download(ctx context.Context, container, object string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.containers[container][object]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), data...), nil
}

// UploadAccess returns a grant with a memory:// url.
func (m *MemoryStore) UploadAccess(ctx context.Context, container string) (*AccessGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.containers[container]; !ok {
		return nil, fmt.Errorf("container %s does not exist", container)
	}
	return &AccessGrant{
		Container: container,
		UploadURL: "memory://" + container,
		KeyPrefix: m.uploadPrefix,
		ExpiresAt: time.Now().UTC().Add(m.expiry),
	}, nil
}

// DownloadURL returns a memory:// url for an existing object.
func (m *MemoryStore) DownloadURL(ctx context.Context, container, object string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.containers[container][object]; !ok {
		return "", ErrObjectNotFound
	}
	return "memory://" + ObjectPath(container, object), nil
}

// Exists reports whether a container is present.
func (m *MemoryStore) Exists(container string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.containers[container]
	return ok
}

// CreateCount reports how many times CreateContainer was called for container.
func (m *MemoryStore) CreateCount(container string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.created[container]
}

// Objects lists object names in a container.
func (m *MemoryStore) Objects(container string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.containers[container]))
	for name := range m.containers[container] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
