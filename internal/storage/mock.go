package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	// PutErr, when set, is returned by Put.
	PutErr error
}

// NewMockStorage returns an empty in-memory storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{objects: make(map[string][]byte)}
}

// Keys returns the stored keys, for assertions.
func (m *MockStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

// Object returns the stored bytes for key.
func (m *MockStorage) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

func (m *MockStorage) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	if m.PutErr != nil {
		return "", m.PutErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return key, nil
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrArtifactNotFound(key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MockStorage) URL(key string) string {
	return key
}

func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}
