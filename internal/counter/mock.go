package counter

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store for tests.
type MockStore struct {
	mu    sync.Mutex
	value int64
	found bool

	// GetErr and PutErr, when set, are returned by the corresponding call.
	GetErr error
	PutErr error

	// PutCalls counts write attempts, including failed ones.
	PutCalls int
}

// NewMockStore returns an empty mock store (key absent).
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Seed sets the stored value, marking the key as present.
func (m *MockStore) Seed(value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.found = true
}

// Value returns the currently stored value.
func (m *MockStore) Value() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *MockStore) Get(ctx context.Context) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return 0, false, m.GetErr
	}
	return m.value, m.found, nil
}

func (m *MockStore) Put(ctx context.Context, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.value = value
	m.found = true
	return nil
}

// MockConditionalStore extends MockStore with conditional writes.
type MockConditionalStore struct {
	MockStore
}

// NewMockConditionalStore returns an empty conditional mock store.
func NewMockConditionalStore() *MockConditionalStore {
	return &MockConditionalStore{}
}

func (m *MockConditionalStore) PutIf(ctx context.Context, prev, next int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.found && m.value != prev {
		return ErrConflict
	}
	if !m.found && prev != 0 {
		return ErrConflict
	}
	m.value = next
	m.found = true
	return nil
}
