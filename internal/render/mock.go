package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/nordview/invoicer/internal/domain"
)

// MockRenderer is an in-memory Renderer for tests.
type MockRenderer struct {
	mu       sync.Mutex
	rendered []int64

	// Err, when set, is returned for every invoice.
	Err error

	// FailFor makes Render fail for specific invoice numbers only.
	FailFor map[int64]error
}

// NewMockRenderer returns a renderer producing fake PDF bytes.
func NewMockRenderer() *MockRenderer {
	return &MockRenderer{FailFor: make(map[int64]error)}
}

// Rendered returns the invoice numbers rendered so far.
func (m *MockRenderer) Rendered() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.rendered))
	copy(out, m.rendered)
	return out
}

func (m *MockRenderer) Render(ctx context.Context, inv domain.Invoice) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if err, ok := m.FailFor[inv.Number]; ok {
		return nil, err
	}
	m.rendered = append(m.rendered, inv.Number)
	return []byte(fmt.Sprintf("%%PDF-mock-%d", inv.Number)), nil
}
