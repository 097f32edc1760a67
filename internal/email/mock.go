package email

import (
	"context"
	"sync"
)

// MockSender is an in-memory Sender for tests.
type MockSender struct {
	mu   sync.Mutex
	sent []*Email

	// SendErr, when set, is returned by Send.
	SendErr error
}

// NewMockSender returns an empty mock sender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Sent returns the messages sent so far.
func (m *MockSender) Sent() []*Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Email, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockSender) Send(ctx context.Context, email *Email) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return "", m.SendErr
	}
	m.sent = append(m.sent, email)
	return "mock-message-id", nil
}
