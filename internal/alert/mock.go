package alert

import (
	"context"
	"sync"
)

// InvoiceAlert records one InvoiceFailure call.
type InvoiceAlert struct {
	InvoiceNumber int64
	ClientName    string
	Cause         error
}

// MockNotifier is an in-memory Notifier for tests.
type MockNotifier struct {
	mu            sync.Mutex
	invoiceAlerts []InvoiceAlert
	runAlerts     []error

	// Err, when set, is returned by both methods.
	Err error
}

// NewMockNotifier returns an empty mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// InvoiceAlerts returns the per-invoice alerts recorded so far.
func (m *MockNotifier) InvoiceAlerts() []InvoiceAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]InvoiceAlert, len(m.invoiceAlerts))
	copy(out, m.invoiceAlerts)
	return out
}

// RunAlerts returns the run-fatal alerts recorded so far.
func (m *MockNotifier) RunAlerts() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]error, len(m.runAlerts))
	copy(out, m.runAlerts)
	return out
}

func (m *MockNotifier) InvoiceFailure(ctx context.Context, invoiceNumber int64, clientName string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.invoiceAlerts = append(m.invoiceAlerts, InvoiceAlert{
		InvoiceNumber: invoiceNumber,
		ClientName:    clientName,
		Cause:         cause,
	})
	return nil
}

func (m *MockNotifier) RunFailure(ctx context.Context, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.runAlerts = append(m.runAlerts, cause)
	return nil
}
