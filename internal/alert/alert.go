// Package alert delivers operator-facing failure notifications over the
// same email transport the invoices use.
package alert

import (
	"context"
	"fmt"

	"github.com/nordview/invoicer/internal/email"
)

// Notifier sends operator alerts. Two shapes exist: per-invoice failures
// (the run continues) and run-fatal failures (the run halted).
type Notifier interface {
	// InvoiceFailure reports a failure local to one invoice, naming the
	// invoice number, client and error.
	InvoiceFailure(ctx context.Context, invoiceNumber int64, clientName string, cause error) error

	// RunFailure reports a fatal error that halted the entire run.
	RunFailure(ctx context.Context, cause error) error
}

// EmailNotifier implements Notifier on an email.Sender.
type EmailNotifier struct {
	sender email.Sender
	from   string
	to     string // operator address
}

// NewEmailNotifier creates a notifier addressing the operator mailbox.
func NewEmailNotifier(sender email.Sender, from, to string) *EmailNotifier {
	return &EmailNotifier{sender: sender, from: from, to: to}
}

// InvoiceFailure sends a per-invoice failure alert.
func (n *EmailNotifier) InvoiceFailure(ctx context.Context, invoiceNumber int64, clientName string, cause error) error {
	msg := &email.Email{
		To:      []string{n.to},
		From:    n.from,
		Subject: fmt.Sprintf("Invoice %d failed for %s", invoiceNumber, clientName),
		TextBody: fmt.Sprintf(
			"Invoice %d for client %q could not be produced.\n\nError: %v\n\nThe run continued with the remaining clients.\n",
			invoiceNumber, clientName, cause),
	}

	if _, err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send invoice failure alert: %w", err)
	}
	return nil
}

// RunFailure sends a run-fatal alert.
func (n *EmailNotifier) RunFailure(ctx context.Context, cause error) error {
	msg := &email.Email{
		To:      []string{n.to},
		From:    n.from,
		Subject: "Invoice run halted",
		TextBody: fmt.Sprintf(
			"The scheduled invoice run halted before completing.\n\nError: %v\n\nNo further invoices were processed.\n",
			cause),
	}

	if _, err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send run failure alert: %w", err)
	}
	return nil
}
