// Package render produces the invoice PDF documents.
package render

import (
	"context"

	"github.com/nordview/invoicer/internal/domain"
)

// Renderer turns an invoice into a complete, ready-to-send document.
// The output is an opaque byte buffer; callers never inspect it.
type Renderer interface {
	Render(ctx context.Context, inv domain.Invoice) ([]byte, error)
}
