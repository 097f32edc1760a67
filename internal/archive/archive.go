// Package archive persists rendered invoice PDFs keyed by delivery
// outcome. The failed/ prefix doubles as the recovery mechanism: instead
// of retrying a failed send, the operator picks the PDF up from there.
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/nordview/invoicer/internal/domain"
	"github.com/nordview/invoicer/internal/storage"
)

const contentTypePDF = "application/pdf"

// Archiver writes invoice artifacts to outcome-labeled paths.
type Archiver struct {
	store  storage.Storage
	prefix string // artifact name prefix, e.g. the company short name
}

// NewArchiver creates an archiver writing under the given name prefix.
func NewArchiver(store storage.Storage, prefix string) *Archiver {
	return &Archiver{store: store, prefix: prefix}
}

// Key returns the storage key for an invoice artifact:
// {outcome}/{prefix}-invoice-{number}.pdf
func (a *Archiver) Key(outcome domain.Outcome, number int64) string {
	return fmt.Sprintf("%s/%s", outcome, domain.ArtifactName(a.prefix, number))
}

// Store persists the PDF bytes under the outcome path and returns the
// artifact location. Artifacts are write-once per invoice number; the
// allocator guarantees numbers are never reissued, so an overwrite only
// happens if the same number is reprocessed, which the protocol excludes.
func (a *Archiver) Store(ctx context.Context, outcome domain.Outcome, number int64, pdf []byte) (string, error) {
	key := a.Key(outcome, number)

	url, err := a.store.Put(ctx, key, bytes.NewReader(pdf), contentTypePDF)
	if err != nil {
		return "", domain.Internal(err, "archive.store", fmt.Sprintf("failed to archive %s", key))
	}

	return url, nil
}

// Exists reports whether an artifact is already archived for the outcome
// and number, for reconciliation tooling.
func (a *Archiver) Exists(ctx context.Context, outcome domain.Outcome, number int64) (bool, error) {
	return a.store.Exists(ctx, a.Key(outcome, number))
}
