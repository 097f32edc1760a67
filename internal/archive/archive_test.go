package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordview/invoicer/internal/domain"
	"github.com/nordview/invoicer/internal/storage"
)

func TestKey(t *testing.T) {
	a := NewArchiver(storage.NewMockStorage(), "acme")

	assert.Equal(t, "sent/acme-invoice-1042.pdf", a.Key(domain.OutcomeSent, 1042))
	assert.Equal(t, "failed/acme-invoice-1043.pdf", a.Key(domain.OutcomeFailed, 1043))
}

func TestStoreWritesUnderOutcomePath(t *testing.T) {
	store := storage.NewMockStorage()
	a := NewArchiver(store, "acme")

	url, err := a.Store(context.Background(), domain.OutcomeFailed, 7, []byte("%PDF-1.4"))

	require.NoError(t, err)
	assert.Equal(t, "failed/acme-invoice-7.pdf", url)

	data, ok := store.Object("failed/acme-invoice-7.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	// Nothing leaked into the other outcome path.
	exists, err := a.Exists(context.Background(), domain.OutcomeSent, 7)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreWrapsBackendError(t *testing.T) {
	store := storage.NewMockStorage()
	store.PutErr = errors.New("bucket unreachable")
	a := NewArchiver(store, "acme")

	_, err := a.Store(context.Background(), domain.OutcomeSent, 7, []byte("x"))

	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}
