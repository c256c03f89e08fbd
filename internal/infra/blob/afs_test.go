package blob

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/dms/internal/domain"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore("mem://localhost/blob-lifecycle")

	ref, err := store.Store(ctx, "report.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, store.Ref("report.pdf"), ref)

	reader, err := store.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.NoError(t, reader.Close())
	assert.Equal(t, "%PDF-1.7", string(data))

	deleted, err := store.Delete(ctx, ref)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, ref)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Open(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}
