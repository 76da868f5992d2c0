package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryArchive(t *testing.T) {
	a := NewMemoryArchive("http://localhost:8080/files")
	ctx := context.Background()
	data := []byte("%PDF-1.4")

	require.NoError(t, a.Put(ctx, "reports/history.pdf", data, "application/pdf"))
	data[0] = 'X'

	got, err := a.Get(ctx, "reports/history.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(got), "stored bytes are a copy")

	url, _, err := a.DownloadURL(ctx, "reports/history.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/reports/history.pdf", url)

	require.NoError(t, a.Delete(ctx, "reports/history.pdf"))
	_, err = a.Get(ctx, "reports/history.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, _, err = a.DownloadURL(ctx, "reports/history.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Equal(t, 0, a.Len())

	assert.Error(t, a.Put(ctx, "", data, ""))
}
