package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *LocalBackend {
	t.Helper()
	backend, err := NewLocalBackend(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	return backend
}

func TestLocalPutGetRoundTrip(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	payload := []byte("jpeg bytes go here")

	key := "events/abc123def456/g1_photo.jpg"
	require.NoError(t, backend.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), "image/jpeg"))

	reader, size, err := backend.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, int64(len(payload)), size)
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestLocalGetMissingKey(t *testing.T) {
	backend := newTestBackend(t)

	_, _, err := backend.Get(context.Background(), "events/nope/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalDeleteIsIdempotent(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	key := "events/abc123def456/g1_photo.jpg"
	require.NoError(t, backend.Put(ctx, key, strings.NewReader("data"), 4, "image/jpeg"))

	require.NoError(t, backend.Delete(ctx, key))
	require.NoError(t, backend.Delete(ctx, key))

	_, _, err := backend.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalRejectsTraversalKeys(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	err := backend.Put(ctx, "../outside.jpg", strings.NewReader("x"), 1, "image/jpeg")
	assert.Error(t, err)

	_, _, err = backend.Get(ctx, "events/../../etc/passwd")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLocalPublicURLEscapesKey(t *testing.T) {
	backend := newTestBackend(t)

	url := backend.PublicURL("events/abc/g1 photo.jpg")
	assert.Equal(t, "http://localhost:8080/api/files?key=events%2Fabc%2Fg1+photo.jpg", url)
}
