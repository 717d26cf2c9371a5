package utils

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/storage"
)

type memBackend struct {
	objects map[string][]byte
}

func (m *memBackend) Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[key] = payload
	return nil
}

func (m *memBackend) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	payload, ok := m.objects[key]
	if !ok {
		return nil, 0, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(payload)), int64(len(payload)), nil
}

func (m *memBackend) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memBackend) PublicURL(key string) string {
	return "http://localhost/" + key
}

func TestGenerateCode(t *testing.T) {
	code := GenerateCode(12)
	assert.Len(t, code, 12)
	assert.NotEqual(t, code, GenerateCode(12))
}

func TestWriteArchiveNaturalOrder(t *testing.T) {
	backend := &memBackend{objects: map[string][]byte{
		"events/e/g1_a.jpg": []byte("first"),
		"events/e/g1_b.jpg": []byte("second"),
		"events/e/g1_c.jpg": []byte("third"),
	}}
	images := []models.Image{
		{FileName: "photo_10.jpg", StorageKey: "events/e/g1_c.jpg"},
		{FileName: "photo_2.jpg", StorageKey: "events/e/g1_b.jpg"},
		{FileName: "photo_1.jpg", StorageKey: "events/e/g1_a.jpg"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(context.Background(), backend, images, nil, &buf))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 3)

	// natural sort puts photo_2 before photo_10
	assert.Equal(t, "photo_1.jpg", reader.File[0].Name)
	assert.Equal(t, "photo_2.jpg", reader.File[1].Name)
	assert.Equal(t, "photo_10.jpg", reader.File[2].Name)

	entry, err := reader.File[1].Open()
	require.NoError(t, err)
	defer entry.Close()
	payload, err := io.ReadAll(entry)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), payload)
}

func TestWriteArchiveSkipsMissingObjects(t *testing.T) {
	backend := &memBackend{objects: map[string][]byte{
		"events/e/g1_a.jpg": []byte("data"),
	}}
	images := []models.Image{
		{FileName: "kept.jpg", StorageKey: "events/e/g1_a.jpg"},
		{FileName: "gone.jpg", StorageKey: "events/e/g1_missing.jpg"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(context.Background(), backend, images, nil, &buf))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 1)
	assert.Equal(t, "kept.jpg", reader.File[0].Name)
}

func TestWriteArchiveGroupsByGuestFolder(t *testing.T) {
	backend := &memBackend{objects: map[string][]byte{
		"events/e/g1_a.jpg": []byte("ada"),
		"events/e/g2_a.jpg": []byte("bob"),
	}}
	images := []models.Image{
		{FileName: "photo.jpg", StorageKey: "events/e/g1_a.jpg", GuestID: 1},
		{FileName: "photo.jpg", StorageKey: "events/e/g2_a.jpg", GuestID: 2},
	}
	folders := map[uint]string{1: "Ada", 2: "Bob"}

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(context.Background(), backend, images, folders, &buf))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)
	assert.Equal(t, "Ada/photo.jpg", reader.File[0].Name)
	assert.Equal(t, "Bob/photo.jpg", reader.File[1].Name)
}

func TestExtractCaptureMetadataWithoutExif(t *testing.T) {
	meta := ExtractCaptureMetadata([]byte("not a jpeg at all"))
	assert.Nil(t, meta.CameraMake)
	assert.Nil(t, meta.CameraModel)
	assert.Nil(t, meta.TakenAt)
}
