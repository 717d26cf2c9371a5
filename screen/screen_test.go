package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeScreenAdmitsImages(t *testing.T) {
	s := NewTypeScreen()

	ok, reason, err := s.Check([]byte{0xFF, 0xD8, 0xFF}, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, _, err = s.Check([]byte("png bytes"), "image/png")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTypeScreenRejectsEmptyFile(t *testing.T) {
	s := NewTypeScreen()

	ok, reason, err := s.Check(nil, "image/jpeg")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ReasonEmptyFile, reason)
}

func TestTypeScreenRejectsNonImageTypes(t *testing.T) {
	s := NewTypeScreen()

	for _, contentType := range []string{"application/pdf", "video/mp4", "text/plain", ""} {
		ok, reason, err := s.Check([]byte("payload"), contentType)
		require.NoError(t, err)
		assert.False(t, ok, "content type %q should be rejected", contentType)
		assert.Contains(t, reason, ReasonNotAnImage)
	}
}

func TestTypeScreenDoesNotSniffContent(t *testing.T) {
	s := NewTypeScreen()

	// declared type wins; pixel data is never inspected here
	ok, _, err := s.Check([]byte("not actually an image"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDNNScreenDisabledFallsBackToTypeScreen(t *testing.T) {
	s := NewDNNScreen("", 0.7)
	assert.False(t, s.Enabled)

	ok, _, err := s.Check([]byte("payload"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, reason, err := s.Check([]byte("payload"), "application/zip")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, ReasonNotAnImage)
}
