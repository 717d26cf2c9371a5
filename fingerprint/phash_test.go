package fingerprint

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noiseImage builds a deterministic pseudo-random grayscale image. Pixel
// values stay in [0, 200] so a brightness offset never clamps.
func noiseImage(t *testing.T, seed int64, offset int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(rng.Intn(201) + offset)
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestComputeProducesFixedLengthHash(t *testing.T) {
	encoded, err := Compute(bytes.NewReader(noiseImage(t, 1, 0)))
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Len(t, raw, HashBits/8)
}

func TestComputeIsDeterministic(t *testing.T) {
	data := noiseImage(t, 2, 0)

	first, err := Compute(bytes.NewReader(data))
	require.NoError(t, err)
	second, err := Compute(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, first, second)

	dist, err := Distance(first, second)
	require.NoError(t, err)
	assert.Equal(t, 0.0, dist)
}

func TestComputeUndecodableReturnsEmpty(t *testing.T) {
	encoded, err := Compute(bytes.NewReader([]byte("definitely not an image")))
	require.NoError(t, err)
	assert.Empty(t, encoded)
}

func TestBrightnessShiftStaysWithinThreshold(t *testing.T) {
	original, err := Compute(bytes.NewReader(noiseImage(t, 3, 0)))
	require.NoError(t, err)
	brighter, err := Compute(bytes.NewReader(noiseImage(t, 3, 10)))
	require.NoError(t, err)

	dist, err := Distance(original, brighter)
	require.NoError(t, err)
	assert.Less(t, dist, 0.2)
}

func TestUnrelatedImagesAreFarApart(t *testing.T) {
	a, err := Compute(bytes.NewReader(noiseImage(t, 4, 0)))
	require.NoError(t, err)
	b, err := Compute(bytes.NewReader(noiseImage(t, 5, 0)))
	require.NoError(t, err)

	dist, err := Distance(a, b)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, dist, 0.2)
}

func TestDistanceCountsDifferingBits(t *testing.T) {
	zero := base64.StdEncoding.EncodeToString(make([]byte, 8))
	oneByte := base64.StdEncoding.EncodeToString(append([]byte{0xFF}, make([]byte, 7)...))

	dist, err := Distance(zero, oneByte)
	require.NoError(t, err)
	assert.Equal(t, 0.125, dist)
}

func TestDistanceRejectsBadInput(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString(make([]byte, 8))

	_, err := Distance("%%%not-base64%%%", valid)
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString(make([]byte, 4))
	_, err = Distance(valid, short)
	assert.Error(t, err)
}

type fakeStore struct {
	records []Record
	err     error
}

func (f *fakeStore) ListFingerprints(eventID, guestID uint) ([]Record, error) {
	return f.records, f.err
}

func TestFindDuplicateReturnsFirstMatch(t *testing.T) {
	data := noiseImage(t, 6, 0)
	encoded, err := Compute(bytes.NewReader(data))
	require.NoError(t, err)
	other, err := Compute(bytes.NewReader(noiseImage(t, 7, 0)))
	require.NoError(t, err)

	store := &fakeStore{records: []Record{
		{ImageID: 11, Encoded: other},
		{ImageID: 12, Encoded: encoded},
		{ImageID: 13, Encoded: encoded},
	}}
	ix := NewIndex(store, 0.2)

	match, err := ix.FindDuplicate(1, 1, encoded)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uint(12), *match)
}

func TestFindDuplicateSkipsCorruptRecords(t *testing.T) {
	data := noiseImage(t, 8, 0)
	encoded, err := Compute(bytes.NewReader(data))
	require.NoError(t, err)

	store := &fakeStore{records: []Record{
		{ImageID: 21, Encoded: "###corrupt###"},
		{ImageID: 22, Encoded: ""},
		{ImageID: 23, Encoded: encoded},
	}}
	ix := NewIndex(store, 0.2)

	match, err := ix.FindDuplicate(1, 1, encoded)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uint(23), *match)
}

func TestFindDuplicateEmptyCandidateNeverMatches(t *testing.T) {
	store := &fakeStore{records: []Record{{ImageID: 1, Encoded: "whatever"}}}
	ix := NewIndex(store, 0.2)

	match, err := ix.FindDuplicate(1, 1, "")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestFindDuplicatePropagatesStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db gone")}
	ix := NewIndex(store, 0.2)

	_, err := ix.FindDuplicate(1, 1, base64.StdEncoding.EncodeToString(make([]byte, 8)))
	assert.Error(t, err)
}
