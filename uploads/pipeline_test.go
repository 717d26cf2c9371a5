package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/fingerprint"
	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/screen"
)

type fakeEvents struct {
	events map[uint]*models.Event
}

func (f *fakeEvents) GetByID(id uint) (*models.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return event, nil
}

type fakeGuests struct {
	guests     map[uint]*models.Guest
	increments int
}

func (f *fakeGuests) GetByID(id uint) (*models.Guest, error) {
	guest, ok := f.guests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return guest, nil
}

func (f *fakeGuests) IncrementUploadCount(guestID uint) error {
	guest, ok := f.guests[guestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	guest.UploadCount++
	f.increments++
	return nil
}

// fakeImages doubles as the fingerprint store so duplicates committed earlier
// in the same batch are visible to later files.
type fakeImages struct {
	rows    []*models.Image
	nextID  uint
	listErr error
}

func (f *fakeImages) Create(image *models.Image) error {
	f.nextID++
	image.ID = f.nextID
	f.rows = append(f.rows, image)
	return nil
}

func (f *fakeImages) ListFingerprints(eventID, guestID uint) ([]fingerprint.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var records []fingerprint.Record
	for _, row := range f.rows {
		if row.EventID == eventID && row.GuestID == guestID && row.PerceptualHash != nil {
			records = append(records, fingerprint.Record{ImageID: row.ID, Encoded: *row.PerceptualHash})
		}
	}
	return records, nil
}

type fakeBackend struct {
	objects   map[string][]byte
	puts      int
	failOnPut int // 1-based index of the Put call that fails, 0 for never
}

func (f *fakeBackend) Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	f.puts++
	if f.failOnPut > 0 && f.puts >= f.failOnPut {
		return errors.New("disk full")
	}
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = payload
	return nil
}

func (f *fakeBackend) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	payload, ok := f.objects[key]
	if !ok {
		return nil, 0, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(payload)), int64(len(payload)), nil
}

func (f *fakeBackend) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeBackend) PublicURL(key string) string {
	return "http://localhost:8080/api/files?key=" + key
}

type fixture struct {
	pipeline *Pipeline
	events   *fakeEvents
	guests   *fakeGuests
	images   *fakeImages
	backend  *fakeBackend
	settings *fakeSettings
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	eventDate := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	start := "10:00"
	policy := WindowPolicy{GraceDays: 3}
	from, until := policy.ComputeBounds(eventDate, &start)

	event := &models.Event{
		ID:                1,
		EventCode:         "abc123def456",
		EventDate:         eventDate,
		EventStartTime:    &start,
		ValidFrom:         &from,
		ValidUntil:        &until,
		StorageFolderPath: "events/abc123def456/",
	}
	guest := &models.Guest{ID: 7, Name: "Ada", EventID: 1}

	events := &fakeEvents{events: map[uint]*models.Event{1: event}}
	guests := &fakeGuests{guests: map[uint]*models.Guest{7: guest}}
	images := &fakeImages{}
	backend := &fakeBackend{objects: map[string][]byte{}}
	settings := &fakeSettings{values: map[string]string{}}

	pipeline := NewPipeline(events, guests, images, backend, screen.NewTypeScreen(),
		fingerprint.NewIndex(images, 0.2), policy, NewQuotaPolicy(settings, 20, 1))
	now := time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)
	pipeline.now = func() time.Time { return now }

	return &fixture{
		pipeline: pipeline,
		events:   events,
		guests:   guests,
		images:   images,
		backend:  backend,
		settings: settings,
		now:      now,
	}
}

// testPhoto builds a deterministic pseudo-random PNG so distinct seeds give
// clearly distinct fingerprints.
func testPhoto(t *testing.T, seed int64) UploadFile {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(rng.Intn(256))
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return UploadFile{
		FileName:    fmt.Sprintf("photo_%d.png", seed),
		ContentType: "image/png",
		Data:        buf.Bytes(),
	}
}

func TestUploadAcceptsDistinctImages(t *testing.T) {
	f := newFixture(t)

	batch, err := f.pipeline.Upload(context.Background(), 1, 7, []UploadFile{
		testPhoto(t, 1), testPhoto(t, 2),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Accepted)
	assert.Equal(t, 0, batch.Skipped)
	assert.Equal(t, 2, f.guests.increments)
	assert.Len(t, f.backend.objects, 2)

	for _, result := range batch.Results {
		require.Equal(t, FileAccepted, result.Status)
		require.NotNil(t, result.Image)
		assert.True(t, strings.HasPrefix(result.Image.StorageKey, "events/abc123def456/g7_"),
			"unexpected storage key %s", result.Image.StorageKey)
		assert.True(t, strings.HasSuffix(result.Image.StorageKey, ".png"))
		assert.NotNil(t, result.Image.PerceptualHash)
		assert.Equal(t, f.now, result.Image.UploadedAt)
	}
	assert.NotEqual(t, batch.Results[0].Image.StorageKey, batch.Results[1].Image.StorageKey)
}

func TestUploadEmptyBatchSucceeds(t *testing.T) {
	f := newFixture(t)

	batch, err := f.pipeline.Upload(context.Background(), 1, 7, nil)
	require.NoError(t, err)
	assert.Empty(t, batch.Results)
	assert.Equal(t, 0, batch.Accepted)
}

func TestUploadUnknownEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Upload(context.Background(), 99, 7, []UploadFile{testPhoto(t, 1)})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestUploadUnknownGuest(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Upload(context.Background(), 1, 99, []UploadFile{testPhoto(t, 1)})
	assert.ErrorIs(t, err, ErrGuestNotFound)
}

func TestUploadGuestFromAnotherEvent(t *testing.T) {
	f := newFixture(t)
	f.guests.guests[8] = &models.Guest{ID: 8, Name: "Eve", EventID: 2}

	_, err := f.pipeline.Upload(context.Background(), 1, 8, []UploadFile{testPhoto(t, 1)})
	assert.ErrorIs(t, err, ErrGuestNotInEvent)
	assert.Empty(t, f.backend.objects)
}

func TestUploadOutsideWindow(t *testing.T) {
	f := newFixture(t)
	f.pipeline.now = func() time.Time {
		return time.Date(2026, 6, 20, 9, 59, 0, 0, time.UTC)
	}

	_, err := f.pipeline.Upload(context.Background(), 1, 7, []UploadFile{testPhoto(t, 1)})

	var windowErr *WindowClosedError
	require.ErrorAs(t, err, &windowErr)
	assert.Equal(t, time.Date(2026, 6, 20, 10, 0, 0, 0, time.UTC), windowErr.From)
	assert.Empty(t, f.backend.objects)
}

func TestUploadOversizedBatch(t *testing.T) {
	f := newFixture(t)
	f.settings.values[SettingMaxImagesPerBatch] = "2"

	files := []UploadFile{testPhoto(t, 1), testPhoto(t, 2), testPhoto(t, 3)}
	_, err := f.pipeline.Upload(context.Background(), 1, 7, files)

	var quotaErr *QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 2, quotaErr.Limit)
	assert.Equal(t, 3, quotaErr.Got)
	assert.Empty(t, f.backend.objects)
	assert.Equal(t, 0, f.guests.increments)
}

func TestUploadSkipsDuplicateWithinBatch(t *testing.T) {
	f := newFixture(t)
	original := testPhoto(t, 1)
	repeat := original
	repeat.FileName = "copy_of_photo.png"

	batch, err := f.pipeline.Upload(context.Background(), 1, 7, []UploadFile{
		original, repeat, testPhoto(t, 2),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Accepted)
	assert.Equal(t, 1, batch.Skipped)

	dup := batch.Results[1]
	assert.Equal(t, FileSkipped, dup.Status)
	assert.Equal(t, ReasonDuplicate, dup.Reason)
	require.NotNil(t, dup.DuplicateOf)
	assert.Equal(t, batch.Results[0].Image.ID, *dup.DuplicateOf)

	assert.Equal(t, 2, f.guests.increments)
	assert.Len(t, f.backend.objects, 2)
}

func TestUploadSkipsDuplicateAcrossBatches(t *testing.T) {
	f := newFixture(t)
	photo := testPhoto(t, 1)

	first, err := f.pipeline.Upload(context.Background(), 1, 7, []UploadFile{photo})
	require.NoError(t, err)
	require.Equal(t, 1, first.Accepted)

	second, err := f.pipeline.Upload(context.Background(), 1, 7, []UploadFile{photo})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Accepted)
	assert.Equal(t, 1, second.Skipped)
	require.NotNil(t, second.Results[0].DuplicateOf)
	assert.Equal(t, first.Results[0].Image.ID, *second.Results[0].DuplicateOf)
}

func TestUploadSkipsRejectedFilesAndContinues(t *testing.T) {
	f := newFixture(t)

	files := []UploadFile{
		{FileName: "notes.pdf", ContentType: "application/pdf", Data: []byte("pdf")},
		{FileName: "empty.jpg", ContentType: "image/jpeg", Data: nil},
		testPhoto(t, 1),
	}
	batch, err := f.pipeline.Upload(context.Background(), 1, 7, files)
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Accepted)
	assert.Equal(t, 2, batch.Skipped)
	assert.Equal(t, FileSkipped, batch.Results[0].Status)
	assert.Contains(t, batch.Results[0].Reason, screen.ReasonNotAnImage)
	assert.Equal(t, screen.ReasonEmptyFile, batch.Results[1].Reason)
	assert.Equal(t, FileAccepted, batch.Results[2].Status)
	assert.Equal(t, 1, f.guests.increments)
}

func TestUploadUndecodableImageStillAccepted(t *testing.T) {
	f := newFixture(t)
	garbage := UploadFile{FileName: "broken.jpg", ContentType: "image/jpeg", Data: []byte("not a real jpeg")}

	batch, err := f.pipeline.Upload(context.Background(), 1, 7, []UploadFile{garbage, garbage})
	require.NoError(t, err)

	// no fingerprint means no duplicate detection for these files
	assert.Equal(t, 2, batch.Accepted)
	for _, result := range batch.Results {
		require.NotNil(t, result.Image)
		assert.Nil(t, result.Image.PerceptualHash)
	}
}

func TestUploadStorageFailureAbortsRemainder(t *testing.T) {
	f := newFixture(t)
	f.backend.failOnPut = 3

	files := []UploadFile{
		testPhoto(t, 1), testPhoto(t, 2), testPhoto(t, 3), testPhoto(t, 4), testPhoto(t, 5),
	}
	batch, err := f.pipeline.Upload(context.Background(), 1, 7, files)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)

	// first two committed, third failed, rest never attempted
	require.Len(t, batch.Results, 3)
	assert.Equal(t, FileAccepted, batch.Results[0].Status)
	assert.Equal(t, FileAccepted, batch.Results[1].Status)
	assert.Equal(t, FileFailed, batch.Results[2].Status)

	assert.Equal(t, 2, batch.Accepted)
	assert.Equal(t, 2, f.guests.increments)
	assert.Len(t, f.backend.objects, 2)
	assert.Len(t, f.images.rows, 2)
}

func TestUploadDuplicateCheckFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.images.listErr = errors.New("db gone")

	batch, err := f.pipeline.Upload(context.Background(), 1, 7, []UploadFile{testPhoto(t, 1)})
	require.Error(t, err)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, FileFailed, batch.Results[0].Status)
	assert.Empty(t, f.backend.objects)
}
