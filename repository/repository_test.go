package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eventlens/eventlensbackend/database"
	"github.com/eventlens/eventlensbackend/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	return db
}

func seedEventAndGuest(t *testing.T, db *gorm.DB) (*models.Event, *models.Guest) {
	t.Helper()
	customer := &models.Customer{Name: "Studio", Email: "studio@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(customer).Error)

	event := &models.Event{
		EventCode:         "abc123def456",
		Name:              "Summer Wedding",
		EventType:         "wedding",
		EventDate:         time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC),
		StorageFolderPath: "events/abc123def456/",
		CustomerID:        customer.ID,
		IsActive:          true,
		ArchiveStatus:     models.ArchiveStatusNone,
	}
	require.NoError(t, db.Create(event).Error)

	guest := &models.Guest{Name: "Ada", EventID: event.ID}
	require.NoError(t, db.Create(guest).Error)
	return event, guest
}

func TestIncrementUploadCount(t *testing.T) {
	db := setupTestDB(t)
	_, guest := seedEventAndGuest(t, db)
	repo := NewGuestRepository(db)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.IncrementUploadCount(guest.ID))
	}

	stored, err := repo.GetByID(guest.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.UploadCount)
}

func TestIncrementUploadCountMissingGuest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGuestRepository(db)

	err := repo.IncrementUploadCount(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListFingerprintsSkipsNullAndKeepsOrder(t *testing.T) {
	db := setupTestDB(t)
	event, guest := seedEventAndGuest(t, db)
	repo := NewImageRepository(db)

	hashA := "aGFzaEE="
	hashB := "aGFzaEI="
	images := []*models.Image{
		{FileName: "a.jpg", StorageKey: "k1", StorageURL: "u1", EventID: event.ID, GuestID: guest.ID, PerceptualHash: &hashA},
		{FileName: "b.jpg", StorageKey: "k2", StorageURL: "u2", EventID: event.ID, GuestID: guest.ID},
		{FileName: "c.jpg", StorageKey: "k3", StorageURL: "u3", EventID: event.ID, GuestID: guest.ID, PerceptualHash: &hashB},
	}
	for _, img := range images {
		require.NoError(t, repo.Create(img))
	}

	records, err := repo.ListFingerprints(event.ID, guest.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, images[0].ID, records[0].ImageID)
	assert.Equal(t, hashA, records[0].Encoded)
	assert.Equal(t, images[2].ID, records[1].ImageID)
	assert.Equal(t, hashB, records[1].Encoded)
}

func TestListFingerprintsScopedToGuest(t *testing.T) {
	db := setupTestDB(t)
	event, guest := seedEventAndGuest(t, db)
	other := &models.Guest{Name: "Grace", EventID: event.ID}
	require.NoError(t, db.Create(other).Error)
	repo := NewImageRepository(db)

	hash := "c2NvcGVk"
	require.NoError(t, repo.Create(&models.Image{
		FileName: "d.jpg", StorageKey: "k4", StorageURL: "u4",
		EventID: event.ID, GuestID: other.ID, PerceptualHash: &hash,
	}))

	records, err := repo.ListFingerprints(event.ID, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppSettingGetSet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAppSettingRepository(db)

	_, err := repo.Get("guest.upload.max.images.per.batch")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Set("guest.upload.max.images.per.batch", "30"))
	value, err := repo.Get("guest.upload.max.images.per.batch")
	require.NoError(t, err)
	assert.Equal(t, "30", value)

	require.NoError(t, repo.Set("guest.upload.max.images.per.batch", "10"))
	value, err = repo.Get("guest.upload.max.images.per.batch")
	require.NoError(t, err)
	assert.Equal(t, "10", value)
}

func TestArchiveStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	event, _ := seedEventAndGuest(t, db)
	repo := NewEventRepository(db)

	require.NoError(t, repo.RequestArchive(event.ID))
	stored, err := repo.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveStatusPending, stored.ArchiveStatus)
	require.NotNil(t, stored.ArchiveRequestedAt)

	// a second request while pending is refused
	err = repo.RequestArchive(event.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.MarkArchiveProcessing(event.ID))
	key := "events/abc123def456/archive.zip"
	size := int64(1024)
	require.NoError(t, repo.SetArchiveResult(event.ID, &key, &size, nil))

	stored, err = repo.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveStatusDone, stored.ArchiveStatus)
	require.NotNil(t, stored.ArchiveKey)
	assert.Equal(t, key, *stored.ArchiveKey)
}
