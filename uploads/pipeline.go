package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/fingerprint"
	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/screen"
	"github.com/eventlens/eventlensbackend/storage"
	"github.com/eventlens/eventlensbackend/utils"
)

// EventSource is the slice of the event repository the pipeline needs.
type EventSource interface {
	GetByID(id uint) (*models.Event, error)
}

// GuestSource is the slice of the guest repository the pipeline needs.
type GuestSource interface {
	GetByID(id uint) (*models.Guest, error)
	IncrementUploadCount(guestID uint) error
}

// ImageSink persists accepted uploads.
type ImageSink interface {
	Create(image *models.Image) error
}

// FileStatus is the per-file outcome of a batch.
type FileStatus string

const (
	FileAccepted FileStatus = "accepted"
	FileSkipped  FileStatus = "skipped"
	FileFailed   FileStatus = "failed"
)

// Skip reasons beyond what the content screen reports.
const (
	ReasonDuplicate     = "duplicate of an earlier upload"
	ReasonScreenFailure = "content screening failed"
)

// UploadFile is one file of an incoming batch.
type UploadFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// FileResult records what happened to one file of a batch.
type FileResult struct {
	FileName    string        `json:"file_name"`
	Status      FileStatus    `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	DuplicateOf *uint         `json:"duplicate_of,omitempty"`
	Image       *models.Image `json:"image,omitempty"`
}

// BatchResult aggregates the per-file outcomes of one upload request.
type BatchResult struct {
	Results  []FileResult `json:"results"`
	Accepted int          `json:"accepted"`
	Skipped  int          `json:"skipped"`
}

// Pipeline admits guest photo batches: window gate, batch quota, then per
// file a content screen, duplicate check, blob write and database commit.
// Files are processed strictly in order; each accepted file is fully
// committed before the next file's duplicate check runs, so repeats within
// one batch are caught too.
type Pipeline struct {
	events EventSource
	guests GuestSource
	images ImageSink
	store  storage.Backend
	screen screen.Screen
	dupes  *fingerprint.Index
	window WindowPolicy
	quota  *QuotaPolicy

	now func() time.Time
}

func NewPipeline(events EventSource, guests GuestSource, images ImageSink,
	store storage.Backend, scr screen.Screen, dupes *fingerprint.Index,
	window WindowPolicy, quota *QuotaPolicy) *Pipeline {
	return &Pipeline{
		events: events,
		guests: guests,
		images: images,
		store:  store,
		screen: scr,
		dupes:  dupes,
		window: window,
		quota:  quota,
		now:    time.Now,
	}
}

// Upload runs one guest batch through the admission pipeline. Request-level
// failures (unknown event or guest, ownership mismatch, closed window,
// oversized batch) reject the whole batch before any file is touched. A
// storage write failure aborts the remaining files; results for files
// committed before it are still returned alongside the error.
func (p *Pipeline) Upload(ctx context.Context, eventID, guestID uint, files []UploadFile) (*BatchResult, error) {
	event, err := p.events.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}

	guest, err := p.guests.GetByID(guestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, fmt.Errorf("failed to load guest %d: %w", guestID, err)
	}
	if guest.EventID != event.ID {
		return nil, ErrGuestNotInEvent
	}

	now := p.now()
	open, from, until := p.window.IsOpen(event, now)
	if !open {
		return nil, &WindowClosedError{From: from, Until: until}
	}

	limit := p.quota.MaxBatchSize()
	if len(files) > limit {
		return nil, &QuotaExceededError{Limit: limit, Got: len(files)}
	}

	batch := &BatchResult{Results: make([]FileResult, 0, len(files))}
	for _, file := range files {
		result, err := p.processFile(ctx, event, guest, file, now)
		batch.Results = append(batch.Results, result)
		switch result.Status {
		case FileAccepted:
			batch.Accepted++
		case FileSkipped:
			batch.Skipped++
		}
		if err != nil {
			log.Printf("uploads: event %d guest %d: batch aborted after %d of %d files: %v",
				event.ID, guest.ID, len(batch.Results), len(files), err)
			return batch, err
		}
	}

	log.Printf("uploads: event %d guest %d: %d accepted, %d skipped of %d files",
		event.ID, guest.ID, batch.Accepted, batch.Skipped, len(files))
	return batch, nil
}

// processFile runs one file through the per-file stages. A non-nil error is
// batch-fatal; everything else is reported through the FileResult.
func (p *Pipeline) processFile(ctx context.Context, event *models.Event, guest *models.Guest, file UploadFile, now time.Time) (FileResult, error) {
	ok, reason, err := p.screen.Check(file.Data, file.ContentType)
	if err != nil {
		log.Printf("uploads: content screen failed for %s: %v", file.FileName, err)
		return FileResult{FileName: file.FileName, Status: FileSkipped, Reason: ReasonScreenFailure}, nil
	}
	if !ok {
		return FileResult{FileName: file.FileName, Status: FileSkipped, Reason: reason}, nil
	}

	encoded, err := fingerprint.Compute(bytes.NewReader(file.Data))
	if err != nil {
		log.Printf("uploads: fingerprinting failed for %s: %v", file.FileName, err)
		encoded = ""
	}

	if encoded != "" {
		dupID, err := p.dupes.FindDuplicate(event.ID, guest.ID, encoded)
		if err != nil {
			return FileResult{FileName: file.FileName, Status: FileFailed, Reason: "duplicate check failed"},
				fmt.Errorf("duplicate check failed for %s: %w", file.FileName, err)
		}
		if dupID != nil {
			return FileResult{FileName: file.FileName, Status: FileSkipped, Reason: ReasonDuplicate, DuplicateOf: dupID}, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(file.FileName))
	generated := fmt.Sprintf("g%d_%s%s", guest.ID, uuid.New().String(), ext)
	key := event.StorageFolderPath + generated

	if err := p.store.Put(ctx, key, bytes.NewReader(file.Data), int64(len(file.Data)), file.ContentType); err != nil {
		return FileResult{FileName: file.FileName, Status: FileFailed, Reason: "storage write failed"},
			&StorageError{Key: key, Err: err}
	}

	meta := utils.ExtractCaptureMetadata(file.Data)

	var hashPtr *string
	if encoded != "" {
		hashPtr = &encoded
	}

	image := &models.Image{
		FileName:         generated,
		OriginalFileName: file.FileName,
		StorageKey:       key,
		StorageURL:       p.store.PublicURL(key),
		FileSizeMB:       float64(len(file.Data)) / (1024 * 1024),
		ContentType:      file.ContentType,
		PerceptualHash:   hashPtr,
		CameraMake:       meta.CameraMake,
		CameraModel:      meta.CameraModel,
		TakenAt:          meta.TakenAt,
		EventID:          event.ID,
		GuestID:          guest.ID,
		UploadedAt:       now,
	}

	if err := p.images.Create(image); err != nil {
		// the blob is orphaned otherwise; removal failure is only logged
		if delErr := p.store.Delete(ctx, key); delErr != nil {
			log.Printf("uploads: failed to remove orphaned object %s: %v", key, delErr)
		}
		return FileResult{FileName: file.FileName, Status: FileFailed, Reason: "database write failed"},
			fmt.Errorf("failed to record image for %s: %w", file.FileName, err)
	}

	if err := p.guests.IncrementUploadCount(guest.ID); err != nil {
		return FileResult{FileName: file.FileName, Status: FileAccepted, Image: image},
			fmt.Errorf("failed to increment upload count for guest %d: %w", guest.ID, err)
	}

	return FileResult{FileName: file.FileName, Status: FileAccepted, Image: image}, nil
}
