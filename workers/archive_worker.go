package workers

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/eventlens/eventlensbackend/repository"
	"github.com/eventlens/eventlensbackend/storage"
	"github.com/eventlens/eventlensbackend/utils"
)

// ArchiveProcessor builds full-event zip archives in the background. Requests
// are deduplicated: an event with a build already queued or running is not
// queued again.
type ArchiveProcessor struct {
	JobQueue  chan uint
	EventRepo repository.EventRepositoryInterface
	GuestRepo repository.GuestRepositoryInterface
	ImageRepo repository.ImageRepositoryInterface
	Backend   storage.Backend
	Wg        sync.WaitGroup
	StopChan  chan struct{}
	Pending   map[uint]bool
	Mutex     sync.Mutex
}

func NewArchiveProcessor(eventRepo repository.EventRepositoryInterface, guestRepo repository.GuestRepositoryInterface,
	imageRepo repository.ImageRepositoryInterface, backend storage.Backend, queueSize, numWorkers int) *ArchiveProcessor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 50
	}
	proc := &ArchiveProcessor{
		JobQueue:  make(chan uint, queueSize),
		EventRepo: eventRepo,
		GuestRepo: guestRepo,
		ImageRepo: imageRepo,
		Backend:   backend,
		StopChan:  make(chan struct{}),
		Pending:   make(map[uint]bool),
	}
	proc.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go proc.worker(i)
	}
	log.Printf("Started %d archive worker(s) with queue size %d", numWorkers, queueSize)
	return proc
}

func (ap *ArchiveProcessor) worker(id int) {
	defer ap.Wg.Done()

	log.Printf("Archive worker %d started", id)
	for {
		select {
		case eventID, ok := <-ap.JobQueue:
			if !ok {
				log.Printf("Archive worker %d stopping: Job queue closed", id)
				return
			}

			log.Printf("Worker %d: Building archive for event %d", id, eventID)
			ap.processArchiveJob(eventID)

			ap.Mutex.Lock()
			delete(ap.Pending, eventID)
			ap.Mutex.Unlock()

		case <-ap.StopChan:
			log.Printf("Archive worker %d stopping: Stop signal received", id)
			return
		}
	}
}

// processArchiveJob builds the zip into a temporary file, uploads it next to
// the event's images, and records the outcome on the event row.
func (ap *ArchiveProcessor) processArchiveJob(eventID uint) {
	if err := ap.EventRepo.MarkArchiveProcessing(eventID); err != nil {
		log.Printf("Worker: ERROR marking archive processing for event %d: %v", eventID, err)
		return
	}

	key, size, taskErr := ap.buildArchive(eventID)

	var keyPtr *string
	var sizePtr *int64
	if taskErr == nil {
		keyPtr = &key
		sizePtr = &size
	}
	if err := ap.EventRepo.SetArchiveResult(eventID, keyPtr, sizePtr, taskErr); err != nil {
		log.Printf("Worker: ERROR recording archive result for event %d: %v", eventID, err)
	}
	if taskErr != nil {
		log.Printf("Worker: archive build failed for event %d: %v", eventID, taskErr)
	} else {
		log.Printf("Worker: archive ready for event %d at %s (%d bytes)", eventID, key, size)
	}
}

func (ap *ArchiveProcessor) buildArchive(eventID uint) (string, int64, error) {
	ctx := context.Background()

	event, err := ap.EventRepo.GetByID(eventID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to load event: %w", err)
	}

	images, err := ap.ImageRepo.ListByEvent(eventID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to list images: %w", err)
	}
	if len(images) == 0 {
		return "", 0, fmt.Errorf("event has no images to archive")
	}

	guests, err := ap.GuestRepo.ListByEvent(eventID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to list guests: %w", err)
	}
	folders := make(map[uint]string, len(guests))
	for _, guest := range guests {
		folders[guest.ID] = guest.Name
	}

	tmpFile, err := os.CreateTemp("", "event-archive-*.zip")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if err := utils.WriteArchive(ctx, ap.Backend, images, folders, tmpFile); err != nil {
		return "", 0, err
	}

	info, err := tmpFile.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat temp file: %w", err)
	}
	if _, err := tmpFile.Seek(0, 0); err != nil {
		return "", 0, fmt.Errorf("failed to rewind temp file: %w", err)
	}

	key := event.StorageFolderPath + "archive.zip"
	if err := ap.Backend.Put(ctx, key, tmpFile, info.Size(), "application/zip"); err != nil {
		return "", 0, fmt.Errorf("failed to upload archive: %w", err)
	}

	return key, info.Size(), nil
}

// QueueJob queues an archive build for an event if one is not already pending.
func (ap *ArchiveProcessor) QueueJob(eventID uint) {
	ap.Mutex.Lock()
	if ap.Pending[eventID] {
		ap.Mutex.Unlock()
		return
	}
	ap.Pending[eventID] = true
	ap.Mutex.Unlock()

	select {
	case ap.JobQueue <- eventID:
		log.Printf("Queued archive build for event %d", eventID)
	default:
		log.Printf("WARNING: Archive job queue full. Failed to queue event %d", eventID)
		ap.Mutex.Lock()
		delete(ap.Pending, eventID)
		ap.Mutex.Unlock()
	}
}

func (ap *ArchiveProcessor) Stop() {
	log.Println("Stopping archive workers...")
	close(ap.StopChan)
	ap.Wg.Wait()
	log.Println("All archive workers stopped")
}
