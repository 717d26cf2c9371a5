package fingerprint

import (
	"fmt"
	"log"
)

// Record pairs a stored image with its encoded fingerprint.
type Record struct {
	ImageID uint
	Encoded string
}

// Store lists the fingerprints already persisted for a duplicate-detection
// scope, in insertion order.
type Store interface {
	ListFingerprints(eventID, guestID uint) ([]Record, error)
}

// Index answers "has this guest already uploaded a near-identical image to
// this event". Matching compares normalized Hamming distance against a fixed
// threshold; corrupt stored fingerprints are skipped rather than failing the
// lookup.
type Index struct {
	store     Store
	threshold float64
}

func NewIndex(store Store, threshold float64) *Index {
	return &Index{store: store, threshold: threshold}
}

// FindDuplicate returns the ID of the first stored image whose fingerprint is
// within the threshold of encoded, or nil when there is no match. An empty
// candidate fingerprint never matches anything.
func (ix *Index) FindDuplicate(eventID, guestID uint, encoded string) (*uint, error) {
	if encoded == "" {
		return nil, nil
	}

	records, err := ix.store.ListFingerprints(eventID, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fingerprints for event %d guest %d: %w", eventID, guestID, err)
	}

	for _, rec := range records {
		if rec.Encoded == "" {
			continue
		}
		dist, err := Distance(encoded, rec.Encoded)
		if err != nil {
			log.Printf("Fingerprint: skipping unreadable hash for image %d: %v", rec.ImageID, err)
			continue
		}
		if dist < ix.threshold {
			id := rec.ImageID
			return &id, nil
		}
	}
	return nil, nil
}
