package utils

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/facette/natsort"

	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/storage"
)

// WriteArchive streams the given images as a zip to w, entries in natural
// path order. folders optionally maps guest IDs to a per-guest folder name;
// images of unmapped guests land at the archive root. Images whose object has
// gone missing are skipped with a log line; any other storage error aborts
// the archive.
func WriteArchive(ctx context.Context, backend storage.Backend, images []models.Image, folders map[uint]string, w io.Writer) error {
	byName := make(map[string]models.Image, len(images))
	names := make([]string, 0, len(images))
	for _, img := range images {
		entryName := img.FileName
		if folder := folders[img.GuestID]; folder != "" {
			entryName = folder + "/" + img.FileName
		}
		byName[entryName] = img
		names = append(names, entryName)
	}
	natsort.Sort(names)

	zipWriter := zip.NewWriter(w)
	for _, name := range names {
		img := byName[name]

		reader, _, err := backend.Get(ctx, img.StorageKey)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Printf("zipper: skipping missing object %s", img.StorageKey)
				continue
			}
			zipWriter.Close()
			return fmt.Errorf("failed to read object %s: %w", img.StorageKey, err)
		}

		// images are already compressed, deflating them again wastes CPU
		entry, err := zipWriter.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: img.UploadedAt,
		})
		if err != nil {
			reader.Close()
			zipWriter.Close()
			return fmt.Errorf("failed to create zip entry for %s: %w", name, err)
		}

		if _, err := io.Copy(entry, reader); err != nil {
			reader.Close()
			zipWriter.Close()
			return fmt.Errorf("failed to write zip entry for %s: %w", name, err)
		}
		reader.Close()
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}
	return nil
}
