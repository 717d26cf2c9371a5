package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jung-kurt/gofpdf"

	"github.com/eventlens/eventlensbackend/models"
	"github.com/eventlens/eventlensbackend/storage"
)

const pdfPageMargin = 40.0

// WriteAlbumPDF renders the given images one per A4 page, each scaled to fit
// inside the page margins, and writes the document to w. Images with
// unsupported formats or missing objects are skipped.
func WriteAlbumPDF(ctx context.Context, backend storage.Backend, images []models.Image, w io.Writer) error {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pageW, pageH := pdf.GetPageSize()
	maxW := pageW - 2*pdfPageMargin
	maxH := pageH - 2*pdfPageMargin

	for _, img := range images {
		imageType := pdfImageType(img.ContentType)
		if imageType == "" {
			log.Printf("pdf: skipping %s, unsupported content type %s", img.FileName, img.ContentType)
			continue
		}

		reader, _, err := backend.Get(ctx, img.StorageKey)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Printf("pdf: skipping missing object %s", img.StorageKey)
				continue
			}
			return fmt.Errorf("failed to read object %s: %w", img.StorageKey, err)
		}

		options := gofpdf.ImageOptions{ImageType: imageType}
		info := pdf.RegisterImageOptionsReader(img.FileName, options, reader)
		reader.Close()
		if pdf.Err() {
			// a corrupt image poisons the whole document otherwise
			log.Printf("pdf: skipping unreadable image %s: %v", img.FileName, pdf.Error())
			pdf.ClearError()
			continue
		}

		scale := maxW / info.Width()
		if maxH/info.Height() < scale {
			scale = maxH / info.Height()
		}
		if scale > 1 {
			scale = 1
		}
		drawW := info.Width() * scale
		drawH := info.Height() * scale

		pdf.AddPage()
		x := (pageW - drawW) / 2
		y := (pageH - drawH) / 2
		pdf.ImageOptions(img.FileName, x, y, drawW, drawH, false, options, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func pdfImageType(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	default:
		return ""
	}
}
