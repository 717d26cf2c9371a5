package utils

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// CaptureMetadata holds the best-effort EXIF fields recorded on an upload.
// Any field can be nil; extraction failure is never an error.
type CaptureMetadata struct {
	CameraMake  *string
	CameraModel *string
	TakenAt     *int64
}

// ExtractCaptureMetadata pulls camera make/model and capture time from EXIF.
// Files without EXIF (or non-JPEG files) yield empty metadata.
func ExtractCaptureMetadata(data []byte) CaptureMetadata {
	var meta CaptureMetadata

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}

	meta.CameraMake = getExifString(x, exif.Make)
	meta.CameraModel = getExifString(x, exif.Model)

	if taken, err := x.DateTime(); err == nil {
		unix := taken.Unix()
		meta.TakenAt = &unix
	}

	return meta
}

func getExifString(x *exif.Exif, field exif.FieldName) *string {
	tag, err := x.Get(field)
	if err != nil {
		return nil
	}
	value, err := tag.StringVal()
	if err != nil {
		return nil
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
