package screen

import (
	"fmt"
	"strings"
)

// Screen decides whether an uploaded file is admitted into the pipeline.
// Check returns (false, reason, nil) for a rejected file; the error return is
// reserved for screening infrastructure failures.
type Screen interface {
	Check(data []byte, contentType string) (bool, string, error)
}

// Reasons reported for rejected files.
const (
	ReasonEmptyFile     = "empty file"
	ReasonNotAnImage    = "unsupported content type"
	ReasonUnsafeContent = "flagged by content screen"
)

// TypeScreen admits non-empty payloads whose declared content type is an
// image. It never inspects pixel data.
type TypeScreen struct{}

func NewTypeScreen() *TypeScreen {
	return &TypeScreen{}
}

func (s *TypeScreen) Check(data []byte, contentType string) (bool, string, error) {
	if len(data) == 0 {
		return false, ReasonEmptyFile, nil
	}
	if !strings.HasPrefix(contentType, "image/") {
		return false, fmt.Sprintf("%s: %s", ReasonNotAnImage, contentType), nil
	}
	return true, "", nil
}
