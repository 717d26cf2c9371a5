package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateCode returns a short lowercase hex code derived from a fresh UUID.
// Used for event codes and share codes; callers must check uniqueness against
// their store and retry.
func GenerateCode(length int) string {
	code := strings.ReplaceAll(uuid.New().String(), "-", "")
	if length > len(code) {
		length = len(code)
	}
	return code[:length]
}
