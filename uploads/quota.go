package uploads

import (
	"log"
	"strconv"

	"gorm.io/gorm"

	"github.com/eventlens/eventlensbackend/repository"
)

// Runtime-tunable setting keys read by the upload policies.
const (
	SettingMaxImagesPerBatch = "guest.upload.max.images.per.batch"
	SettingGuestModifyDays   = "guest.modify.days.after.event"
)

// QuotaPolicy resolves per-batch and modification limits from the key/value
// settings store, falling back to defaults when a key is missing or does not
// parse.
type QuotaPolicy struct {
	settings          repository.AppSettingRepositoryInterface
	defaultBatchSize  int
	defaultModifyDays int
}

func NewQuotaPolicy(settings repository.AppSettingRepositoryInterface, defaultBatchSize, defaultModifyDays int) *QuotaPolicy {
	return &QuotaPolicy{
		settings:          settings,
		defaultBatchSize:  defaultBatchSize,
		defaultModifyDays: defaultModifyDays,
	}
}

// MaxBatchSize returns the maximum number of images a guest may send in one
// upload request.
func (q *QuotaPolicy) MaxBatchSize() int {
	return q.intSetting(SettingMaxImagesPerBatch, q.defaultBatchSize)
}

// ModifyDays returns how many days after the event date a guest may still
// delete their own uploads.
func (q *QuotaPolicy) ModifyDays() int {
	return q.intSetting(SettingGuestModifyDays, q.defaultModifyDays)
}

func (q *QuotaPolicy) intSetting(key string, fallback int) int {
	value, err := q.settings.Get(key)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("uploads: failed to read setting %s, using default %d: %v", key, fallback, err)
		}
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		log.Printf("uploads: setting %s has unusable value %q, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}
