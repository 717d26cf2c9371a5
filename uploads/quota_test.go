package uploads

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f *fakeSettings) Get(key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	value, ok := f.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return value, nil
}

func (f *fakeSettings) Set(key, value string) error {
	f.values[key] = value
	return nil
}

func TestMaxBatchSizeFromSettings(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{SettingMaxImagesPerBatch: "30"}}
	quota := NewQuotaPolicy(settings, 20, 1)

	assert.Equal(t, 30, quota.MaxBatchSize())
}

func TestMaxBatchSizeDefaultWhenMissing(t *testing.T) {
	quota := NewQuotaPolicy(&fakeSettings{values: map[string]string{}}, 20, 1)
	assert.Equal(t, 20, quota.MaxBatchSize())
}

func TestMaxBatchSizeDefaultWhenUnparsable(t *testing.T) {
	for _, bad := range []string{"thirty", "", "-5", "0"} {
		settings := &fakeSettings{values: map[string]string{SettingMaxImagesPerBatch: bad}}
		quota := NewQuotaPolicy(settings, 20, 1)
		assert.Equal(t, 20, quota.MaxBatchSize(), "value %q should fall back", bad)
	}
}

func TestMaxBatchSizeDefaultOnStoreError(t *testing.T) {
	quota := NewQuotaPolicy(&fakeSettings{err: errors.New("db down")}, 20, 1)
	assert.Equal(t, 20, quota.MaxBatchSize())
}

func TestModifyDays(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{SettingGuestModifyDays: "7"}}
	quota := NewQuotaPolicy(settings, 20, 1)
	assert.Equal(t, 7, quota.ModifyDays())

	quota = NewQuotaPolicy(&fakeSettings{values: map[string]string{}}, 20, 1)
	assert.Equal(t, 1, quota.ModifyDays())
}
