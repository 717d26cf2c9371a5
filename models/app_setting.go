package models

// AppSetting is a key/value row of runtime-tunable configuration, read by
// policies that fall back to hard-coded defaults when a key is absent or
// unparsable.
type AppSetting struct {
	PropertyKey   string  `json:"property_key" gorm:"primaryKey;size:100"`
	PropertyValue string  `json:"property_value" gorm:"size:500"`
	Description   *string `json:"description,omitempty" gorm:"size:255"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}
