package models

import "time"

// Setting is a key/value pair from a fixed whitelist of keys.
type Setting struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"size:255"`
	UpdatedAt time.Time
}

// Whitelisted setting keys.
const (
	SettingAllowRegistration = "allow_registration"
	SettingDefaultCurrency   = "default_currency"
	SettingDateFormat        = "date_format"
	SettingDecimalSeparator  = "decimal_separator"
	SettingAppTitle          = "app_title"
)

var settingKeys = map[string]bool{
	SettingAllowRegistration: true,
	SettingDefaultCurrency:   true,
	SettingDateFormat:        true,
	SettingDecimalSeparator:  true,
	SettingAppTitle:          true,
}

// ValidSettingKey reports whether key is accepted by the settings store.
func ValidSettingKey(key string) bool {
	return settingKeys[key]
}
