package models

import "time"

// SettingAccessToken is the settings key holding the gateway OAuth bearer token.
const SettingAccessToken = "access_token"

// Setting stores process-wide key/value state that must survive restarts.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"size:1024;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }
