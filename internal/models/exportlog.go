package models

import "time"

// ExportLog is an append-only audit trail of generated CSV exports,
// payload included so past exports can be re-downloaded.
type ExportLog struct {
	ID        uint   `gorm:"primaryKey"`
	Filename  string `gorm:"size:128;not null"`
	Rows      int    `gorm:"not null"`
	Payload   string `gorm:"type:text"`
	CreatedAt time.Time
}
