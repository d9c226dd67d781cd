package models

import "time"

// Payee is a named counterparty with optional defaults applied when
// recording a transaction against it.
type Payee struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"size:64;uniqueIndex;not null"`
	CategoryID *uint  `gorm:"index"`
	Paymode    *int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
