package models

import "time"

// Account is a money account (bank, cash, card...).
// Balance is never stored: it is initial + SUM(amount) over linked transactions.
type Account struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:64;not null"`
	Currency  string    `gorm:"size:8;not null;default:EUR"` // ISO 4217 code
	Initial   float64   `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
