package models

import "time"

// Transaction is a single ledger row. Amount is signed: negative for
// expenses, positive for income. TransferKey links exactly two rows that
// together form one transfer between accounts; "" for plain transactions.
type Transaction struct {
	ID          uint      `gorm:"primaryKey"`
	AccountID   uint      `gorm:"index;not null"`
	Date        time.Time `gorm:"index;not null"` // day precision
	Payee       string    `gorm:"size:128"`
	Amount      float64   `gorm:"not null"`
	CategoryID  *uint     `gorm:"index"`
	Paymode     int       `gorm:"not null;default:0"`
	Memo        string    `gorm:"size:255"`
	TransferKey string    `gorm:"size:64;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsTransfer reports whether the row is one side of a transfer pair.
func (t *Transaction) IsTransfer() bool {
	return t.TransferKey != ""
}
