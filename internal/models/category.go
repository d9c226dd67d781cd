package models

import "time"

// Category types.
const (
	CategoryIncome  = "income"
	CategoryExpense = "expense"
	CategoryNeutral = "neutral"
)

// Category represents income/expense category. ParentID builds the
// two-level "Parent:Child" tree used by the CSV conventions.
type Category struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:64;not null"`
	Type      string    `gorm:"size:16;index;not null"` // income / expense / neutral
	ParentID  *uint     `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
