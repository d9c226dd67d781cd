package ledger

import (
	"fmt"
	"time"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Candidate is one row about to be imported, reduced to the tuple the
// duplicate heuristic compares.
type Candidate struct {
	Date   time.Time `json:"date"`
	Payee  string    `json:"payee"`
	Amount float64   `json:"amount"`
}

// dupKey normalizes a tuple: calendar day, payee text, amount rounded
// to three decimals.
func dupKey(date time.Time, payee string, amount float64) string {
	return fmt.Sprintf("%s|%s|%s",
		date.Format("2006-01-02"),
		payee,
		decimal.NewFromFloat(amount).Round(3).String())
}

// FindDuplicates reports the candidates that already exist in the store,
// comparing (date, payee, amount rounded to 3 decimals) against rows in
// the candidates' date span. accountID narrows the search when non-zero.
func FindDuplicates(db *gorm.DB, accountID uint, cands []Candidate) ([]Candidate, error) {
	if len(cands) == 0 {
		return nil, nil
	}

	lo, hi := cands[0].Date, cands[0].Date
	for _, c := range cands[1:] {
		if c.Date.Before(lo) {
			lo = c.Date
		}
		if c.Date.After(hi) {
			hi = c.Date
		}
	}

	q := db.Where("date >= ? AND date < ?",
		lo.Truncate(24*time.Hour), hi.AddDate(0, 0, 1))
	if accountID != 0 {
		q = q.Where("account_id = ?", accountID)
	}

	var existing []models.Transaction
	if err := q.Find(&existing).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(existing))
	for i := range existing {
		e := &existing[i]
		seen[dupKey(e.Date, e.Payee, e.Amount)] = true
	}

	var dups []Candidate
	for _, c := range cands {
		if seen[dupKey(c.Date, c.Payee, c.Amount)] {
			dups = append(dups, c)
		}
	}
	return dups, nil
}
