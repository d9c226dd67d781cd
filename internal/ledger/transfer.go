// Package ledger holds the bookkeeping core: double-entry transfers,
// hierarchical category resolution and import duplicate detection.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewTransferKey returns a group identifier unique within the system:
// a time prefix plus a random suffix, never reused.
func NewTransferKey() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// TransferInput describes one money movement between two accounts.
type TransferInput struct {
	FromAccountID uint
	ToAccountID   uint
	Date          time.Time
	Amount        float64  // magnitude leaving the source account
	ToAmount      *float64 // magnitude arriving, defaults to Amount
	Paymode       int      // defaults to internal transfer
	Memo          string
}

// CreateTransfer writes the two linked rows of a transfer atomically:
// the source row carries the negated amount and names the destination
// account as payee, the destination row the mirror of that. On any
// failure the whole operation rolls back, leaving no partial rows.
func CreateTransfer(db *gorm.DB, in TransferInput) (src, dst models.Transaction, err error) {
	if in.FromAccountID == in.ToAccountID {
		return src, dst, util.ValidationErr("source and destination account must differ", "to_account_id")
	}
	if in.Amount == 0 {
		return src, dst, util.ValidationErr("amount must be non-zero", "amount")
	}

	out := math.Abs(in.Amount)
	rcv := out
	if in.ToAmount != nil {
		rcv = math.Abs(*in.ToAmount)
	}
	paymode := in.Paymode
	if paymode == 0 {
		paymode = models.PaymodeInternalTransfer
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var from, to models.Account
		if err := tx.First(&from, in.FromAccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.NotFoundErr("source account not found")
			}
			return err
		}
		if err := tx.First(&to, in.ToAccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.NotFoundErr("destination account not found")
			}
			return err
		}

		key := NewTransferKey()
		src = models.Transaction{
			AccountID:   from.ID,
			Date:        in.Date,
			Payee:       to.Name,
			Amount:      -out,
			Paymode:     paymode,
			Memo:        in.Memo,
			TransferKey: key,
		}
		dst = models.Transaction{
			AccountID:   to.ID,
			Date:        in.Date,
			Payee:       from.Name,
			Amount:      rcv,
			Paymode:     paymode,
			Memo:        in.Memo,
			TransferKey: key,
		}
		if err := tx.Create(&src).Error; err != nil {
			return err
		}
		return tx.Create(&dst).Error
	})
	return src, dst, err
}

// TransferPatch carries the transfer fields a partial update may change;
// nil fields stay untouched on both sides.
type TransferPatch struct {
	Date    *time.Time
	Amount  *float64
	Paymode *int
	Memo    *string
}

// UpdateTransfer edits both sides of a transfer consistently, whichever
// side the id addresses: date, memo and paymode are mirrored verbatim,
// the amount magnitude is applied with each row's existing sign, so the
// rows stay exact negations of each other.
func UpdateTransfer(db *gorm.DB, id uint, patch TransferPatch) (models.Transaction, error) {
	var row models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.NotFoundErr("transaction not found")
			}
			return err
		}
		if !row.IsTransfer() {
			return util.ValidationErr("transaction is not a transfer", "id")
		}

		var sibling models.Transaction
		if err := tx.Where("transfer_key = ? AND id <> ?", row.TransferKey, row.ID).
			First(&sibling).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ConflictErr("transfer sibling row missing")
			}
			return err
		}

		if patch.Date != nil {
			row.Date = *patch.Date
			sibling.Date = *patch.Date
		}
		if patch.Memo != nil {
			row.Memo = *patch.Memo
			sibling.Memo = *patch.Memo
		}
		if patch.Paymode != nil {
			row.Paymode = *patch.Paymode
			sibling.Paymode = *patch.Paymode
		}
		if patch.Amount != nil {
			mag := math.Abs(*patch.Amount)
			if row.Amount < 0 {
				row.Amount, sibling.Amount = -mag, mag
			} else {
				row.Amount, sibling.Amount = mag, -mag
			}
		}

		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		return tx.Save(&sibling).Error
	})
	return row, err
}

// DeleteTransfer removes both rows of the transfer the id belongs to.
func DeleteTransfer(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var row models.Transaction
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.NotFoundErr("transaction not found")
			}
			return err
		}
		if !row.IsTransfer() {
			return util.ValidationErr("transaction is not a transfer", "id")
		}
		return tx.Where("transfer_key = ?", row.TransferKey).
			Delete(&models.Transaction{}).Error
	})
}
