package ledger_test

import (
	"testing"
	"time"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database/dbtest"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/ledger"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDuplicates_MatchesExactTuple(t *testing.T) {
	db := dbtest.Open(t)
	account := models.Account{Name: "Checking", Currency: "EUR"}
	require.NoError(t, db.Create(&account).Error)

	date := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Transaction{
		AccountID: account.ID,
		Date:      date,
		Payee:     "Acme",
		Amount:    12.50,
	}).Error)

	dups, err := ledger.FindDuplicates(db, account.ID, []ledger.Candidate{
		{Date: date, Payee: "Acme", Amount: 12.50},
	})
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, "Acme", dups[0].Payee)

	// a cent off is not a duplicate
	dups, err = ledger.FindDuplicates(db, account.ID, []ledger.Candidate{
		{Date: date, Payee: "Acme", Amount: 12.51},
	})
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestFindDuplicates_RoundsToThreeDecimals(t *testing.T) {
	db := dbtest.Open(t)
	account := models.Account{Name: "Checking", Currency: "EUR"}
	require.NoError(t, db.Create(&account).Error)

	date := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Transaction{
		AccountID: account.ID,
		Date:      date,
		Payee:     "Acme",
		Amount:    12.5001,
	}).Error)

	dups, err := ledger.FindDuplicates(db, account.ID, []ledger.Candidate{
		{Date: date, Payee: "Acme", Amount: 12.5002},
	})
	require.NoError(t, err)
	assert.Len(t, dups, 1)
}

func TestFindDuplicates_ScopedToDateRangeAndAccount(t *testing.T) {
	db := dbtest.Open(t)
	a := models.Account{Name: "A", Currency: "EUR"}
	b := models.Account{Name: "B", Currency: "EUR"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	date := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Transaction{
		AccountID: b.ID,
		Date:      date,
		Payee:     "Acme",
		Amount:    12.50,
	}).Error)

	// same tuple exists, but in another account
	dups, err := ledger.FindDuplicates(db, a.ID, []ledger.Candidate{
		{Date: date, Payee: "Acme", Amount: 12.50},
	})
	require.NoError(t, err)
	assert.Empty(t, dups)

	// unscoped search sees it
	dups, err = ledger.FindDuplicates(db, 0, []ledger.Candidate{
		{Date: date, Payee: "Acme", Amount: 12.50},
	})
	require.NoError(t, err)
	assert.Len(t, dups, 1)
}

func TestFindDuplicates_EmptyCandidates(t *testing.T) {
	db := dbtest.Open(t)
	dups, err := ledger.FindDuplicates(db, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, dups)
}
