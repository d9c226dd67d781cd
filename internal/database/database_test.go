package database_test

import (
	"os"
	"testing"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database/dbtest"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplace_SwapsFileAndRefusesStaleHandles(t *testing.T) {
	store := dbtest.OpenStore(t)
	require.NoError(t, store.Get().Create(&models.Account{
		Name: "Before", Currency: "EUR",
	}).Error)

	// donor database with a recognizable row
	donor := dbtest.OpenStore(t)
	require.NoError(t, donor.Get().Create(&models.Account{
		Name: "After", Currency: "EUR",
	}).Error)
	require.NoError(t, donor.Checkpoint())
	payload, err := os.ReadFile(donor.Path())
	require.NoError(t, err)

	staged := store.Path() + ".upload"
	require.NoError(t, os.WriteFile(staged, payload, 0o600))

	stale := store.Get()
	require.NoError(t, store.Replace(staged))

	// the fresh handle sees the donor's data
	var account models.Account
	require.NoError(t, store.Get().First(&account).Error)
	assert.Equal(t, "After", account.Name)

	// the handle from before the swap is refused, it cannot touch the
	// new file
	assert.Error(t, stale.Exec("SELECT 1").Error)
}

func TestCheckpoint_FlushesWALIntoFile(t *testing.T) {
	store := dbtest.OpenStore(t)
	require.NoError(t, store.Get().Create(&models.Account{
		Name: "Checking", Currency: "EUR",
	}).Error)
	require.NoError(t, store.Checkpoint())

	header := make([]byte, 16)
	f, err := os.Open(store.Path())
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "SQLite format 3\x00", string(header))
}
