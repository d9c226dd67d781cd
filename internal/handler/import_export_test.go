package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importCSV = "date;paymode;info;payee;memo;amount;category;tags\r\n" +
	"05-01-2024;3;;Acme;weekly groceries;-12,50;Food:Groceries;\r\n" +
	"10-01-2024;1;;Employer;january pay;2500,00;Salary;\r\n" +
	"not-a-date;0;;Broken;;1,00;;\r\n"

func seedAccount(t *testing.T, a *api) models.Account {
	t.Helper()
	account := models.Account{Name: "Checking", Currency: "EUR"}
	require.NoError(t, a.store.Get().Create(&account).Error)
	return account
}

func TestImportTransactions_ResolvesCategoriesAndSkipsBadLines(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")
	account := seedAccount(t, a)

	w := a.do(http.MethodPost,
		fmt.Sprintf("/api/import/transactions?account_id=%d", account.ID),
		importCSV, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	d := data(t, w)
	assert.EqualValues(t, 2, d["imported"])
	assert.EqualValues(t, 1, d["skipped"])
	assert.EqualValues(t, 0, d["duplicates"])

	db := a.store.Get()
	var txns []models.Transaction
	require.NoError(t, db.Order("date ASC").Find(&txns).Error)
	require.Len(t, txns, 2)

	assert.Equal(t, "Acme", txns[0].Payee)
	assert.InDelta(t, -12.5, txns[0].Amount, 1e-9)
	require.NotNil(t, txns[0].CategoryID)

	// the colon path materialized as a parent/child pair
	var leaf models.Category
	require.NoError(t, db.First(&leaf, *txns[0].CategoryID).Error)
	assert.Equal(t, "Groceries", leaf.Name)
	require.NotNil(t, leaf.ParentID)

	// income row got an income category
	require.NotNil(t, txns[1].CategoryID)
	var salary models.Category
	require.NoError(t, db.First(&salary, *txns[1].CategoryID).Error)
	assert.Equal(t, models.CategoryIncome, salary.Type)
}

func TestImportTransactions_SkipDuplicatesOnReimport(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")
	account := seedAccount(t, a)

	path := fmt.Sprintf("/api/import/transactions?account_id=%d&skip_duplicates=true", account.ID)

	w := a.do(http.MethodPost, path, importCSV, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, data(t, w)["imported"])

	// the same file again: everything is already there
	w = a.do(http.MethodPost, path, importCSV, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := data(t, w)
	assert.EqualValues(t, 0, d["imported"])
	assert.EqualValues(t, 2, d["duplicates"])

	var count int64
	require.NoError(t, a.store.Get().Model(&models.Transaction{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestImportTransactions_RequiresAccount(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")

	w := a.do(http.MethodPost, "/api/import/transactions", importCSV, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/import/transactions?account_id=999", importCSV, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckDuplicates_ExactTupleOnly(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")
	account := seedAccount(t, a)

	require.NoError(t, a.store.Get().Create(&models.Transaction{
		AccountID: account.ID,
		Date:      time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		Payee:     "Acme",
		Amount:    12.50,
	}).Error)

	body := map[string]interface{}{
		"account_id": account.ID,
		"candidates": []map[string]interface{}{
			{"date": "2024-01-05", "payee": "Acme", "amount": 12.50},
			{"date": "2024-01-05", "payee": "Acme", "amount": 12.51},
		},
	}
	w := a.do(http.MethodPost, "/api/import/duplicates", body, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	dups := data(t, w)["duplicates"].([]interface{})
	require.Len(t, dups, 1)
	dup := dups[0].(map[string]interface{})
	assert.Equal(t, "Acme", dup["payee"])
	assert.InDelta(t, 12.50, dup["amount"].(float64), 1e-9)
}

func TestImportPayees_SkipsExistingNames(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")
	db := a.store.Get()

	require.NoError(t, db.Create(&models.Payee{Name: "Acme"}).Error)

	payeeCSV := "name;category;paymode\n" +
		"ACME;Food:Groceries;3\n" + // exists, case-insensitive
		"Landlord;Housing;4\n" +
		";Nameless;\n"

	w := a.do(http.MethodPost, "/api/import/payees", payeeCSV, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	d := data(t, w)
	assert.EqualValues(t, 1, d["imported"])
	assert.EqualValues(t, 1, d["existing"])
	assert.EqualValues(t, 1, d["skipped"])

	// the existing payee kept its state, no defaults were grafted on
	var acme models.Payee
	require.NoError(t, db.First(&acme, "name = ?", "Acme").Error)
	assert.Nil(t, acme.CategoryID)
	assert.Nil(t, acme.Paymode)

	var landlord models.Payee
	require.NoError(t, db.First(&landlord, "name = ?", "Landlord").Error)
	require.NotNil(t, landlord.CategoryID)
	require.NotNil(t, landlord.Paymode)
	assert.Equal(t, models.PaymodeBankTransfer, *landlord.Paymode)
}

func TestImportCategories_ChildAttachesToLastRoot(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")
	db := a.store.Get()

	categoryCSV := "1;-;Food\n" +
		"2;-;Groceries\n" +
		"2;-;Restaurants\n" +
		"1;+;Salary\n" +
		"2;+;Bonus\n"

	w := a.do(http.MethodPost, "/api/import/categories", categoryCSV, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 5, data(t, w)["imported"])

	var food, salary models.Category
	require.NoError(t, db.First(&food, "name = ?", "Food").Error)
	require.NoError(t, db.First(&salary, "name = ?", "Salary").Error)

	// each child hangs under the root announced just above it
	for name, wantParent := range map[string]uint{
		"Groceries":   food.ID,
		"Restaurants": food.ID,
		"Bonus":       salary.ID,
	} {
		var child models.Category
		require.NoError(t, db.First(&child, "name = ?", name).Error)
		require.NotNil(t, child.ParentID, name)
		assert.Equal(t, wantParent, *child.ParentID, name)
	}
	assert.Equal(t, models.CategoryIncome, salary.Type)

	// re-import creates nothing new
	w = a.do(http.MethodPost, "/api/import/categories", categoryCSV, token)
	require.Equal(t, http.StatusOK, w.Code)
	d := data(t, w)
	assert.EqualValues(t, 0, d["imported"])
	assert.EqualValues(t, 5, d["existing"])
}

func TestImportCategories_OrphanChildIsSkipped(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")

	// a level-2 row with no level-1 above it has nothing to attach to
	w := a.do(http.MethodPost, "/api/import/categories", "2;-;Orphan\n1;-;Food\n", token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	d := data(t, w)
	assert.EqualValues(t, 1, d["imported"])
	assert.EqualValues(t, 1, d["skipped"])

	var count int64
	require.NoError(t, a.store.Get().Model(&models.Category{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestExportTransactionsCSV_WritesAuditLog(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")
	account := seedAccount(t, a)
	db := a.store.Get()

	for day := 1; day <= 3; day++ {
		require.NoError(t, db.Create(&models.Transaction{
			AccountID: account.ID,
			Date:      time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC),
			Payee:     "Acme",
			Amount:    -1,
		}).Error)
	}

	w := a.do(http.MethodGet, "/api/export/transactions.csv", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "01-03-2024;0;;Acme;;-1,00;;")

	var logRow models.ExportLog
	require.NoError(t, db.First(&logRow).Error)
	assert.Equal(t, 3, logRow.Rows)
	assert.Equal(t, w.Body.String(), logRow.Payload)

	// the log listing omits the payload
	w = a.do(http.MethodGet, "/api/export/logs", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	items := data(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.EqualValues(t, 3, item["rows"])
	_, hasPayload := item["payload"]
	assert.False(t, hasPayload)
}
