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

func TestCreateCategory_TwoLevelTree(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")

	w := a.do(http.MethodPost, "/api/categories",
		map[string]interface{}{"name": "Food", "type": models.CategoryExpense}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	root := data(t, w)["category"].(map[string]interface{})
	rootID := uint(root["id"].(float64))

	w = a.do(http.MethodPost, "/api/categories",
		map[string]interface{}{"name": "Groceries", "type": models.CategoryExpense, "parent_id": rootID}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	child := data(t, w)["category"].(map[string]interface{})
	childID := uint(child["id"].(float64))

	// a child cannot itself be a parent
	w = a.do(http.MethodPost, "/api/categories",
		map[string]interface{}{"name": "Too deep", "type": models.CategoryExpense, "parent_id": childID}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the listing renders the colon path
	w = a.do(http.MethodGet, "/api/categories", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	items := data(t, w)["items"].([]interface{})
	paths := make(map[string]bool, len(items))
	for _, it := range items {
		paths[it.(map[string]interface{})["path"].(string)] = true
	}
	assert.True(t, paths["Food"])
	assert.True(t, paths["Food:Groceries"])
}

func TestCreateCategory_UnknownParentOrType(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")

	w := a.do(http.MethodPost, "/api/categories",
		map[string]interface{}{"name": "Orphan", "type": models.CategoryExpense, "parent_id": 999}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/categories",
		map[string]interface{}{"name": "Odd", "type": "sideways"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteCategory_DetachesEveryReference(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")
	db := a.store.Get()

	root := models.Category{Name: "Food", Type: models.CategoryExpense}
	require.NoError(t, db.Create(&root).Error)
	child := models.Category{Name: "Groceries", Type: models.CategoryExpense, ParentID: &root.ID}
	require.NoError(t, db.Create(&child).Error)

	account := models.Account{Name: "Checking", Currency: "EUR"}
	require.NoError(t, db.Create(&account).Error)
	txn := models.Transaction{
		AccountID:  account.ID,
		Date:       time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		Payee:      "Acme",
		Amount:     -12.5,
		CategoryID: &root.ID,
	}
	require.NoError(t, db.Create(&txn).Error)
	payee := models.Payee{Name: "Acme", CategoryID: &root.ID}
	require.NoError(t, db.Create(&payee).Error)

	w := a.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", root.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the category row is gone
	var count int64
	require.NoError(t, db.Model(&models.Category{}).Where("id = ?", root.ID).Count(&count).Error)
	assert.Zero(t, count)

	// the child moved to the root level
	var gotChild models.Category
	require.NoError(t, db.First(&gotChild, child.ID).Error)
	assert.Nil(t, gotChild.ParentID)

	// transaction and payee rows keep existing, uncategorized
	var gotTxn models.Transaction
	require.NoError(t, db.First(&gotTxn, txn.ID).Error)
	assert.Nil(t, gotTxn.CategoryID)

	var gotPayee models.Payee
	require.NoError(t, db.First(&gotPayee, payee.ID).Error)
	assert.Nil(t, gotPayee.CategoryID)
}

func TestDeleteCategory_NotFound(t *testing.T) {
	a := newAPI(t)
	token := a.registerAndLogin("alice", "password123")

	w := a.do(http.MethodDelete, "/api/categories/12345", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
