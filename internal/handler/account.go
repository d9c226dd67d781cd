package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/util"

	"github.com/Rhymond/go-money"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AccountHandler serves account CRUD. Balances are computed, never
// stored: initial + SUM(amount) over linked transactions.
type AccountHandler struct {
	Store           *database.Store
	DefaultCurrency string
}

func NewAccountHandler(store *database.Store, defaultCurrency string) *AccountHandler {
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &AccountHandler{Store: store, DefaultCurrency: defaultCurrency}
}

type accountResp struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Initial  float64 `json:"initial"`
	Balance  float64 `json:"balance"`
}

// validCurrency checks the code against the ISO 4217 table.
func validCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}

// ListAccounts returns all accounts with computed balances.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	db := h.Store.Get()

	var accounts []models.Account
	if err := db.Order("name ASC").Find(&accounts).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query accounts failed")
		return
	}

	// one aggregate query instead of one SUM per account
	type sumRow struct {
		AccountID uint
		Total     float64
	}
	var sums []sumRow
	if err := db.Model(&models.Transaction{}).
		Select("account_id, SUM(amount) AS total").
		Group("account_id").
		Scan(&sums).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "sum transactions failed")
		return
	}
	totals := make(map[uint]float64, len(sums))
	for _, s := range sums {
		totals[s.AccountID] = s.Total
	}

	items := make([]accountResp, 0, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		items = append(items, accountResp{
			ID:       a.ID,
			Name:     a.Name,
			Currency: a.Currency,
			Initial:  a.Initial,
			Balance:  a.Initial + totals[a.ID],
		})
	}

	util.Success(c, util.Response{
		"items": items,
	})
}

type createAccountReq struct {
	Name     string  `json:"name" binding:"required,max=64"`
	Currency string  `json:"currency" binding:"max=8"`
	Initial  float64 `json:"initial"`
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req createAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body", "name"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		util.Fail(c, util.ValidationErr("account name is required", "name"))
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = h.DefaultCurrency
	}
	if !validCurrency(currency) {
		util.Fail(c, util.ValidationErr("unknown currency code", "currency"))
		return
	}

	account := models.Account{
		Name:     req.Name,
		Currency: currency,
		Initial:  req.Initial,
	}
	if err := h.Store.Get().Create(&account).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create account failed")
		return
	}

	util.Success(c, util.Response{
		"account": accountResp{
			ID:       account.ID,
			Name:     account.Name,
			Currency: account.Currency,
			Initial:  account.Initial,
			Balance:  account.Initial,
		},
	})
}

// updateAccountReq: only supplied fields change. Currency stays
// immutable here; the admin currency rename is the only way to change it.
type updateAccountReq struct {
	Name    *string  `json:"name"`
	Initial *float64 `json:"initial"`
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body"))
		return
	}

	db := h.Store.Get()

	var account models.Account
	if err := db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, util.NotFoundErr("account not found"))
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query account failed")
		}
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			util.Fail(c, util.ValidationErr("account name must not be empty", "name"))
			return
		}
		account.Name = name
	}
	if req.Initial != nil {
		account.Initial = *req.Initial
	}

	if err := db.Save(&account).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update account failed")
		return
	}

	util.Success(c, util.Response{
		"account": gin.H{
			"id":       account.ID,
			"name":     account.Name,
			"currency": account.Currency,
			"initial":  account.Initial,
		},
	})
}

// DeleteAccount is a hard delete: the account row and its transactions
// go in one transaction, including transfer siblings in other accounts.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	db := h.Store.Get()
	err := db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.NotFoundErr("account not found")
			}
			return err
		}

		// transfer siblings living in other accounts would dangle
		var keys []string
		if err := tx.Model(&models.Transaction{}).
			Where("account_id = ? AND transfer_key <> ''", id).
			Pluck("transfer_key", &keys).Error; err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := tx.Where("transfer_key IN ?", keys).
				Delete(&models.Transaction{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("account_id = ?", id).
			Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&account).Error
	})
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, util.Response{
		"message": "account deleted",
	})
}

// pathID parses the :id path parameter, writing the error response
// itself when invalid.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Fail(c, util.ValidationErr("invalid id", "id"))
		return 0, false
	}
	return uint(id), true
}
