package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/ledger"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionHandler serves the ledger rows, including the typed
// creation path (expense / income / transfer) and transfer-aware edits.
type TransactionHandler struct {
	Store    *database.Store
	PageSize int
}

func NewTransactionHandler(store *database.Store, pageSize int) *TransactionHandler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &TransactionHandler{Store: store, PageSize: pageSize}
}

type transactionResp struct {
	ID          uint    `json:"id"`
	AccountID   uint    `json:"account_id"`
	Date        string  `json:"date"`
	Payee       string  `json:"payee"`
	Amount      float64 `json:"amount"`
	CategoryID  *uint   `json:"category_id"`
	Paymode     int     `json:"paymode"`
	Memo        string  `json:"memo"`
	TransferKey string  `json:"transfer_key,omitempty"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Date:        t.Date.Format("2006-01-02"),
		Payee:       t.Payee,
		Amount:      t.Amount,
		CategoryID:  t.CategoryID,
		Paymode:     t.Paymode,
		Memo:        t.Memo,
		TransferKey: t.TransferKey,
	}
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

// ListTransactions supports account, date range, category, paymode and
// free-text filters plus paging, in the style of the list endpoints.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	db := h.Store.Get()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if size <= 0 || size > 500 {
		size = h.PageSize
	}
	offset := (page - 1) * size

	base := db.Model(&models.Transaction{})

	if v := c.Query("account_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			util.Fail(c, util.ValidationErr("invalid account_id", "account_id"))
			return
		}
		base = base.Where("account_id = ?", id)
	}
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			util.Fail(c, util.ValidationErr("invalid category_id", "category_id"))
			return
		}
		base = base.Where("category_id = ?", id)
	}
	if v := c.Query("paymode"); v != "" {
		code, err := strconv.Atoi(v)
		if err != nil || !models.ValidPaymode(code) {
			util.Fail(c, util.ValidationErr("invalid paymode", "paymode"))
			return
		}
		base = base.Where("paymode = ?", code)
	}
	if v := c.Query("start"); v != "" {
		start, err := parseDay(v)
		if err != nil {
			util.Fail(c, util.ValidationErr("start must be YYYY-MM-DD", "start"))
			return
		}
		base = base.Where("date >= ?", start)
	}
	if v := c.Query("end"); v != "" {
		end, err := parseDay(v)
		if err != nil {
			util.Fail(c, util.ValidationErr("end must be YYYY-MM-DD", "end"))
			return
		}
		// end day is inclusive
		base = base.Where("date < ?", end.AddDate(0, 0, 1))
	}
	if v := strings.TrimSpace(c.Query("search")); v != "" {
		like := "%" + v + "%"
		base = base.Where("payee LIKE ? OR memo LIKE ?", like, like)
	}

	orderBy := "date DESC, id DESC"
	switch c.DefaultQuery("sort", "date_desc") {
	case "date_asc":
		orderBy = "date ASC, id ASC"
	case "amount_desc":
		orderBy = "amount DESC, id DESC"
	case "amount_asc":
		orderBy = "amount ASC, id ASC"
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transactions failed")
		return
	}

	var rows []models.Transaction
	if err := base.Session(&gorm.Session{}).
		Order(orderBy).
		Limit(size).
		Offset(offset).
		Find(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transactions failed")
		return
	}

	items := make([]transactionResp, 0, len(rows))
	for i := range rows {
		items = append(items, toTransactionResp(&rows[i]))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// createTransactionReq is the typed creation path. Type decides the
// amount sign; "transfer" additionally needs to_account_id and routes
// through the transfer writer.
type createTransactionReq struct {
	Type        string   `json:"type" binding:"required,oneof=expense income transfer"`
	AccountID   uint     `json:"account_id" binding:"required"`
	ToAccountID uint     `json:"to_account_id"`
	Date        string   `json:"date" binding:"required"`
	Payee       string   `json:"payee" binding:"max=128"`
	Amount      float64  `json:"amount" binding:"required"`
	ToAmount    *float64 `json:"to_amount"`
	CategoryID  *uint    `json:"category_id"`
	Paymode     *int     `json:"paymode"`
	Memo        string   `json:"memo" binding:"max=255"`
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body", "type", "account_id", "date", "amount"))
		return
	}

	date, err := parseDay(req.Date)
	if err != nil {
		util.Fail(c, util.ValidationErr("date must be YYYY-MM-DD", "date"))
		return
	}
	if req.Paymode != nil && !models.ValidPaymode(*req.Paymode) {
		util.Fail(c, util.ValidationErr("unknown payment mode", "paymode"))
		return
	}

	db := h.Store.Get()

	if req.Type == "transfer" {
		if req.ToAccountID == 0 {
			util.Fail(c, util.ValidationErr("to_account_id is required for transfers", "to_account_id"))
			return
		}
		paymode := 0
		if req.Paymode != nil {
			paymode = *req.Paymode
		}
		src, dst, err := ledger.CreateTransfer(db, ledger.TransferInput{
			FromAccountID: req.AccountID,
			ToAccountID:   req.ToAccountID,
			Date:          date,
			Amount:        req.Amount,
			ToAmount:      req.ToAmount,
			Paymode:       paymode,
			Memo:          req.Memo,
		})
		if err != nil {
			util.Fail(c, err)
			return
		}
		util.Success(c, util.Response{
			"source":      toTransactionResp(&src),
			"destination": toTransactionResp(&dst),
		})
		return
	}

	var account models.Account
	if err := db.First(&account, req.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, util.NotFoundErr("account not found"))
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query account failed")
		}
		return
	}

	amount := math.Abs(req.Amount)
	if req.Type == "expense" {
		amount = -amount
	}
	if amount == 0 {
		util.Fail(c, util.ValidationErr("amount must be non-zero", "amount"))
		return
	}

	row := models.Transaction{
		AccountID:  account.ID,
		Date:       date,
		Payee:      strings.TrimSpace(req.Payee),
		Amount:     amount,
		CategoryID: req.CategoryID,
		Memo:       req.Memo,
	}
	if req.Paymode != nil {
		row.Paymode = *req.Paymode
	}

	// payee defaults fill the gaps the request left
	if row.Payee != "" && (row.CategoryID == nil || req.Paymode == nil) {
		var payee models.Payee
		if err := db.Where("LOWER(name) = LOWER(?)", row.Payee).
			First(&payee).Error; err == nil {
			if row.CategoryID == nil {
				row.CategoryID = payee.CategoryID
			}
			if req.Paymode == nil && payee.Paymode != nil {
				row.Paymode = *payee.Paymode
			}
		}
	}

	if row.CategoryID != nil {
		var count int64
		if err := db.Model(&models.Category{}).
			Where("id = ?", *row.CategoryID).
			Count(&count).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query category failed")
			return
		}
		if count == 0 {
			util.Fail(c, util.NotFoundErr("category not found"))
			return
		}
	}

	if err := db.Create(&row).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create transaction failed")
		return
	}

	util.Success(c, util.Response{
		"transaction": toTransactionResp(&row),
	})
}

// updateTransactionReq: only supplied fields change. category_id 0
// clears the category. Transfer rows only accept date, amount, paymode
// and memo; both sides are updated together.
type updateTransactionReq struct {
	Date       *string  `json:"date"`
	Payee      *string  `json:"payee"`
	Amount     *float64 `json:"amount"`
	CategoryID *uint    `json:"category_id"`
	Paymode    *int     `json:"paymode"`
	Memo       *string  `json:"memo"`
}

func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body"))
		return
	}

	var date *time.Time
	if req.Date != nil {
		d, err := parseDay(*req.Date)
		if err != nil {
			util.Fail(c, util.ValidationErr("date must be YYYY-MM-DD", "date"))
			return
		}
		date = &d
	}
	if req.Paymode != nil && !models.ValidPaymode(*req.Paymode) {
		util.Fail(c, util.ValidationErr("unknown payment mode", "paymode"))
		return
	}

	db := h.Store.Get()

	var row models.Transaction
	if err := db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, util.NotFoundErr("transaction not found"))
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transaction failed")
		}
		return
	}

	if row.IsTransfer() {
		if req.Payee != nil || req.CategoryID != nil {
			util.Fail(c, util.ValidationErr("payee and category cannot be set on a transfer", "payee", "category_id"))
			return
		}
		updated, err := ledger.UpdateTransfer(db, id, ledger.TransferPatch{
			Date:    date,
			Amount:  req.Amount,
			Paymode: req.Paymode,
			Memo:    req.Memo,
		})
		if err != nil {
			util.Fail(c, err)
			return
		}
		util.Success(c, util.Response{
			"transaction": toTransactionResp(&updated),
		})
		return
	}

	if date != nil {
		row.Date = *date
	}
	if req.Payee != nil {
		row.Payee = strings.TrimSpace(*req.Payee)
	}
	if req.Amount != nil {
		// plain rows store the amount as sent; only transfers mirror
		// a magnitude onto a fixed direction
		if *req.Amount == 0 {
			util.Fail(c, util.ValidationErr("amount must be non-zero", "amount"))
			return
		}
		row.Amount = *req.Amount
	}
	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			row.CategoryID = nil
		} else {
			var count int64
			if err := db.Model(&models.Category{}).
				Where("id = ?", *req.CategoryID).
				Count(&count).Error; err != nil {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query category failed")
				return
			}
			if count == 0 {
				util.Fail(c, util.NotFoundErr("category not found"))
				return
			}
			row.CategoryID = req.CategoryID
		}
	}
	if req.Paymode != nil {
		row.Paymode = *req.Paymode
	}
	if req.Memo != nil {
		row.Memo = *req.Memo
	}

	if err := db.Model(&row).
		Select("Date", "Payee", "Amount", "CategoryID", "Paymode", "Memo").
		Updates(map[string]interface{}{
			"date":        row.Date,
			"payee":       row.Payee,
			"amount":      row.Amount,
			"category_id": row.CategoryID,
			"paymode":     row.Paymode,
			"memo":        row.Memo,
		}).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update transaction failed")
		return
	}

	util.Success(c, util.Response{
		"transaction": toTransactionResp(&row),
	})
}

// DeleteTransaction removes a row; for transfers both sides go together.
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	db := h.Store.Get()

	var row models.Transaction
	if err := db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, util.NotFoundErr("transaction not found"))
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query transaction failed")
		}
		return
	}

	if row.IsTransfer() {
		if err := ledger.DeleteTransfer(db, id); err != nil {
			util.Fail(c, err)
			return
		}
	} else if err := db.Delete(&row).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete transaction failed")
		return
	}

	util.Success(c, util.Response{
		"message": "transaction deleted",
	})
}

// ListPaymodes returns the fixed payment mode lookup table.
func ListPaymodes(c *gin.Context) {
	type paymodeResp struct {
		Code int    `json:"code"`
		Name string `json:"name"`
	}
	table := models.Paymodes()
	items := make([]paymodeResp, 0, len(table))
	for code := 0; code <= models.PaymodeFIFee; code++ {
		if name, ok := table[code]; ok {
			items = append(items, paymodeResp{Code: code, Name: name})
		}
	}
	util.Success(c, util.Response{
		"items": items,
	})
}
