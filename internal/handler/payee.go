package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PayeeHandler serves payee CRUD. Payee names are unique; the optional
// category and paymode are defaults applied when recording against the
// payee.
type PayeeHandler struct {
	Store *database.Store
}

func NewPayeeHandler(store *database.Store) *PayeeHandler {
	return &PayeeHandler{Store: store}
}

type payeeResp struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	CategoryID *uint  `json:"category_id"`
	Paymode    *int   `json:"paymode"`
}

func (h *PayeeHandler) ListPayees(c *gin.Context) {
	db := h.Store.Get()

	q := db.Order("name ASC")
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		q = q.Where("name LIKE ?", "%"+s+"%")
	}

	var payees []models.Payee
	if err := q.Find(&payees).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query payees failed")
		return
	}

	items := make([]payeeResp, 0, len(payees))
	for i := range payees {
		p := &payees[i]
		items = append(items, payeeResp{
			ID:         p.ID,
			Name:       p.Name,
			CategoryID: p.CategoryID,
			Paymode:    p.Paymode,
		})
	}

	util.Success(c, util.Response{
		"items": items,
	})
}

type createPayeeReq struct {
	Name       string `json:"name" binding:"required,max=64"`
	CategoryID *uint  `json:"category_id"`
	Paymode    *int   `json:"paymode"`
}

func (h *PayeeHandler) CreatePayee(c *gin.Context) {
	var req createPayeeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body", "name"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		util.Fail(c, util.ValidationErr("payee name is required", "name"))
		return
	}

	db := h.Store.Get()

	if err := h.checkRefs(db, req.CategoryID, req.Paymode); err != nil {
		util.Fail(c, err)
		return
	}

	var count int64
	if err := db.Model(&models.Payee{}).
		Where("LOWER(name) = LOWER(?)", req.Name).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query payees failed")
		return
	}
	if count > 0 {
		util.Fail(c, util.ConflictErr("payee name already exists"))
		return
	}

	payee := models.Payee{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Paymode:    req.Paymode,
	}
	if err := db.Create(&payee).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create payee failed")
		return
	}

	util.Success(c, util.Response{
		"payee": payeeResp{
			ID:         payee.ID,
			Name:       payee.Name,
			CategoryID: payee.CategoryID,
			Paymode:    payee.Paymode,
		},
	})
}

type updatePayeeReq struct {
	Name       *string `json:"name"`
	CategoryID *uint   `json:"category_id"` // 0 clears the default
	Paymode    *int    `json:"paymode"`     // 0 clears the default
}

func (h *PayeeHandler) UpdatePayee(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updatePayeeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body"))
		return
	}

	db := h.Store.Get()

	var payee models.Payee
	if err := db.First(&payee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, util.NotFoundErr("payee not found"))
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query payee failed")
		}
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			util.Fail(c, util.ValidationErr("payee name must not be empty", "name"))
			return
		}
		var count int64
		if err := db.Model(&models.Payee{}).
			Where("LOWER(name) = LOWER(?) AND id <> ?", name, id).
			Count(&count).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query payees failed")
			return
		}
		if count > 0 {
			util.Fail(c, util.ConflictErr("payee name already exists"))
			return
		}
		payee.Name = name
	}
	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			payee.CategoryID = nil
		} else {
			if err := h.checkRefs(db, req.CategoryID, nil); err != nil {
				util.Fail(c, err)
				return
			}
			payee.CategoryID = req.CategoryID
		}
	}
	if req.Paymode != nil {
		if *req.Paymode == 0 {
			payee.Paymode = nil
		} else {
			if err := h.checkRefs(db, nil, req.Paymode); err != nil {
				util.Fail(c, err)
				return
			}
			payee.Paymode = req.Paymode
		}
	}

	// Save skips nil fields; use Select to persist cleared defaults too
	if err := db.Model(&payee).
		Select("Name", "CategoryID", "Paymode").
		Updates(map[string]interface{}{
			"name":        payee.Name,
			"category_id": payee.CategoryID,
			"paymode":     payee.Paymode,
		}).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update payee failed")
		return
	}

	util.Success(c, util.Response{
		"payee": payeeResp{
			ID:         payee.ID,
			Name:       payee.Name,
			CategoryID: payee.CategoryID,
			Paymode:    payee.Paymode,
		},
	})
}

func (h *PayeeHandler) DeletePayee(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	db := h.Store.Get()

	var payee models.Payee
	if err := db.First(&payee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, util.NotFoundErr("payee not found"))
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query payee failed")
		}
		return
	}

	// transactions carry the payee as text, nothing to null out
	if err := db.Delete(&payee).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete payee failed")
		return
	}

	util.Success(c, util.Response{
		"message": "payee deleted",
	})
}

func (h *PayeeHandler) checkRefs(db *gorm.DB, categoryID *uint, paymode *int) error {
	if categoryID != nil {
		var count int64
		if err := db.Model(&models.Category{}).
			Where("id = ?", *categoryID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return util.NotFoundErr("category not found")
		}
	}
	if paymode != nil && !models.ValidPaymode(*paymode) {
		return util.ValidationErr("unknown payment mode", "paymode")
	}
	return nil
}
