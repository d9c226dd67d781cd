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

// CategoryHandler serves the two-level category tree.
type CategoryHandler struct {
	Store *database.Store
}

func NewCategoryHandler(store *database.Store) *CategoryHandler {
	return &CategoryHandler{Store: store}
}

type categoryResp struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID *uint  `json:"parent_id"`
	Path     string `json:"path"` // "Parent:Child" or bare name
}

func validCategoryType(t string) bool {
	switch t {
	case models.CategoryIncome, models.CategoryExpense, models.CategoryNeutral:
		return true
	}
	return false
}

// ListCategories returns all categories, optionally filtered by type.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	db := h.Store.Get()

	q := db.Order("name ASC")
	if t := c.Query("type"); t != "" {
		if !validCategoryType(t) {
			util.Fail(c, util.ValidationErr("unknown category type", "type"))
			return
		}
		q = q.Where("type = ?", t)
	}

	var cats []models.Category
	if err := q.Find(&cats).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query categories failed")
		return
	}

	byID := make(map[uint]*models.Category, len(cats))
	for i := range cats {
		byID[cats[i].ID] = &cats[i]
	}

	items := make([]categoryResp, 0, len(cats))
	for i := range cats {
		cat := &cats[i]
		path := cat.Name
		if cat.ParentID != nil {
			if parent, ok := byID[*cat.ParentID]; ok {
				path = parent.Name + ":" + cat.Name
			}
		}
		items = append(items, categoryResp{
			ID:       cat.ID,
			Name:     cat.Name,
			Type:     cat.Type,
			ParentID: cat.ParentID,
			Path:     path,
		})
	}

	util.Success(c, util.Response{
		"items": items,
	})
}

type createCategoryReq struct {
	Name     string `json:"name" binding:"required,max=64"`
	Type     string `json:"type" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req createCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body", "name", "type"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		util.Fail(c, util.ValidationErr("category name is required", "name"))
		return
	}
	if !validCategoryType(req.Type) {
		util.Fail(c, util.ValidationErr("type must be income, expense or neutral", "type"))
		return
	}

	db := h.Store.Get()

	if req.ParentID != nil {
		var parent models.Category
		if err := db.First(&parent, *req.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Fail(c, util.NotFoundErr("parent category not found"))
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query category failed")
			}
			return
		}
		// the tree is two levels deep, a child cannot be a parent
		if parent.ParentID != nil {
			util.Fail(c, util.ValidationErr("parent must be a root category", "parent_id"))
			return
		}
	}

	cat := models.Category{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
	}
	if err := db.Create(&cat).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create category failed")
		return
	}

	util.Success(c, util.Response{
		"category": categoryResp{
			ID:       cat.ID,
			Name:     cat.Name,
			Type:     cat.Type,
			ParentID: cat.ParentID,
			Path:     cat.Name,
		},
	})
}

type updateCategoryReq struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body"))
		return
	}

	db := h.Store.Get()

	var cat models.Category
	if err := db.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, util.NotFoundErr("category not found"))
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query category failed")
		}
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			util.Fail(c, util.ValidationErr("category name must not be empty", "name"))
			return
		}
		cat.Name = name
	}
	if req.Type != nil {
		if !validCategoryType(*req.Type) {
			util.Fail(c, util.ValidationErr("type must be income, expense or neutral", "type"))
			return
		}
		cat.Type = *req.Type
	}

	if err := db.Save(&cat).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update category failed")
		return
	}

	util.Success(c, util.Response{
		"category": gin.H{
			"id":        cat.ID,
			"name":      cat.Name,
			"type":      cat.Type,
			"parent_id": cat.ParentID,
		},
	})
}

// DeleteCategory removes a category: children are reparented to root,
// transactions and payees referencing it get a null category, all in
// one transaction so no row ever points at a missing category.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	db := h.Store.Get()
	err := db.Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.NotFoundErr("category not found")
			}
			return err
		}

		if err := tx.Model(&models.Category{}).
			Where("parent_id = ?", id).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Payee{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&cat).Error
	})
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, util.Response{
		"message": "category deleted",
	})
}
