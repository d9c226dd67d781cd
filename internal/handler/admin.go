package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sqliteHeader is the 16-byte magic every SQLite 3 file starts with.
var sqliteHeader = []byte("SQLite format 3\x00")

// AdminHandler serves the administrative surface: whole-database
// download / restore / reset, the settings store and currency rename.
// All routes sit behind AdminRequired.
type AdminHandler struct {
	Store *database.Store
}

func NewAdminHandler(store *database.Store) *AdminHandler {
	return &AdminHandler{Store: store}
}

// DownloadDB streams the database file. The WAL is checkpointed first
// so the file on disk is complete.
func (h *AdminHandler) DownloadDB(c *gin.Context) {
	if err := h.Store.Checkpoint(); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "checkpoint failed")
		return
	}

	filename := fmt.Sprintf("homebook_%s.db", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/octet-stream")
	c.FileAttachment(h.Store.Path(), filename)
}

// RestoreDB replaces the database with an uploaded file. The upload is
// validated by its SQLite header, staged next to the live file, then
// swapped in under the store's exclusive lock.
func (h *AdminHandler) RestoreDB(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		util.Fail(c, util.ValidationErr("database file upload is required", "file"))
		return
	}

	src, err := file.Open()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "read upload failed")
		return
	}
	defer src.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(src, header); err != nil || !bytes.Equal(header, sqliteHeader) {
		util.Fail(c, util.ValidationErr("upload is not a SQLite database", "file"))
		return
	}

	// stage next to the live file so the swap is a same-filesystem rename
	tmpPath := h.Store.Path() + ".upload-" + uuid.NewString()
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "stage upload failed")
		return
	}
	if _, err := tmp.Write(header); err == nil {
		_, err = io.Copy(tmp, src)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "stage upload failed")
		return
	}

	if err := h.Store.Replace(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "restore failed")
		return
	}

	util.Success(c, util.Response{
		"message": "database restored",
	})
}

// ResetDB truncates the bookkeeping tables. Users, sessions and
// settings survive so the admin stays logged in. Irreversible.
func (h *AdminHandler) ResetDB(c *gin.Context) {
	db := h.Store.Get()
	err := db.Transaction(func(tx *gorm.DB) error {
		wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []interface{}{
			&models.Transaction{},
			&models.Payee{},
			&models.Category{},
			&models.Account{},
			&models.ExportLog{},
		} {
			if err := wipe.Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "reset failed")
		return
	}

	util.Success(c, util.Response{
		"message": "database reset",
	})
}

// GetSettings returns every stored setting.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	db := h.Store.Get()

	var settings []models.Setting
	if err := db.Find(&settings).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query settings failed")
		return
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}

	util.Success(c, util.Response{
		"settings": values,
	})
}

// PutSettings upserts the supplied keys. Keys outside the whitelist
// reject the whole request.
func (h *AdminHandler) PutSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
		util.Fail(c, util.ValidationErr("request body must be a key/value object"))
		return
	}

	for key, value := range req {
		if !models.ValidSettingKey(key) {
			util.Fail(c, util.ValidationErr("unknown setting key: "+key, key))
			return
		}
		if key == models.SettingDefaultCurrency && !validCurrency(value) {
			util.Fail(c, util.ValidationErr("unknown currency code", key))
			return
		}
	}

	db := h.Store.Get()
	err := db.Transaction(func(tx *gorm.DB) error {
		for key, value := range req {
			setting := models.Setting{Key: key, Value: value}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&setting).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save settings failed")
		return
	}

	util.Success(c, util.Response{
		"message": "settings saved",
	})
}

type renameCurrencyReq struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// RenameCurrency changes a currency code on every account carrying it,
// plus the default_currency setting, in one transaction.
func (h *AdminHandler) RenameCurrency(c *gin.Context) {
	var req renameCurrencyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body", "from", "to"))
		return
	}

	from := strings.ToUpper(strings.TrimSpace(req.From))
	to := strings.ToUpper(strings.TrimSpace(req.To))
	if !validCurrency(to) {
		util.Fail(c, util.ValidationErr("unknown currency code", "to"))
		return
	}
	if from == to {
		util.Fail(c, util.ValidationErr("from and to must differ", "to"))
		return
	}

	db := h.Store.Get()
	var updated int64
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("currency = ?", from).
			Update("currency", to)
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected

		return tx.Model(&models.Setting{}).
			Where("key = ? AND value = ?", models.SettingDefaultCurrency, from).
			Update("value", to).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "currency rename failed")
		return
	}

	util.Success(c, util.Response{
		"accounts_updated": updated,
	})
}
