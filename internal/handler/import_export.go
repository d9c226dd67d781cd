package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/hbcsv"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/ledger"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportExportHandler serves the CSV/XLSX surface: per-entity exports,
// import with on-the-fly category resolution and optional duplicate
// suppression, a decode-only preview, and the export audit log.
type ImportExportHandler struct {
	Store *database.Store
}

func NewImportExportHandler(store *database.Store) *ImportExportHandler {
	return &ImportExportHandler{Store: store}
}

// csvOptions reads the formatting variants off the query string.
func csvOptions(c *gin.Context) (hbcsv.Options, error) {
	opts := hbcsv.DefaultOptions()
	order, err := hbcsv.ParseDateOrder(c.Query("date_order"))
	if err != nil {
		return opts, util.ValidationErr("date_order must be dmy, mdy or ymd", "date_order")
	}
	opts.DateOrder = order
	switch strings.ToLower(c.DefaultQuery("decimal", "comma")) {
	case "comma":
		opts.DecimalComma = true
	case "period", "point":
		opts.DecimalComma = false
	default:
		return opts, util.ValidationErr("decimal must be comma or period", "decimal")
	}
	return opts, nil
}

// categoryPaths returns id -> "Parent:Child" for every category.
func categoryPaths(db *gorm.DB) (map[uint]string, error) {
	var cats []models.Category
	if err := db.Find(&cats).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(cats))
	for i := range cats {
		names[cats[i].ID] = cats[i].Name
	}
	paths := make(map[uint]string, len(cats))
	for i := range cats {
		cat := &cats[i]
		if cat.ParentID != nil {
			paths[cat.ID] = names[*cat.ParentID] + ":" + cat.Name
		} else {
			paths[cat.ID] = cat.Name
		}
	}
	return paths, nil
}

// exportRows loads transactions (optionally one account, a date span)
// as codec rows.
func (h *ImportExportHandler) exportRows(c *gin.Context, db *gorm.DB) ([]hbcsv.Row, error) {
	q := db.Order("date ASC, id ASC")
	if v := c.Query("account_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return nil, util.ValidationErr("invalid account_id", "account_id")
		}
		q = q.Where("account_id = ?", id)
	}
	if v := c.Query("start"); v != "" {
		start, err := parseDay(v)
		if err != nil {
			return nil, util.ValidationErr("start must be YYYY-MM-DD", "start")
		}
		q = q.Where("date >= ?", start)
	}
	if v := c.Query("end"); v != "" {
		end, err := parseDay(v)
		if err != nil {
			return nil, util.ValidationErr("end must be YYYY-MM-DD", "end")
		}
		q = q.Where("date < ?", end.AddDate(0, 0, 1))
	}

	var txns []models.Transaction
	if err := q.Find(&txns).Error; err != nil {
		return nil, err
	}
	paths, err := categoryPaths(db)
	if err != nil {
		return nil, err
	}

	rows := make([]hbcsv.Row, 0, len(txns))
	for i := range txns {
		t := &txns[i]
		category := ""
		if t.CategoryID != nil {
			category = paths[*t.CategoryID]
		}
		rows = append(rows, hbcsv.Row{
			Date:     t.Date,
			Paymode:  t.Paymode,
			Payee:    t.Payee,
			Memo:     t.Memo,
			Amount:   t.Amount,
			Category: category,
		})
	}
	return rows, nil
}

// ExportTransactionsCSV streams the eight-column CSV and appends an
// ExportLog row carrying the full payload.
func (h *ImportExportHandler) ExportTransactionsCSV(c *gin.Context) {
	opts, err := csvOptions(c)
	if err != nil {
		util.Fail(c, err)
		return
	}

	db := h.Store.Get()
	rows, err := h.exportRows(c, db)
	if err != nil {
		util.Fail(c, err)
		return
	}

	payload := hbcsv.EncodeTransactions(rows, opts)
	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("20060102"))

	logRow := models.ExportLog{
		Filename: filename,
		Rows:     len(rows),
		Payload:  payload,
	}
	if err := db.Create(&logRow).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "record export failed")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.String(http.StatusOK, payload)
}

// ExportTransactionsXLSX renders the same rows as a spreadsheet.
func (h *ImportExportHandler) ExportTransactionsXLSX(c *gin.Context) {
	opts, err := csvOptions(c)
	if err != nil {
		util.Fail(c, err)
		return
	}

	db := h.Store.Get()
	rows, err := h.exportRows(c, db)
	if err != nil {
		util.Fail(c, err)
		return
	}

	f := excelize.NewFile()
	sheetName := "Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create sheet failed")
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"date", "paymode", "info", "payee", "memo", "amount", "category", "tags"}
	for i, name := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		_ = f.SetCellValue(sheetName, cell, name)
	}

	for idx := range rows {
		r := &rows[idx]
		line := idx + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", line), hbcsv.FormatDate(r.Date, opts.DateOrder))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", line), r.Paymode)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", line), r.Info)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", line), r.Payee)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", line), r.Memo)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", line), r.Amount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", line), r.Category)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", line), r.Tags)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "D", "E", 25)
	_ = f.SetColWidth(sheetName, "G", "G", 20)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}

// ExportPayeesCSV streams the three-column payee list.
func (h *ImportExportHandler) ExportPayeesCSV(c *gin.Context) {
	db := h.Store.Get()

	var payees []models.Payee
	if err := db.Order("name ASC").Find(&payees).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query payees failed")
		return
	}
	paths, err := categoryPaths(db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query categories failed")
		return
	}

	rows := make([]hbcsv.PayeeRow, 0, len(payees))
	for i := range payees {
		p := &payees[i]
		row := hbcsv.PayeeRow{Name: p.Name}
		if p.CategoryID != nil {
			row.Category = paths[*p.CategoryID]
		}
		if p.Paymode != nil {
			row.Paymode = *p.Paymode
		}
		rows = append(rows, row)
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"payees_%s.csv\"",
		time.Now().Format("20060102")))
	c.String(http.StatusOK, hbcsv.EncodePayees(rows))
}

// ExportCategoriesCSV streams the three-column category list, roots
// followed by their children.
func (h *ImportExportHandler) ExportCategoriesCSV(c *gin.Context) {
	db := h.Store.Get()

	var cats []models.Category
	if err := db.Order("name ASC").Find(&cats).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query categories failed")
		return
	}

	typeMark := func(t string) string {
		switch t {
		case models.CategoryIncome:
			return "+"
		case models.CategoryExpense:
			return "-"
		}
		return ""
	}

	var rows []hbcsv.CategoryRow
	for i := range cats {
		root := &cats[i]
		if root.ParentID != nil {
			continue
		}
		rows = append(rows, hbcsv.CategoryRow{Level: 1, Type: typeMark(root.Type), Name: root.Name})
		for j := range cats {
			child := &cats[j]
			if child.ParentID != nil && *child.ParentID == root.ID {
				rows = append(rows, hbcsv.CategoryRow{Level: 2, Type: typeMark(child.Type), Name: child.Name})
			}
		}
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"categories_%s.csv\"",
		time.Now().Format("20060102")))
	c.String(http.StatusOK, hbcsv.EncodeCategories(rows))
}

// ListExportLogs returns the export audit trail, payloads omitted.
func (h *ImportExportHandler) ListExportLogs(c *gin.Context) {
	db := h.Store.Get()

	var logs []models.ExportLog
	if err := db.Order("created_at DESC").Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query export logs failed")
		return
	}

	items := make([]gin.H, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		items = append(items, gin.H{
			"id":         l.ID,
			"filename":   l.Filename,
			"rows":       l.Rows,
			"created_at": l.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"items": items,
	})
}

// uploadBody reads the import payload from a multipart "file" part or
// the raw request body.
func uploadBody(c *gin.Context) (string, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := c.GetRawData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportTransactions decodes an eight-column CSV upload into one
// account. Bad lines are skipped; an unknown account or unreadable
// upload aborts the import; all inserts share one transaction.
func (h *ImportExportHandler) ImportTransactions(c *gin.Context) {
	accountID, err := strconv.Atoi(c.Query("account_id"))
	if err != nil || accountID <= 0 {
		util.Fail(c, util.ValidationErr("account_id is required", "account_id"))
		return
	}
	opts, err := csvOptions(c)
	if err != nil {
		util.Fail(c, err)
		return
	}
	skipDuplicates := c.DefaultQuery("skip_duplicates", "false") == "true"

	raw, err := uploadBody(c)
	if err != nil || strings.TrimSpace(raw) == "" {
		util.Fail(c, util.ValidationErr("upload is empty or unreadable", "file"))
		return
	}

	db := h.Store.Get()

	var account models.Account
	if err := db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, util.NotFoundErr("account not found"))
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query account failed")
		}
		return
	}

	rows, skipped := hbcsv.DecodeTransactions(raw, opts)

	var duplicates int
	if skipDuplicates && len(rows) > 0 {
		cands := make([]ledger.Candidate, 0, len(rows))
		for i := range rows {
			cands = append(cands, ledger.Candidate{
				Date:   rows[i].Date,
				Payee:  rows[i].Payee,
				Amount: rows[i].Amount,
			})
		}
		dups, err := ledger.FindDuplicates(db, account.ID, cands)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "duplicate check failed")
			return
		}
		dupSet := make(map[ledger.Candidate]bool, len(dups))
		for _, d := range dups {
			dupSet[d] = true
		}
		kept := rows[:0]
		for i := range rows {
			cand := ledger.Candidate{Date: rows[i].Date, Payee: rows[i].Payee, Amount: rows[i].Amount}
			if dupSet[cand] {
				duplicates++
				continue
			}
			kept = append(kept, rows[i])
		}
		rows = kept
	}

	var imported int
	err = db.Transaction(func(tx *gorm.DB) error {
		resolver := ledger.NewCategoryResolver(tx)
		for i := range rows {
			r := &rows[i]
			categoryID, err := resolver.Resolve(r.Category, r.Amount)
			if err != nil {
				return err
			}
			txn := models.Transaction{
				AccountID:  account.ID,
				Date:       r.Date,
				Payee:      r.Payee,
				Amount:     r.Amount,
				CategoryID: categoryID,
				Paymode:    r.Paymode,
				Memo:       r.Memo,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "import failed")
		return
	}

	util.Success(c, util.Response{
		"imported":   imported,
		"skipped":    skipped,
		"duplicates": duplicates,
	})
}

// ImportPayees creates payees from the three-column list; existing
// names (case-insensitive) are left alone.
func (h *ImportExportHandler) ImportPayees(c *gin.Context) {
	raw, err := uploadBody(c)
	if err != nil || strings.TrimSpace(raw) == "" {
		util.Fail(c, util.ValidationErr("upload is empty or unreadable", "file"))
		return
	}

	rows, skipped := hbcsv.DecodePayees(raw)

	db := h.Store.Get()
	var imported, existing int
	err = db.Transaction(func(tx *gorm.DB) error {
		resolver := ledger.NewCategoryResolver(tx)
		for _, r := range rows {
			var count int64
			if err := tx.Model(&models.Payee{}).
				Where("LOWER(name) = LOWER(?)", r.Name).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				existing++
				continue
			}

			payee := models.Payee{Name: r.Name}
			if r.Category != "" {
				id, err := resolver.Resolve(r.Category, 0)
				if err != nil {
					return err
				}
				payee.CategoryID = id
			}
			if r.Paymode != 0 && models.ValidPaymode(r.Paymode) {
				paymode := r.Paymode
				payee.Paymode = &paymode
			}
			if err := tx.Create(&payee).Error; err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "import failed")
		return
	}

	util.Success(c, util.Response{
		"imported": imported,
		"existing": existing,
		"skipped":  skipped,
	})
}

// ImportCategories creates categories from the level;type;name list.
// A level-2 row attaches to the last level-1 row above it.
func (h *ImportExportHandler) ImportCategories(c *gin.Context) {
	raw, err := uploadBody(c)
	if err != nil || strings.TrimSpace(raw) == "" {
		util.Fail(c, util.ValidationErr("upload is empty or unreadable", "file"))
		return
	}

	rows, skipped := hbcsv.DecodeCategories(raw)

	typeFor := func(mark string) string {
		switch strings.TrimSpace(mark) {
		case "+":
			return models.CategoryIncome
		case "-":
			return models.CategoryExpense
		}
		return models.CategoryNeutral
	}

	db := h.Store.Get()
	var imported, existing int
	err = db.Transaction(func(tx *gorm.DB) error {
		var currentRoot *uint
		for _, r := range rows {
			var parent *uint
			if r.Level == 2 {
				if currentRoot == nil {
					skipped++
					continue
				}
				parent = currentRoot
			}

			q := tx.Where("LOWER(name) = LOWER(?)", r.Name)
			if parent == nil {
				q = q.Where("parent_id IS NULL")
			} else {
				q = q.Where("parent_id = ?", *parent)
			}

			var cat models.Category
			err := q.First(&cat).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				cat = models.Category{Name: r.Name, Type: typeFor(r.Type), ParentID: parent}
				if err := tx.Create(&cat).Error; err != nil {
					return err
				}
				imported++
			case err != nil:
				return err
			default:
				existing++
			}

			if r.Level == 1 {
				id := cat.ID
				currentRoot = &id
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "import failed")
		return
	}

	util.Success(c, util.Response{
		"imported": imported,
		"existing": existing,
		"skipped":  skipped,
	})
}

// PreviewImport decodes an upload without writing anything.
func (h *ImportExportHandler) PreviewImport(c *gin.Context) {
	opts, err := csvOptions(c)
	if err != nil {
		util.Fail(c, err)
		return
	}
	raw, err := uploadBody(c)
	if err != nil || strings.TrimSpace(raw) == "" {
		util.Fail(c, util.ValidationErr("upload is empty or unreadable", "file"))
		return
	}

	rows, skipped := hbcsv.DecodeTransactions(raw, opts)

	items := make([]gin.H, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		items = append(items, gin.H{
			"date":     r.Date.Format("2006-01-02"),
			"paymode":  r.Paymode,
			"payee":    r.Payee,
			"memo":     r.Memo,
			"amount":   r.Amount,
			"category": r.Category,
			"tags":     r.Tags,
		})
	}

	util.Success(c, util.Response{
		"items":   items,
		"skipped": skipped,
	})
}

// checkDuplicatesReq carries candidates with wire dates (YYYY-MM-DD).
type checkDuplicatesReq struct {
	AccountID  uint `json:"account_id"`
	Candidates []struct {
		Date   string  `json:"date" binding:"required"`
		Payee  string  `json:"payee"`
		Amount float64 `json:"amount"`
	} `json:"candidates" binding:"required"`
}

// CheckDuplicates reports which candidates already exist in the store.
func (h *ImportExportHandler) CheckDuplicates(c *gin.Context) {
	var req checkDuplicatesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, util.ValidationErr("invalid request body", "candidates"))
		return
	}

	cands := make([]ledger.Candidate, 0, len(req.Candidates))
	for _, rc := range req.Candidates {
		date, err := parseDay(rc.Date)
		if err != nil {
			util.Fail(c, util.ValidationErr("candidate date must be YYYY-MM-DD", "date"))
			return
		}
		cands = append(cands, ledger.Candidate{Date: date, Payee: rc.Payee, Amount: rc.Amount})
	}

	dups, err := ledger.FindDuplicates(h.Store.Get(), req.AccountID, cands)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "duplicate check failed")
		return
	}

	items := make([]gin.H, 0, len(dups))
	for _, d := range dups {
		items = append(items, gin.H{
			"date":   d.Date.Format("2006-01-02"),
			"payee":  d.Payee,
			"amount": d.Amount,
		})
	}

	util.Success(c, util.Response{
		"duplicates": items,
	})
}
