package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database/dbtest"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/handler"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "unit-test-secret"

// api bundles a wired engine and its store for request-level tests.
type api struct {
	t     *testing.T
	r     *gin.Engine
	store *database.Store
}

// newAPI wires the full route table against a throwaway store. The
// registration fallback is off so only the stored setting can open it.
func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := dbtest.OpenStore(t)
	r := gin.New()

	root := r.Group("/api")

	authHandler := handler.NewAuthHandler(store, testSecret, 1, bcrypt.MinCost, false)
	root.POST("/auth/register", authHandler.Register)
	root.POST("/auth/login", authHandler.Login)

	protected := root.Group("")
	protected.Use(middleware.AuthRequired(testSecret, store))
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", handler.GetMe)

	accountHandler := handler.NewAccountHandler(store, "EUR")
	protected.GET("/accounts", accountHandler.ListAccounts)
	protected.POST("/accounts", accountHandler.CreateAccount)
	protected.PATCH("/accounts/:id", accountHandler.UpdateAccount)
	protected.DELETE("/accounts/:id", accountHandler.DeleteAccount)

	categoryHandler := handler.NewCategoryHandler(store)
	protected.GET("/categories", categoryHandler.ListCategories)
	protected.POST("/categories", categoryHandler.CreateCategory)
	protected.PATCH("/categories/:id", categoryHandler.UpdateCategory)
	protected.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	payeeHandler := handler.NewPayeeHandler(store)
	protected.GET("/payees", payeeHandler.ListPayees)
	protected.POST("/payees", payeeHandler.CreatePayee)
	protected.PATCH("/payees/:id", payeeHandler.UpdatePayee)
	protected.DELETE("/payees/:id", payeeHandler.DeletePayee)

	transactionHandler := handler.NewTransactionHandler(store, 50)
	protected.GET("/transactions", transactionHandler.ListTransactions)
	protected.POST("/transactions", transactionHandler.CreateTransaction)
	protected.PATCH("/transactions/:id", transactionHandler.UpdateTransaction)
	protected.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	ioHandler := handler.NewImportExportHandler(store)
	protected.GET("/export/transactions.csv", ioHandler.ExportTransactionsCSV)
	protected.GET("/export/logs", ioHandler.ListExportLogs)
	protected.POST("/import/transactions", ioHandler.ImportTransactions)
	protected.POST("/import/payees", ioHandler.ImportPayees)
	protected.POST("/import/categories", ioHandler.ImportCategories)
	protected.POST("/import/duplicates", ioHandler.CheckDuplicates)

	adminHandler := handler.NewAdminHandler(store)
	admin := protected.Group("/admin")
	admin.Use(middleware.AdminRequired())
	admin.GET("/db/download", adminHandler.DownloadDB)
	admin.POST("/db/restore", adminHandler.RestoreDB)
	admin.POST("/db/reset", adminHandler.ResetDB)
	admin.GET("/settings", adminHandler.GetSettings)
	admin.PUT("/settings", adminHandler.PutSettings)
	admin.PUT("/currency", adminHandler.RenameCurrency)

	return &api{t: t, r: r, store: store}
}

// do sends a request. A JSON body is marshalled, a string body goes
// through raw; token, when set, rides in the session cookie.
func (a *api) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
		contentType = "text/csv"
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}

	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

// envelope decodes the uniform response body.
func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out),
		"body: %s", w.Body.String())
	return out
}

// data pulls the success payload out of the envelope.
func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	env := envelope(t, w)
	d, ok := env["data"].(map[string]interface{})
	require.True(t, ok, "no data in body: %s", w.Body.String())
	return d
}

// register creates a user through the API.
func (a *api) register(username, password string) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, "/api/auth/register",
		map[string]string{"username": username, "password": password}, "")
}

// login returns the session token for an existing user.
func (a *api) login(username, password string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": password}, "")
	require.Equal(a.t, http.StatusOK, w.Code, "login: %s", w.Body.String())

	token, ok := data(a.t, w)["token"].(string)
	require.True(a.t, ok)
	require.True(a.t, strings.Count(token, ".") == 2, "token is not a JWT: %s", token)
	return token
}

// registerAndLogin bootstraps the first user (always admitted) and
// returns a live session token.
func (a *api) registerAndLogin(username, password string) string {
	a.t.Helper()
	w := a.register(username, password)
	require.Equal(a.t, http.StatusOK, w.Code, "register: %s", w.Body.String())
	return a.login(username, password)
}
