package router

import (
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/config"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/handler"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin engine and the whole API surface.
func SetupRouter(cfg *config.Config, store *database.Store) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")

	// auth endpoints, no session required
	authHandler := handler.NewAuthHandler(store, cfg.Auth.SessionSecret,
		cfg.Auth.SessionTTLHours, cfg.Auth.BcryptCost, cfg.Auth.AllowRegistration)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// everything below needs a live session
	protected := api.Group("")
	protected.Use(middleware.AuthRequired(cfg.Auth.SessionSecret, store))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", handler.GetMe)
	protected.GET("/paymodes", handler.ListPaymodes)

	accountHandler := handler.NewAccountHandler(store, cfg.App.DefaultCurrency)
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

	transactionHandler := handler.NewTransactionHandler(store, cfg.App.PageSize)
	protected.GET("/transactions", transactionHandler.ListTransactions)
	protected.POST("/transactions", transactionHandler.CreateTransaction)
	protected.PATCH("/transactions/:id", transactionHandler.UpdateTransaction)
	protected.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	ioHandler := handler.NewImportExportHandler(store)
	protected.GET("/export/transactions.csv", ioHandler.ExportTransactionsCSV)
	protected.GET("/export/transactions.xlsx", ioHandler.ExportTransactionsXLSX)
	protected.GET("/export/payees.csv", ioHandler.ExportPayeesCSV)
	protected.GET("/export/categories.csv", ioHandler.ExportCategoriesCSV)
	protected.GET("/export/logs", ioHandler.ListExportLogs)
	protected.POST("/import/transactions", ioHandler.ImportTransactions)
	protected.POST("/import/payees", ioHandler.ImportPayees)
	protected.POST("/import/categories", ioHandler.ImportCategories)
	protected.POST("/import/preview", ioHandler.PreviewImport)
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

	return r
}
