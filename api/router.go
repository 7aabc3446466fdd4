package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopbooks/internal/expenses"
	"shopbooks/internal/inventory"
	"shopbooks/internal/reports"
	"shopbooks/internal/sales"
)

// Services groups the application services the HTTP layer exposes.
type Services struct {
	Sales     *sales.Service
	Inventory *inventory.Service
	Expenses  *expenses.Service
	Reports   *reports.Service
	// Now anchors reports and the dashboard. Defaults to time.Now.
	Now func() time.Time
}

// InitRoutes registers every endpoint on the given Gin engine, binding each
// HTTP method and path to the matching handler.
func InitRoutes(e *gin.Engine, svc Services, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.Use(RequestLogger(logger))

	salesHandler := NewSalesHandler(svc.Sales, logger)
	inventoryHandler := NewInventoryHandler(svc.Inventory, logger)
	expenseHandler := NewExpenseHandler(svc.Expenses, logger)
	reportHandler := NewReportHandler(svc.Reports, svc.Now, logger)

	e.POST("/sales", salesHandler.handleCreateSale)
	e.GET("/sales", salesHandler.handleSearchSales)
	e.GET("/sales/:id", salesHandler.handleGetSale)
	e.DELETE("/sales/:id", salesHandler.handleDeleteSale)

	e.GET("/customers", salesHandler.handleGetCustomers)
	e.POST("/customers/:name/payments", salesHandler.handleRecordPayment)

	e.GET("/inventory", inventoryHandler.handleListItems)
	e.POST("/inventory", inventoryHandler.handleCreateItem)
	e.GET("/inventory/low-stock", inventoryHandler.handleLowStock)
	e.GET("/inventory/:id", inventoryHandler.handleGetItem)
	e.PUT("/inventory/:id", inventoryHandler.handleUpdateItem)
	e.DELETE("/inventory/:id", inventoryHandler.handleDeleteItem)
	e.POST("/inventory/:id/stock", inventoryHandler.handleAdjustStock)

	e.GET("/expenses", expenseHandler.handleListExpenses)
	e.POST("/expenses", expenseHandler.handleCreateExpense)
	e.GET("/expenses/summary", expenseHandler.handleSummary)
	e.DELETE("/expenses/:id", expenseHandler.handleDeleteExpense)

	e.GET("/reports/:type", reportHandler.handleReport)
	e.GET("/dashboard", reportHandler.handleDashboard)
	e.GET("/activity", reportHandler.handleActivity)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
