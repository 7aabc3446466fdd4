package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopbooks/internal/inventory"
)

type inventoryHandler struct {
	inventoryService *inventory.Service
	logger           *zap.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(inventoryService *inventory.Service, logger *zap.Logger) *inventoryHandler {
	return &inventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

type itemRequest struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

func (r itemRequest) input() inventory.ItemInput {
	return inventory.ItemInput{
		Name:              r.Name,
		Description:       r.Description,
		Quantity:          r.Quantity,
		Price:             r.Price,
		LowStockThreshold: r.LowStockThreshold,
	}
}

type stockRequest struct {
	Delta int `json:"delta"`
}

func (h *inventoryHandler) inventoryError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "inventory item not found"})
	case errors.Is(err, inventory.ErrInsufficientStock):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrInvalidItem), errors.Is(err, inventory.ErrEmptyID):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("inventory request failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *inventoryHandler) handleListItems(ctx *gin.Context) {
	items, err := h.inventoryService.List(ctx.Request.Context())
	if err != nil {
		h.inventoryError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": items})
}

func (h *inventoryHandler) handleGetItem(ctx *gin.Context) {
	item, err := h.inventoryService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.inventoryError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

func (h *inventoryHandler) handleLowStock(ctx *gin.Context) {
	items, err := h.inventoryService.LowStock(ctx.Request.Context())
	if err != nil {
		h.inventoryError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": items})
}

func (h *inventoryHandler) handleCreateItem(ctx *gin.Context) {
	var req itemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	item, err := h.inventoryService.Create(ctx.Request.Context(), req.input())
	if err != nil {
		h.inventoryError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

func (h *inventoryHandler) handleUpdateItem(ctx *gin.Context) {
	var req itemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	item, err := h.inventoryService.Update(ctx.Request.Context(), ctx.Param("id"), req.input())
	if err != nil {
		h.inventoryError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

func (h *inventoryHandler) handleDeleteItem(ctx *gin.Context) {
	if err := h.inventoryService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		h.inventoryError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// handleAdjustStock handles POST /inventory/:id/stock with a signed delta.
func (h *inventoryHandler) handleAdjustStock(ctx *gin.Context) {
	var req stockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	item, err := h.inventoryService.AdjustStock(ctx.Request.Context(), ctx.Param("id"), req.Delta)
	if err != nil {
		h.inventoryError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}
