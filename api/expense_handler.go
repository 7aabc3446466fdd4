package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopbooks/internal/expenses"
)

type expenseHandler struct {
	expenseService *expenses.Service
	logger         *zap.Logger
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(expenseService *expenses.Service, logger *zap.Logger) *expenseHandler {
	return &expenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

type expenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

func (h *expenseHandler) expenseError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, expenses.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
	case errors.Is(err, expenses.ErrInvalidExpense),
		errors.Is(err, expenses.ErrInvalidCategory),
		errors.Is(err, expenses.ErrEmptyID):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("expense request failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// filter reads ?category=&from=&to=&limit= and writes a 400 response when
// any of them is malformed.
func (h *expenseHandler) filter(ctx *gin.Context) (expenses.Filter, bool) {
	f := expenses.Filter{Category: expenses.Category(ctx.Query("category"))}

	var err error
	if f.From, err = parseDateQuery(ctx, "from"); err != nil {
		return f, false
	}
	if f.To, err = parseDateQuery(ctx, "to"); err != nil {
		return f, false
	}
	if l := ctx.Query("limit"); l != "" {
		f.Limit, err = strconv.Atoi(l)
		if err != nil || f.Limit < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return f, false
		}
	}
	return f, true
}

func (h *expenseHandler) handleListExpenses(ctx *gin.Context) {
	f, ok := h.filter(ctx)
	if !ok {
		return
	}
	list, err := h.expenseService.List(ctx.Request.Context(), f)
	if err != nil {
		h.expenseError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": list})
}

func (h *expenseHandler) handleSummary(ctx *gin.Context) {
	f, ok := h.filter(ctx)
	if !ok {
		return
	}
	summary, err := h.expenseService.Summary(ctx.Request.Context(), f)
	if err != nil {
		h.expenseError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

func (h *expenseHandler) handleCreateExpense(ctx *gin.Context) {
	var req expenseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	in := expenses.NewExpense{
		Amount:      req.Amount,
		Category:    expenses.Category(req.Category),
		Description: req.Description,
	}
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		in.Date = d
	}

	e, err := h.expenseService.Create(ctx.Request.Context(), in)
	if err != nil {
		h.expenseError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, e)
}

func (h *expenseHandler) handleDeleteExpense(ctx *gin.Context) {
	if err := h.expenseService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		h.expenseError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
