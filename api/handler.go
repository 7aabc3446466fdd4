package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopbooks/internal/sales"
)

const dateLayout = "2006-01-02"

// salesHandler holds the sales service and implements HTTP handlers for
// sales and customer credit operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

type saleItemRequest struct {
	ItemName string          `json:"item_name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type createSaleRequest struct {
	CustomerName string            `json:"customer_name"`
	PaymentType  string            `json:"payment_type"`
	Date         string            `json:"date"`
	DueDate      string            `json:"due_date"`
	Items        []saleItemRequest `json:"items"`
}

type recordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// salesError writes the response for an error returned by the sales service.
func (h *salesHandler) salesError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, sales.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "sale not found"})
	case errors.Is(err, sales.ErrValidation):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, sales.ErrUpstreamFetch):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "failed to load sales data"})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save sales data"})
	}
}

// handleCreateSale handles the POST /sales endpoint.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var req createSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	ns := sales.NewSale{
		CustomerName: req.CustomerName,
		PaymentType:  sales.PaymentType(req.PaymentType),
		Items:        make([]sales.NewSaleItem, 0, len(req.Items)),
	}
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		ns.Date = d
	}
	if req.DueDate != "" {
		d, err := time.Parse(dateLayout, req.DueDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
			return
		}
		ns.DueDate = &d
	}
	for _, item := range req.Items {
		ns.Items = append(ns.Items, sales.NewSaleItem{
			ItemName: item.ItemName,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	sale, err := h.salesService.CreateSale(ctx.Request.Context(), ns)
	if err != nil {
		h.salesError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, sale)
}

// handleSearchSales handles GET /sales?customer=&payment_type=&paid=&from=&to=.
func (h *salesHandler) handleSearchSales(ctx *gin.Context) {
	var filter sales.SaleFilter
	if c := ctx.Query("customer"); c != "" {
		name := sales.CustomerName(c)
		filter.Customer = &name
	}
	filter.PaymentType = sales.PaymentType(ctx.Query("payment_type"))
	if p := ctx.Query("paid"); p != "" {
		paid, err := strconv.ParseBool(p)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "paid must be true or false"})
			return
		}
		filter.Paid = &paid
	}

	var err error
	if filter.From, err = parseDateQuery(ctx, "from"); err != nil {
		return
	}
	if filter.To, err = parseDateQuery(ctx, "to"); err != nil {
		return
	}

	results, metadata, err := h.salesService.SearchSales(ctx.Request.Context(), filter)
	if err != nil {
		h.salesError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"results": results, "metadata": metadata})
}

func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	sale, err := h.salesService.GetSale(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.salesError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

func (h *salesHandler) handleDeleteSale(ctx *gin.Context) {
	if err := h.salesService.DeleteSale(ctx.Request.Context(), ctx.Param("id")); err != nil {
		h.salesError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// handleGetCustomers handles GET /customers.
func (h *salesHandler) handleGetCustomers(ctx *gin.Context) {
	customers, err := h.salesService.GetCustomers(ctx.Request.Context())
	if err != nil {
		h.salesError(ctx, err)
		return
	}

	total := decimal.Zero
	for _, c := range customers {
		total = total.Add(c.TotalCredit)
	}
	ctx.JSON(http.StatusOK, gin.H{"results": customers, "total_outstanding": total})
}

// handleRecordPayment handles POST /customers/:name/payments.
func (h *salesHandler) handleRecordPayment(ctx *gin.Context) {
	name := sales.CustomerName(ctx.Param("name"))

	var req recordPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	alloc, err := h.salesService.RecordPayment(ctx.Request.Context(), name, req.Amount)
	if err != nil {
		h.salesError(ctx, err)
		return
	}

	resp := gin.H{"allocation": alloc, "outstanding": decimal.Zero}
	customers, err := h.salesService.GetCustomers(ctx.Request.Context())
	if err != nil {
		// The payment is committed; only the refreshed balance is missing.
		h.logger.Warn("failed to refresh customer balance", zap.String("customer", name.String()), zap.Error(err))
		delete(resp, "outstanding")
	} else {
		for _, c := range customers {
			if c.Name == name {
				resp["outstanding"] = c.TotalCredit
			}
		}
	}

	ctx.JSON(http.StatusCreated, resp)
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter and writes a
// 400 response when it is malformed.
func parseDateQuery(ctx *gin.Context, key string) (time.Time, error) {
	v := ctx.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": key + " must be YYYY-MM-DD"})
		return time.Time{}, err
	}
	return d, nil
}
