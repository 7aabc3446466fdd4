package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"shopbooks/internal/expenses"
	"shopbooks/internal/inventory"
	"shopbooks/internal/reports"
	"shopbooks/internal/sales"
)

var testNow = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func initRoutesTests(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	clock := func() time.Time { return testNow }

	salesService := sales.NewService(sales.NewLocalStorage(), logger, sales.WithClock(clock))
	inventoryService := inventory.NewService(inventory.NewLocalStorage(), logger, inventory.WithClock(clock))
	expenseService := expenses.NewService(expenses.NewLocalStorage(), logger, expenses.WithClock(clock))

	router := gin.New()
	InitRoutes(router, Services{
		Sales:     salesService,
		Inventory: inventoryService,
		Expenses:  expenseService,
		Reports:   reports.NewService(salesService, expenseService, inventoryService, logger),
		Now:       clock,
	}, logger)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type customersResponse struct {
	Results          []sales.Customer `json:"results"`
	TotalOutstanding decimal.Decimal  `json:"total_outstanding"`
}

type paymentResponse struct {
	Allocation  sales.Allocation `json:"allocation"`
	Outstanding decimal.Decimal  `json:"outstanding"`
}

func creditSaleBody(date string, qty int, price string) map[string]any {
	return map[string]any{
		"customer_name": "Amaka",
		"payment_type":  "credit",
		"date":          date,
		"items": []map[string]any{
			{"item_name": "Rice 50kg", "quantity": qty, "price": price},
		},
	}
}

// TestCustomerCredit_FullFlow walks two credit sales through partial and
// final repayment over HTTP.
func TestCustomerCredit_FullFlow(t *testing.T) {
	router := initRoutesTests(t)

	var first, second sales.Sale

	t.Run("POST_CreateCreditSales", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sales", creditSaleBody("2024-01-01", 1, "3000"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		decodeBody(t, w, &first)

		w = doJSON(t, router, http.MethodPost, "/sales", creditSaleBody("2024-01-05", 2, "1000"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		decodeBody(t, w, &second)

		assert.NotEmpty(t, first.ID)
		assert.False(t, first.Paid)
		assert.True(t, second.TotalAmount.Equal(decimal.NewFromInt(2000)))
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	})

	require.NotEmpty(t, first.ID)

	t.Run("GET_CustomersOwing", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/customers", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp customersResponse
		decodeBody(t, w, &resp)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, sales.CustomerName("Amaka"), resp.Results[0].Name)
		assert.True(t, resp.Results[0].TotalCredit.Equal(decimal.NewFromInt(5000)))
		assert.Equal(t, "2024-01-05", resp.Results[0].LastSaleDate.Format(dateLayout))
		assert.True(t, resp.TotalOutstanding.Equal(decimal.NewFromInt(5000)))
	})

	t.Run("POST_PartialPayment", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/customers/Amaka/payments", map[string]any{"amount": "4000"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp paymentResponse
		decodeBody(t, w, &resp)
		require.Len(t, resp.Allocation.PaymentsToRecord, 2)
		assert.Equal(t, first.ID, resp.Allocation.PaymentsToRecord[0].SaleID)
		assert.True(t, resp.Allocation.PaymentsToRecord[0].Amount.Equal(decimal.NewFromInt(3000)))
		assert.Equal(t, second.ID, resp.Allocation.PaymentsToRecord[1].SaleID)
		assert.True(t, resp.Allocation.PaymentsToRecord[1].Amount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, []string{first.ID}, resp.Allocation.SalesToUpdate)
		assert.True(t, resp.Outstanding.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("POST_OverpaymentRejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/customers/Amaka/payments", map[string]any{"amount": "2000"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "exceeds")
	})

	t.Run("DELETE_SaleWithPaymentsRefused", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/sales/"+first.ID, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("POST_FinalPayment", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/customers/Amaka/payments", map[string]any{"amount": 1000})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp paymentResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, []string{second.ID}, resp.Allocation.SalesToUpdate)
		assert.True(t, resp.Outstanding.IsZero())
	})

	t.Run("GET_NoCustomersLeft", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/customers", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp customersResponse
		decodeBody(t, w, &resp)
		assert.Empty(t, resp.Results)
		assert.True(t, resp.TotalOutstanding.IsZero())
	})

	t.Run("GET_SaleMarkedPaid", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/sales/"+second.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var sale sales.Sale
		decodeBody(t, w, &sale)
		assert.True(t, sale.Paid)
	})
}

func TestSalesEndpoints_Errors(t *testing.T) {
	router := initRoutesTests(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown sale", http.MethodGet, "/sales/missing", nil, http.StatusNotFound},
		{"delete unknown sale", http.MethodDelete, "/sales/missing", nil, http.StatusNotFound},
		{"credit sale without customer", http.MethodPost, "/sales", map[string]any{
			"payment_type": "credit",
			"items":        []map[string]any{{"item_name": "Beans", "quantity": 1, "price": "500"}},
		}, http.StatusBadRequest},
		{"sale without items", http.MethodPost, "/sales", map[string]any{"payment_type": "cash"}, http.StatusBadRequest},
		{"bad sale date", http.MethodPost, "/sales", map[string]any{"payment_type": "cash", "date": "01/02/2024"}, http.StatusBadRequest},
		{"bad payment type filter", http.MethodGet, "/sales?payment_type=barter", nil, http.StatusBadRequest},
		{"bad paid filter", http.MethodGet, "/sales?paid=maybe", nil, http.StatusBadRequest},
		{"payment for unknown customer", http.MethodPost, "/customers/Nobody/payments", map[string]any{"amount": "100"}, http.StatusBadRequest},
		{"zero payment", http.MethodPost, "/customers/Amaka/payments", map[string]any{"amount": "0"}, http.StatusBadRequest},
		{"payment with fractional cents", http.MethodPost, "/customers/Amaka/payments", map[string]any{"amount": "10.005"}, http.StatusBadRequest},
		{"payment with bad body", http.MethodPost, "/customers/Amaka/payments", "oops", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestSearchSales_Filters(t *testing.T) {
	router := initRoutesTests(t)

	cash := map[string]any{
		"payment_type": "cash",
		"date":         "2024-02-10",
		"items":        []map[string]any{{"item_name": "Sugar", "quantity": 4, "price": "250.50"}},
	}
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/sales", cash).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/sales", creditSaleBody("2024-02-11", 1, "800")).Code)

	w := doJSON(t, router, http.MethodGet, "/sales?paid=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Results  []sales.Sale        `json:"results"`
		Metadata sales.SalesMetadata `json:"metadata"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, sales.PaymentCredit, resp.Results[0].PaymentType)

	w = doJSON(t, router, http.MethodGet, "/sales?from=2024-02-10&to=2024-02-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].TotalAmount.Equal(decimal.RequireFromString("1002")))
	assert.True(t, resp.Results[0].Paid)
}

func TestInventoryEndpoints(t *testing.T) {
	router := initRoutesTests(t)

	w := doJSON(t, router, http.MethodPost, "/inventory", map[string]any{
		"name":                "Palm Oil 5L",
		"quantity":            8,
		"price":               "6500",
		"low_stock_threshold": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item inventory.Item
	decodeBody(t, w, &item)

	w = doJSON(t, router, http.MethodPost, "/inventory/"+item.ID+"/stock", map[string]any{"delta": -4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &item)
	assert.Equal(t, 4, item.Quantity)

	w = doJSON(t, router, http.MethodGet, "/inventory/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var low struct {
		Results []inventory.Item `json:"results"`
	}
	decodeBody(t, w, &low)
	require.Len(t, low.Results, 1)
	assert.Equal(t, item.ID, low.Results[0].ID)

	w = doJSON(t, router, http.MethodPost, "/inventory/"+item.ID+"/stock", map[string]any{"delta": -10})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPut, "/inventory/missing", map[string]any{"name": "x", "price": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/inventory/"+item.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/inventory/"+item.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExpenseEndpoints(t *testing.T) {
	router := initRoutesTests(t)

	for _, body := range []map[string]any{
		{"amount": "15000", "category": "rent", "date": "2024-03-01"},
		{"amount": "2500.50", "category": "transport", "date": "2024-02-20"},
	} {
		w := doJSON(t, router, http.MethodPost, "/expenses", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doJSON(t, router, http.MethodPost, "/expenses", map[string]any{"amount": "10", "category": "gifts"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/expenses/summary?from=2024-03-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary expenses.Summary
	decodeBody(t, w, &summary)
	assert.Equal(t, 1, summary.Count)
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(15000)))

	w = doJSON(t, router, http.MethodGet, "/expenses?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/expenses/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportEndpoints(t *testing.T) {
	router := initRoutesTests(t)

	cash := map[string]any{
		"payment_type": "cash",
		"items":        []map[string]any{{"item_name": "Milk", "quantity": 3, "price": "700"}},
	}
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/sales", cash).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/expenses",
		map[string]any{"amount": "500", "category": "utilities"}).Code)

	w := doJSON(t, router, http.MethodGet, "/reports/daily", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report reports.Report
	decodeBody(t, w, &report)
	assert.True(t, report.Sales.Equal(decimal.NewFromInt(2100)))
	assert.True(t, report.Profit.Equal(decimal.NewFromInt(1600)))
	assert.Equal(t, 1, report.Transactions)

	w = doJSON(t, router, http.MethodGet, "/reports/yearly", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard reports.Dashboard
	decodeBody(t, w, &dashboard)
	assert.True(t, dashboard.TodaySales.Equal(decimal.NewFromInt(2100)))
	assert.True(t, dashboard.CreditOutstanding.IsZero())

	w = doJSON(t, router, http.MethodGet, "/activity?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed struct {
		Results []reports.Activity `json:"results"`
	}
	decodeBody(t, w, &feed)
	assert.Len(t, feed.Results, 2)

	for _, limit := range []string{"51", "1000000000", "2305843009213693952", "-1", "ten"} {
		w = doJSON(t, router, http.MethodGet, "/activity?limit="+limit, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
	}

	w = doJSON(t, router, http.MethodGet, "/activity?limit=50", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPing(t *testing.T) {
	router := initRoutesTests(t)

	w := doJSON(t, router, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
