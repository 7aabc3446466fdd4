package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopbooks/internal/expenses"
	"shopbooks/internal/inventory"
	"shopbooks/internal/sales"
)

// ErrInvalidReportType is returned for an unknown report period.
var ErrInvalidReportType = errors.New("invalid report type")

// Type selects the period a report covers.
type Type string

const (
	Daily   Type = "daily"
	Weekly  Type = "weekly"
	Monthly Type = "monthly"
)

const topItemsLimit = 3

// SalesSource is the part of the sales service reports read from.
type SalesSource interface {
	SalesBetween(ctx context.Context, from, to time.Time) ([]*sales.Sale, error)
	PaymentsBetween(ctx context.Context, from, to time.Time) ([]sales.Payment, error)
	TotalOutstanding(ctx context.Context) (decimal.Decimal, error)
	RecentSales(ctx context.Context, limit int) ([]*sales.Sale, error)
	RecentPayments(ctx context.Context, limit int) ([]sales.ReceivedPayment, error)
}

// ExpenseSource lists expenses.
type ExpenseSource interface {
	List(ctx context.Context, filter expenses.Filter) ([]*expenses.Expense, error)
}

// InventorySource lists stocked items.
type InventorySource interface {
	List(ctx context.Context) ([]*inventory.Item, error)
	LowStock(ctx context.Context) ([]*inventory.Item, error)
}

// TopItem is one of the best selling items of a period.
type TopItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// Report summarises trading over a period. CreditCollected is what
// customers paid back on credit sales.
type Report struct {
	Type            Type            `json:"type"`
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	Sales           decimal.Decimal `json:"sales"`
	Expenses        decimal.Decimal `json:"expenses"`
	Profit          decimal.Decimal `json:"profit"`
	Transactions    int             `json:"transactions"`
	CreditCollected decimal.Decimal `json:"credit_collected"`
	TopItems        []TopItem       `json:"top_items"`
}

// Dashboard holds the headline figures for today.
type Dashboard struct {
	TodaySales        decimal.Decimal `json:"today_sales"`
	CreditOutstanding decimal.Decimal `json:"credit_outstanding"`
	LowStockItems     int             `json:"low_stock_items"`
}

// Service builds reports from the sales, expense and inventory services.
type Service struct {
	sales     SalesSource
	expenses  ExpenseSource
	inventory InventorySource
	logger    *zap.Logger
}

// NewService creates a new Service.
func NewService(s SalesSource, e ExpenseSource, i InventorySource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sales: s, expenses: e, inventory: i, logger: logger}
}

// PeriodStart returns the first day covered by a report of type t ending on
// now. Weeks start on Sunday.
func PeriodStart(t Type, now time.Time) (time.Time, error) {
	today := sales.DateOnly(now)
	switch t {
	case Daily:
		return today, nil
	case Weekly:
		return today.AddDate(0, 0, -int(today.Weekday())), nil
	case Monthly:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidReportType, t)
	}
}

// Report totals sales and expenses from the start of the period to now.
func (s *Service) Report(ctx context.Context, t Type, now time.Time) (Report, error) {
	from, err := PeriodStart(t, now)
	if err != nil {
		return Report{}, err
	}
	to := sales.DateOnly(now)

	sold, err := s.sales.SalesBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("failed to load sales for report", zap.String("type", string(t)), zap.Error(err))
		return Report{}, err
	}
	spent, err := s.expenses.List(ctx, expenses.Filter{From: from, To: to})
	if err != nil {
		s.logger.Error("failed to load expenses for report", zap.String("type", string(t)), zap.Error(err))
		return Report{}, err
	}

	received, err := s.sales.PaymentsBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("failed to load payments for report", zap.String("type", string(t)), zap.Error(err))
		return Report{}, err
	}
	collected := decimal.Zero
	for _, p := range received {
		collected = collected.Add(p.Amount)
	}

	r := Report{
		Type:            t,
		From:            from,
		To:              to,
		Sales:           sumSales(sold),
		Expenses:        expenses.Summarize(spent).Total,
		Transactions:    len(sold),
		CreditCollected: collected,
		TopItems:        TopItems(sold, topItemsLimit),
	}
	r.Profit = r.Sales.Sub(r.Expenses)
	return r, nil
}

// Dashboard returns today's sales, what customers owe and how many items
// need restocking.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	today := sales.DateOnly(now)
	sold, err := s.sales.SalesBetween(ctx, today, today)
	if err != nil {
		return Dashboard{}, err
	}
	owed, err := s.sales.TotalOutstanding(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	low, err := s.inventory.LowStock(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		TodaySales:        sumSales(sold),
		CreditOutstanding: owed,
		LowStockItems:     len(low),
	}, nil
}

// TopItems groups sale lines by item name and returns the limit best by
// revenue.
func TopItems(sold []*sales.Sale, limit int) []TopItem {
	byName := make(map[string]*TopItem)
	for _, sale := range sold {
		for _, line := range sale.Items {
			item, ok := byName[line.ItemName]
			if !ok {
				item = &TopItem{Name: line.ItemName, Revenue: decimal.Zero}
				byName[line.ItemName] = item
			}
			item.Quantity += line.Quantity
			item.Revenue = item.Revenue.Add(line.Subtotal)
		}
	}

	items := make([]TopItem, 0, len(byName))
	for _, item := range byName {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if c := items[i].Revenue.Cmp(items[j].Revenue); c != 0 {
			return c > 0
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func sumSales(sold []*sales.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sold {
		total = total.Add(sale.TotalAmount)
	}
	return total
}
