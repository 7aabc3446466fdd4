package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shopbooks/internal/expenses"
	"shopbooks/internal/sales"
)

// ActivityType tags an entry of the activity feed.
type ActivityType string

const (
	ActivitySale      ActivityType = "sale"
	ActivityPayment   ActivityType = "payment"
	ActivityInventory ActivityType = "inventory"
	ActivityExpense   ActivityType = "expense"
)

// Activity is one line of the recent activity feed.
type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Badge       string       `json:"badge"`
	Timestamp   time.Time    `json:"timestamp"`
}

const (
	// DefaultActivityLimit is used when no limit is given.
	DefaultActivityLimit = 6
	// MaxActivityLimit bounds how many entries one feed may hold.
	MaxActivityLimit = 50
)

// RecentActivity merges the newest sales, payments, stock updates and
// expenses, newest first, and keeps at most limit entries. The limit is
// clamped to MaxActivityLimit.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	switch {
	case limit <= 0:
		limit = DefaultActivityLimit
	case limit > MaxActivityLimit:
		limit = MaxActivityLimit
	}
	feed := make([]Activity, 0)

	recentSales, err := s.sales.RecentSales(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, sale := range recentSales {
		badge := "Cash"
		if sale.PaymentType == sales.PaymentCredit {
			badge = "Credit"
		}
		feed = append(feed, Activity{
			ID:          sale.ID,
			Type:        ActivitySale,
			Title:       "Sale to " + customerLabel(sale.CustomerName),
			Description: sale.TotalAmount.StringFixed(2),
			Badge:       badge,
			Timestamp:   sale.CreatedAt,
		})
	}

	payments, err := s.sales.RecentPayments(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		feed = append(feed, Activity{
			ID:          p.ID,
			Type:        ActivityPayment,
			Title:       "Payment Received",
			Description: fmt.Sprintf("%s • %s", customerLabel(p.CustomerName), p.Amount.StringFixed(2)),
			Badge:       "Credit",
			Timestamp:   p.CreatedAt,
		})
	}

	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		badge := "Stock"
		if item.LowStock() {
			badge = "Low Stock"
		}
		feed = append(feed, Activity{
			ID:          item.ID,
			Type:        ActivityInventory,
			Title:       "Inventory Updated",
			Description: fmt.Sprintf("%s • %d units", item.Name, item.Quantity),
			Badge:       badge,
			Timestamp:   item.UpdatedAt,
		})
	}

	spent, err := s.expenses.List(ctx, expenses.Filter{Limit: limit})
	if err != nil {
		return nil, err
	}
	for _, e := range spent {
		desc := e.Amount.StringFixed(2)
		if e.Description != "" {
			desc = e.Description + " • " + desc
		}
		feed = append(feed, Activity{
			ID:          e.ID,
			Type:        ActivityExpense,
			Title:       "Expense Logged",
			Description: desc,
			Badge:       string(e.Category),
			Timestamp:   e.CreatedAt,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Timestamp.After(feed[j].Timestamp) })
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}

func customerLabel(name *sales.CustomerName) string {
	if name == nil || *name == "" {
		return "Customer"
	}
	return name.String()
}
