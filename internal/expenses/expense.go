package expenses

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups expenses for reporting.
type Category string

const (
	CategoryInventory Category = "inventory"
	CategoryUtilities Category = "utilities"
	CategoryRent      Category = "rent"
	CategorySalaries  Category = "salaries"
	CategoryTransport Category = "transport"
	CategoryMarketing Category = "marketing"
	CategoryOther     Category = "other"
)

var categories = map[Category]struct{}{
	CategoryInventory: {},
	CategoryUtilities: {},
	CategoryRent:      {},
	CategorySalaries:  {},
	CategoryTransport: {},
	CategoryMarketing: {},
	CategoryOther:     {},
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Expense is money spent running the business.
type Expense struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Category    Category        `json:"category" gorm:"size:32;index;not null"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"date" gorm:"index;not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Filter narrows an expense listing. Zero values do not filter.
type Filter struct {
	Category Category
	From     time.Time
	To       time.Time
	Limit    int
}

// Summary totals a set of expenses.
type Summary struct {
	Count      int                          `json:"count"`
	Total      decimal.Decimal              `json:"total"`
	ByCategory map[Category]decimal.Decimal `json:"by_category"`
}

var (
	ErrNotFound        = errors.New("expense not found")
	ErrEmptyID         = errors.New("empty expense ID")
	ErrInvalidExpense  = errors.New("invalid expense")
	ErrInvalidCategory = errors.New("invalid expense category")
)
