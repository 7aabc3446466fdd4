package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Item is one stocked product.
type Item struct {
	ID                string          `json:"id" gorm:"primaryKey;size:36"`
	Name              string          `json:"name" gorm:"not null"`
	Description       string          `json:"description"`
	Quantity          int             `json:"quantity" gorm:"not null"`
	Price             decimal.Decimal `json:"price" gorm:"type:numeric(14,2);not null"`
	LowStockThreshold int             `json:"low_stock_threshold" gorm:"not null"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// LowStock reports whether the item has reached its restock threshold.
func (i Item) LowStock() bool {
	return i.Quantity <= i.LowStockThreshold
}

// TableName keeps the table name singular.
func (Item) TableName() string { return "inventory" }

// ItemInput carries the editable fields of an item.
type ItemInput struct {
	Name              string
	Description       string
	Quantity          int
	Price             decimal.Decimal
	LowStockThreshold int
}

var (
	ErrNotFound          = errors.New("inventory item not found")
	ErrEmptyID           = errors.New("empty inventory item ID")
	ErrInvalidItem       = errors.New("invalid inventory item")
	ErrInsufficientStock = errors.New("insufficient stock")
)
