package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerName identifies a credit customer. Names are matched exactly,
// without trimming or case folding.
type CustomerName string

func (n CustomerName) String() string { return string(n) }

// PaymentType tells whether a sale was settled at the till or put on account.
type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentCredit PaymentType = "credit"
)

// Valid reports whether t is a known payment type.
func (t PaymentType) Valid() bool {
	return t == PaymentCash || t == PaymentCredit
}

// Sale represents a sales transaction in the system.
type Sale struct {
	ID           string          `json:"id" gorm:"primaryKey;size:36"`
	CustomerName *CustomerName   `json:"customer_name,omitempty" gorm:"index"`
	TotalAmount  decimal.Decimal `json:"total_amount" gorm:"type:numeric(14,2);not null"`
	Date         time.Time       `json:"date" gorm:"index;not null"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	PaymentType  PaymentType     `json:"payment_type" gorm:"size:16;index;not null"`
	Paid         bool            `json:"paid" gorm:"index;not null"`
	Items        []SaleItem      `json:"items,omitempty" gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SaleItem is one line of a sale. Subtotal is quantity times price.
type SaleItem struct {
	ID       string          `json:"id" gorm:"primaryKey;size:36"`
	SaleID   string          `json:"sale_id" gorm:"size:36;index;not null"`
	ItemName string          `json:"item_name" gorm:"not null"`
	Quantity int             `json:"quantity" gorm:"not null"`
	Price    decimal.Decimal `json:"price" gorm:"type:numeric(14,2);not null"`
	Subtotal decimal.Decimal `json:"subtotal" gorm:"type:numeric(14,2);not null"`
}

// Payment records money received against one credit sale.
type Payment struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	SaleID      string          `json:"sale_id" gorm:"size:36;index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	PaymentDate time.Time       `json:"payment_date" gorm:"index;not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Customer is derived from outstanding credit sales on every read and is
// never stored.
type Customer struct {
	Name         CustomerName    `json:"name"`
	TotalCredit  decimal.Decimal `json:"total_credit"`
	LastSaleDate time.Time       `json:"last_sale_date"`
}

// Allocation is the write-set produced for one incoming payment.
type Allocation struct {
	PaymentsToRecord []Payment `json:"payments_to_record"`
	SalesToUpdate    []string  `json:"sales_to_update"`
}

// Total returns the sum of every allocated payment.
func (a Allocation) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.PaymentsToRecord {
		total = total.Add(p.Amount)
	}
	return total
}

// SaleFilter narrows a sale search. Zero values do not filter. A positive
// Limit keeps only the newest rows. Results are ordered by sale date unless
// ByEntry is set, in which case the most recently entered sales come first.
type SaleFilter struct {
	Customer    *CustomerName
	PaymentType PaymentType
	Paid        *bool
	From        time.Time
	To          time.Time
	Limit       int
	ByEntry     bool
}

// PaymentFilter narrows a payment listing by payment date. A positive Limit
// keeps only the newest rows.
type PaymentFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// SalesMetadata summarises a search result.
type SalesMetadata struct {
	Quantity    int             `json:"quantity"`
	Cash        int             `json:"cash"`
	Credit      int             `json:"credit"`
	Unpaid      int             `json:"unpaid"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
