package sales

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service provides high-level sales and credit ledger operations on a
// Storage backend.
type Service struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
	locks   *customerLocks
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for sale and payment dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		locks:   newCustomerLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSale is the input for CreateSale.
type NewSale struct {
	CustomerName string
	PaymentType  PaymentType
	Date         time.Time
	DueDate      *time.Time
	Items        []NewSaleItem
}

// NewSaleItem is one requested line of a sale.
type NewSaleItem struct {
	ItemName string
	Quantity int
	Price    decimal.Decimal
}

// CreateSale validates and stores a sale with its items. Cash sales are
// settled on creation; credit sales stay unpaid until payments cover them.
func (s *Service) CreateSale(ctx context.Context, req NewSale) (*Sale, error) {
	if !req.PaymentType.Valid() {
		return nil, validationError(ErrInvalidPaymentType, "%q", req.PaymentType)
	}

	var customer *CustomerName
	if strings.TrimSpace(req.CustomerName) != "" {
		name := CustomerName(req.CustomerName)
		customer = &name
	} else if req.PaymentType == PaymentCredit {
		return nil, validationError(ErrCustomerRequired, "")
	}

	if len(req.Items) == 0 {
		return nil, validationError(ErrEmptySale, "")
	}

	now := s.now().UTC()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	sale := &Sale{
		ID:           uuid.NewString(),
		CustomerName: customer,
		Date:         DateOnly(date),
		PaymentType:  req.PaymentType,
		Paid:         req.PaymentType == PaymentCash,
		CreatedAt:    now,
		Items:        make([]SaleItem, 0, len(req.Items)),
	}
	if req.DueDate != nil {
		due := DateOnly(*req.DueDate)
		sale.DueDate = &due
	}

	total := decimal.Zero
	for i, item := range req.Items {
		if strings.TrimSpace(item.ItemName) == "" {
			return nil, validationError(ErrInvalidItem, "item %d: name is required", i+1)
		}
		if item.Quantity <= 0 {
			return nil, validationError(ErrInvalidItem, "item %d: quantity must be positive", i+1)
		}
		if item.Price.IsNegative() || !hasCents(item.Price) {
			return nil, validationError(ErrInvalidItem, "item %d: invalid price %s", i+1, item.Price)
		}

		subtotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		sale.Items = append(sale.Items, SaleItem{
			ID:       uuid.NewString(),
			SaleID:   sale.ID,
			ItemName: item.ItemName,
			Quantity: item.Quantity,
			Price:    item.Price,
			Subtotal: subtotal,
		})
		total = total.Add(subtotal)
	}
	if req.PaymentType == PaymentCredit && !total.IsPositive() {
		return nil, validationError(ErrInvalidItem, "credit sale total must be greater than zero")
	}
	sale.TotalAmount = total

	err := s.storage.Transaction(ctx, func(tx Storage) error {
		return tx.CreateSale(ctx, sale)
	})
	if err != nil {
		s.logger.Error("failed to save sale", zap.String("sale_id", sale.ID), zap.Error(err))
		return nil, writeError(err)
	}

	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("payment_type", string(sale.PaymentType)),
		zap.Stringer("total_amount", sale.TotalAmount),
	)
	return sale, nil
}

// GetSale returns one sale with its items.
func (s *Service) GetSale(ctx context.Context, id string) (*Sale, error) {
	sale, err := s.storage.Read(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to read sale", zap.String("sale_id", id), zap.Error(err))
		return nil, fetchError(err)
	}
	return sale, nil
}

// SearchSales returns the sales matching filter along with summary counts.
func (s *Service) SearchSales(ctx context.Context, filter SaleFilter) ([]*Sale, SalesMetadata, error) {
	if filter.PaymentType != "" && !filter.PaymentType.Valid() {
		s.logger.Warn("invalid payment type filter", zap.String("payment_type", string(filter.PaymentType)))
		return nil, SalesMetadata{}, validationError(ErrInvalidPaymentType, "%q", filter.PaymentType)
	}

	found, err := s.storage.Search(ctx, filter)
	if err != nil {
		s.logger.Error("failed to search sales", zap.Error(err))
		return nil, SalesMetadata{}, fetchError(err)
	}

	metadata := SalesMetadata{TotalAmount: decimal.Zero}
	for _, sale := range found {
		metadata.Quantity++
		metadata.TotalAmount = metadata.TotalAmount.Add(sale.TotalAmount)
		switch sale.PaymentType {
		case PaymentCash:
			metadata.Cash++
		case PaymentCredit:
			metadata.Credit++
		}
		if !sale.Paid {
			metadata.Unpaid++
		}
	}

	s.logger.Debug("sales search completed",
		zap.Int("results_count", len(found)),
		zap.Stringer("total_amount", metadata.TotalAmount),
	)
	return found, metadata, nil
}

// DeleteSale removes a sale and its items. Sales with recorded payments
// cannot be deleted.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	err := s.storage.Transaction(ctx, func(tx Storage) error {
		if _, err := tx.Read(ctx, id); err != nil {
			return err
		}
		payments, err := tx.PaymentsForSales(ctx, []string{id})
		if err != nil {
			return fetchError(err)
		}
		if len(payments) > 0 {
			return validationError(ErrSaleHasPayments, "%d payment(s)", len(payments))
		}
		return tx.Delete(ctx, id)
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to delete sale", zap.String("sale_id", id), zap.Error(err))
		return writeError(err)
	}

	s.logger.Info("sale deleted", zap.String("sale_id", id))
	return nil
}

// RecordPayment applies amount to the customer's unpaid credit sales,
// oldest first, and commits the new payments together with the sales they
// settle. The amount must be positive and may not exceed what the customer
// currently owes.
func (s *Service) RecordPayment(ctx context.Context, customer CustomerName, amount decimal.Decimal) (Allocation, error) {
	if !amount.IsPositive() || !hasCents(amount) {
		return Allocation{}, validationError(ErrInvalidAmount, "got %s", amount)
	}

	unlock := s.locks.Lock(customer)
	defer unlock()

	var alloc Allocation
	err := s.storage.Transaction(ctx, func(tx Storage) error {
		outstanding, err := tx.OutstandingCreditSales(ctx, &customer)
		if err != nil {
			return fetchError(err)
		}
		if len(outstanding) == 0 {
			return validationError(ErrNoOutstandingSales, "%q", customer)
		}

		payments, err := tx.PaymentsForSales(ctx, saleIDs(outstanding))
		if err != nil {
			return fetchError(err)
		}
		paid := PaymentMap(payments)

		owed := OutstandingTotal(outstanding, paid)
		if !owed.IsPositive() {
			return validationError(ErrNoOutstandingSales, "%q", customer)
		}
		if amount.GreaterThan(owed) {
			return validationError(ErrAmountExceedsOutstanding, "%s owes %s, got %s", customer, owed, amount)
		}

		now := s.now().UTC()
		alloc = AllocatePayment(outstanding, paid, amount, DateOnly(now))
		for i := range alloc.PaymentsToRecord {
			alloc.PaymentsToRecord[i].ID = uuid.NewString()
			alloc.PaymentsToRecord[i].CreatedAt = now
		}

		if err := tx.InsertPayments(ctx, alloc.PaymentsToRecord); err != nil {
			return writeError(err)
		}
		if len(alloc.SalesToUpdate) > 0 {
			if err := tx.MarkSalesPaid(ctx, alloc.SalesToUpdate); err != nil {
				return writeError(err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			s.logger.Warn("payment rejected", zap.String("customer", customer.String()), zap.Stringer("amount", amount), zap.Error(err))
		} else {
			s.logger.Error("failed to record payment", zap.String("customer", customer.String()), zap.Stringer("amount", amount), zap.Error(err))
		}
		return Allocation{}, writeError(err)
	}

	s.logger.Info("payment recorded",
		zap.String("customer", customer.String()),
		zap.Stringer("amount", amount),
		zap.Int("payments_recorded", len(alloc.PaymentsToRecord)),
		zap.Strings("sales_updated", alloc.SalesToUpdate),
	)
	return alloc, nil
}

// GetCustomers derives every customer with an outstanding balance from the
// current sales and payments.
func (s *Service) GetCustomers(ctx context.Context) ([]Customer, error) {
	outstanding, err := s.storage.OutstandingCreditSales(ctx, nil)
	if err != nil {
		s.logger.Error("failed to fetch credit sales", zap.Error(err))
		return nil, fetchError(err)
	}

	payments, err := s.storage.PaymentsForSales(ctx, saleIDs(outstanding))
	if err != nil {
		s.logger.Error("failed to fetch payments", zap.Int("sales", len(outstanding)), zap.Error(err))
		return nil, fetchError(err)
	}

	return AggregateCustomers(outstanding, PaymentMap(payments)), nil
}

// TotalOutstanding sums what every customer still owes.
func (s *Service) TotalOutstanding(ctx context.Context) (decimal.Decimal, error) {
	customers, err := s.GetCustomers(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, c := range customers {
		total = total.Add(c.TotalCredit)
	}
	return total, nil
}

// SalesBetween returns every sale dated within [from, to], newest first.
func (s *Service) SalesBetween(ctx context.Context, from, to time.Time) ([]*Sale, error) {
	found, err := s.storage.Search(ctx, SaleFilter{From: DateOnly(from), To: DateOnly(to)})
	if err != nil {
		return nil, fetchError(err)
	}
	return found, nil
}

// RecentSales returns the most recently entered sales, whatever their date.
func (s *Service) RecentSales(ctx context.Context, limit int) ([]*Sale, error) {
	found, err := s.storage.Search(ctx, SaleFilter{Limit: limit, ByEntry: true})
	if err != nil {
		return nil, fetchError(err)
	}
	return found, nil
}

// ReceivedPayment is a payment together with the customer it came from.
type ReceivedPayment struct {
	Payment
	CustomerName *CustomerName `json:"customer_name,omitempty"`
}

// RecentPayments returns the newest payments with their customer names.
func (s *Service) RecentPayments(ctx context.Context, limit int) ([]ReceivedPayment, error) {
	payments, err := s.storage.Payments(ctx, PaymentFilter{Limit: limit})
	if err != nil {
		return nil, fetchError(err)
	}

	names := make(map[string]*CustomerName)
	result := make([]ReceivedPayment, 0, len(payments))
	for _, p := range payments {
		name, ok := names[p.SaleID]
		if !ok {
			sale, err := s.storage.Read(ctx, p.SaleID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, fetchError(err)
			}
			if sale != nil {
				name = sale.CustomerName
			}
			names[p.SaleID] = name
		}
		result = append(result, ReceivedPayment{Payment: p, CustomerName: name})
	}
	return result, nil
}

// PaymentsBetween returns payments dated within [from, to], newest first.
func (s *Service) PaymentsBetween(ctx context.Context, from, to time.Time) ([]Payment, error) {
	payments, err := s.storage.Payments(ctx, PaymentFilter{From: DateOnly(from), To: DateOnly(to)})
	if err != nil {
		return nil, fetchError(err)
	}
	return payments, nil
}

func saleIDs(sales []*Sale) []string {
	ids := make([]string, 0, len(sales))
	for _, sale := range sales {
		ids = append(ids, sale.ID)
	}
	return ids
}

// hasCents reports whether d fits in whole minor units.
func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
