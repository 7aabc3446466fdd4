package sales

import (
	"context"
	"sort"
	"sync"
)

// Storage is the main interface for our sales storage layer.
type Storage interface {
	CreateSale(ctx context.Context, sale *Sale) error
	Read(ctx context.Context, id string) (*Sale, error)
	Search(ctx context.Context, filter SaleFilter) ([]*Sale, error)
	Delete(ctx context.Context, id string) error

	// OutstandingCreditSales returns unpaid credit sales that carry a
	// customer name, oldest first. A nil customer returns every customer.
	OutstandingCreditSales(ctx context.Context, customer *CustomerName) ([]*Sale, error)
	PaymentsForSales(ctx context.Context, saleIDs []string) ([]Payment, error)
	Payments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	InsertPayments(ctx context.Context, payments []Payment) error
	MarkSalesPaid(ctx context.Context, saleIDs []string) error

	// Transaction runs fn against a Storage whose writes become visible
	// together when fn returns nil and are discarded otherwise.
	Transaction(ctx context.Context, fn func(tx Storage) error) error
}

// LocalStorage provides an in-memory implementation for storing sales.
type LocalStorage struct {
	txMu     sync.Mutex
	mu       sync.RWMutex
	sales    map[string]*Sale
	payments []Payment
}

// NewLocalStorage instantiates a new LocalStorage for sales with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		sales: map[string]*Sale{},
	}
}

// CreateSale stores a copy of sale and its items.
// Returns ErrEmptyID if the sale has an empty ID.
func (l *LocalStorage) CreateSale(_ context.Context, sale *Sale) error {
	if sale.ID == "" {
		return ErrEmptyID
	}
	l.txMu.Lock()
	defer l.txMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sales[sale.ID] = cloneSale(sale)
	return nil
}

// Read retrieves a sale from the local storage by ID.
// Returns ErrNotFound if the sale is not found.
func (l *LocalStorage) Read(_ context.Context, id string) (*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSale(s), nil
}

// Search returns matching sales, newest first.
func (l *LocalStorage) Search(_ context.Context, filter SaleFilter) ([]*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Sale, 0)
	for _, s := range l.sales {
		if filter.Customer != nil && (s.CustomerName == nil || *s.CustomerName != *filter.Customer) {
			continue
		}
		if filter.PaymentType != "" && s.PaymentType != filter.PaymentType {
			continue
		}
		if filter.Paid != nil && s.Paid != *filter.Paid {
			continue
		}
		if !filter.From.IsZero() && s.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && s.Date.After(filter.To) {
			continue
		}
		result = append(result, cloneSale(s))
	}

	newer := newerSale
	if filter.ByEntry {
		newer = enteredLater
	}
	sort.Slice(result, func(i, j int) bool { return newer(result[i], result[j]) })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Delete removes a sale together with its items.
func (l *LocalStorage) Delete(_ context.Context, id string) error {
	l.txMu.Lock()
	defer l.txMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sales[id]; !ok {
		return ErrNotFound
	}
	delete(l.sales, id)
	return nil
}

func (l *LocalStorage) OutstandingCreditSales(_ context.Context, customer *CustomerName) ([]*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Sale, 0)
	for _, s := range l.sales {
		if s.PaymentType != PaymentCredit || s.Paid || s.CustomerName == nil {
			continue
		}
		if customer != nil && *s.CustomerName != *customer {
			continue
		}
		result = append(result, cloneSale(s))
	}

	sort.Slice(result, func(i, j int) bool { return newerSale(result[j], result[i]) })
	return result, nil
}

func (l *LocalStorage) PaymentsForSales(_ context.Context, saleIDs []string) ([]Payment, error) {
	wanted := make(map[string]struct{}, len(saleIDs))
	for _, id := range saleIDs {
		wanted[id] = struct{}{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]Payment, 0)
	for _, p := range l.payments {
		if _, ok := wanted[p.SaleID]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

// Payments returns payments ordered newest first.
func (l *LocalStorage) Payments(_ context.Context, filter PaymentFilter) ([]Payment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Payment, 0)
	for _, p := range l.payments {
		if !filter.From.IsZero() && p.PaymentDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && p.PaymentDate.After(filter.To) {
			continue
		}
		result = append(result, p)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].PaymentDate.Equal(result[j].PaymentDate) {
			return result[i].PaymentDate.After(result[j].PaymentDate)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (l *LocalStorage) InsertPayments(_ context.Context, payments []Payment) error {
	l.txMu.Lock()
	defer l.txMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range payments {
		if p.ID == "" {
			return ErrEmptyID
		}
		if _, ok := l.sales[p.SaleID]; !ok {
			return ErrNotFound
		}
	}
	l.payments = append(l.payments, payments...)
	return nil
}

func (l *LocalStorage) MarkSalesPaid(_ context.Context, saleIDs []string) error {
	l.txMu.Lock()
	defer l.txMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range saleIDs {
		if _, ok := l.sales[id]; !ok {
			return ErrNotFound
		}
	}
	for _, id := range saleIDs {
		l.sales[id].Paid = true
	}
	return nil
}

// Transaction runs fn on a private copy of the store and publishes the copy
// only if fn succeeds. Transactions are serialised with every other write.
func (l *LocalStorage) Transaction(ctx context.Context, fn func(tx Storage) error) error {
	l.txMu.Lock()
	defer l.txMu.Unlock()

	l.mu.RLock()
	tx := NewLocalStorage()
	for id, s := range l.sales {
		tx.sales[id] = cloneSale(s)
	}
	tx.payments = append(make([]Payment, 0, len(l.payments)), l.payments...)
	l.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}

	l.mu.Lock()
	l.sales = tx.sales
	l.payments = tx.payments
	l.mu.Unlock()
	return nil
}

func cloneSale(s *Sale) *Sale {
	c := *s
	if s.CustomerName != nil {
		name := *s.CustomerName
		c.CustomerName = &name
	}
	if s.DueDate != nil {
		due := *s.DueDate
		c.DueDate = &due
	}
	if s.Items != nil {
		c.Items = append([]SaleItem(nil), s.Items...)
	}
	return &c
}

// newerSale orders by date, then creation time, then ID.
func newerSale(a, b *Sale) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// enteredLater orders by creation time, then ID.
func enteredLater(a, b *Sale) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
