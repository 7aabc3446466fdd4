package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service records and summarises expenses.
type Service struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{storage: storage, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewExpense is the input for Create. A zero Date means today.
type NewExpense struct {
	Amount      decimal.Decimal
	Category    Category
	Description string
	Date        time.Time
}

// Create validates and stores an expense.
func (s *Service) Create(ctx context.Context, in NewExpense) (*Expense, error) {
	if !in.Amount.IsPositive() || !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, fmt.Errorf("%w: amount must be greater than zero with at most two decimal places", ErrInvalidExpense)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}

	now := s.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	y, m, d := date.UTC().Date()

	e := &Expense{
		ID:          uuid.NewString(),
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		CreatedAt:   now,
	}
	if err := s.storage.Set(ctx, e); err != nil {
		s.logger.Error("failed to save expense", zap.String("expense_id", e.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	s.logger.Info("expense recorded",
		zap.String("expense_id", e.ID),
		zap.String("category", string(e.Category)),
		zap.Stringer("amount", e.Amount),
	)
	return e, nil
}

// List returns expenses matching filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Expense, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, filter.Category)
	}
	return s.storage.Find(ctx, filter)
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("expense deleted", zap.String("expense_id", id))
	return nil
}

// Summary totals the expenses matching filter, overall and per category.
func (s *Service) Summary(ctx context.Context, filter Filter) (Summary, error) {
	list, err := s.List(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(list), nil
}

// Summarize totals list overall and per category.
func Summarize(list []*Expense) Summary {
	sum := Summary{Total: decimal.Zero, ByCategory: make(map[Category]decimal.Decimal)}
	for _, e := range list {
		sum.Count++
		sum.Total = sum.Total.Add(e.Amount)
		sum.ByCategory[e.Category] = sum.ByCategory[e.Category].Add(e.Amount)
	}
	return sum
}
