package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages stocked items.
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

func validate(in ItemInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	case in.Quantity < 0:
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidItem)
	case in.Price.IsNegative() || !in.Price.Equal(in.Price.Round(2)):
		return fmt.Errorf("%w: invalid price %s", ErrInvalidItem, in.Price)
	case in.LowStockThreshold < 0:
		return fmt.Errorf("%w: low stock threshold cannot be negative", ErrInvalidItem)
	}
	return nil
}

// Create adds a new item.
func (s *Service) Create(ctx context.Context, in ItemInput) (*Item, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &Item{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		Quantity:          in.Quantity,
		Price:             in.Price,
		LowStockThreshold: in.LowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.storage.Set(ctx, item); err != nil {
		s.logger.Error("failed to save inventory item", zap.String("item_id", item.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to save inventory item: %w", err)
	}

	s.logger.Info("inventory item created", zap.String("item_id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// Update replaces the editable fields of an existing item.
func (s *Service) Update(ctx context.Context, id string, in ItemInput) (*Item, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	item, err := s.storage.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name = strings.TrimSpace(in.Name)
	item.Description = in.Description
	item.Quantity = in.Quantity
	item.Price = in.Price
	item.LowStockThreshold = in.LowStockThreshold
	item.UpdatedAt = s.now().UTC()

	if err := s.storage.Set(ctx, item); err != nil {
		s.logger.Error("failed to update inventory item", zap.String("item_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	return item, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.storage.Read(ctx, id)
}

// List returns every item by name.
func (s *Service) List(ctx context.Context) ([]*Item, error) {
	return s.storage.GetAll(ctx)
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("inventory item deleted", zap.String("item_id", id))
	return nil
}

// AdjustStock adds delta (negative to remove) to an item's quantity.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (*Item, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: quantity change must not be zero", ErrInvalidItem)
	}
	item, err := s.storage.AdjustQuantity(ctx, id, delta, s.now().UTC())
	if err != nil {
		s.logger.Warn("stock adjustment failed", zap.String("item_id", id), zap.Int("delta", delta), zap.Error(err))
		return nil, err
	}

	s.logger.Info("stock adjusted", zap.String("item_id", id), zap.Int("delta", delta), zap.Int("quantity", item.Quantity))
	return item, nil
}

// LowStock lists items at or below their restock threshold.
func (s *Service) LowStock(ctx context.Context) ([]*Item, error) {
	items, err := s.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]*Item, 0)
	for _, item := range items {
		if item.LowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}
