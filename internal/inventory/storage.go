package inventory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Storage persists inventory items.
type Storage interface {
	Set(ctx context.Context, item *Item) error
	Read(ctx context.Context, id string) (*Item, error)
	GetAll(ctx context.Context) ([]*Item, error)
	Delete(ctx context.Context, id string) error
	// AdjustQuantity adds delta to the stored quantity, stamps the item as
	// updated at the given time and returns it. The result may not go below
	// zero.
	AdjustQuantity(ctx context.Context, id string, delta int, at time.Time) (*Item, error)
}

// LocalStorage provides an in-memory implementation for storing items.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string]*Item
}

// NewLocalStorage instantiates a new LocalStorage with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{m: map[string]*Item{}}
}

// Set inserts or replaces an item.
// Returns ErrEmptyID if the item has an empty ID.
func (l *LocalStorage) Set(_ context.Context, item *Item) error {
	if item.ID == "" {
		return ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c := *item
	l.m[item.ID] = &c
	return nil
}

func (l *LocalStorage) Read(_ context.Context, id string) (*Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	item, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *item
	return &c, nil
}

// GetAll returns every item sorted by name.
func (l *LocalStorage) GetAll(_ context.Context) ([]*Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	items := make([]*Item, 0, len(l.m))
	for _, item := range l.m {
		c := *item
		items = append(items, &c)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (l *LocalStorage) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m[id]; !ok {
		return ErrNotFound
	}
	delete(l.m, id)
	return nil
}

func (l *LocalStorage) AdjustQuantity(_ context.Context, id string, delta int, at time.Time) (*Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	if item.Quantity+delta < 0 {
		return nil, ErrInsufficientStock
	}
	item.Quantity += delta
	item.UpdatedAt = at
	c := *item
	return &c, nil
}

// GormStorage keeps items in the inventory table.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage wraps an open gorm connection.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// Models lists the tables owned by this package, for migration.
func Models() []any {
	return []any{&Item{}}
}

func (g *GormStorage) Set(ctx context.Context, item *Item) error {
	if item.ID == "" {
		return ErrEmptyID
	}
	return g.db.WithContext(ctx).Save(item).Error
}

func (g *GormStorage) Read(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := g.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (g *GormStorage) GetAll(ctx context.Context) ([]*Item, error) {
	items := make([]*Item, 0)
	if err := g.db.WithContext(ctx).Order("name asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (g *GormStorage) Delete(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustQuantity applies delta with a guarded UPDATE so concurrent
// adjustments cannot drive stock negative.
func (g *GormStorage) AdjustQuantity(ctx context.Context, id string, delta int, at time.Time) (*Item, error) {
	var item Item
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Item{}).
			Where("id = ? AND quantity + ? >= 0", id, delta).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", delta),
				"updated_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.First(&item, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			return ErrInsufficientStock
		}
		return tx.First(&item, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
