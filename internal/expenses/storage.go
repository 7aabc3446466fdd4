package expenses

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Storage persists expenses.
type Storage interface {
	Set(ctx context.Context, e *Expense) error
	Find(ctx context.Context, filter Filter) ([]*Expense, error)
	Delete(ctx context.Context, id string) error
}

// LocalStorage provides an in-memory implementation for storing expenses.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string]*Expense
}

// NewLocalStorage instantiates a new LocalStorage with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{m: map[string]*Expense{}}
}

func (l *LocalStorage) Set(_ context.Context, e *Expense) error {
	if e.ID == "" {
		return ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c := *e
	l.m[e.ID] = &c
	return nil
}

// Find returns matching expenses, newest first.
func (l *LocalStorage) Find(_ context.Context, filter Filter) ([]*Expense, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Expense, 0)
	for _, e := range l.m {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if !filter.From.IsZero() && e.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && e.Date.After(filter.To) {
			continue
		}
		c := *e
		result = append(result, &c)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
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

// GormStorage keeps expenses in a relational database.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage wraps an open gorm connection.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// Models lists the tables owned by this package, for migration.
func Models() []any {
	return []any{&Expense{}}
}

func (g *GormStorage) Set(ctx context.Context, e *Expense) error {
	if e.ID == "" {
		return ErrEmptyID
	}
	return g.db.WithContext(ctx).Save(e).Error
}

func (g *GormStorage) Find(ctx context.Context, filter Filter) ([]*Expense, error) {
	q := g.db.WithContext(ctx)
	if filter.Category != "" {
		q = q.Where("category = ?", string(filter.Category))
	}
	if !filter.From.IsZero() {
		q = q.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("date <= ?", filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	result := make([]*Expense, 0)
	if err := q.Order("date desc, created_at desc").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (g *GormStorage) Delete(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
