package sales

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStorage keeps sales, items and payments in a relational database.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage wraps an open gorm connection.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// Models lists the tables owned by this package, for migration.
func Models() []any {
	return []any{&Sale{}, &SaleItem{}, &Payment{}}
}

func (g *GormStorage) CreateSale(ctx context.Context, sale *Sale) error {
	if sale.ID == "" {
		return ErrEmptyID
	}
	return g.db.WithContext(ctx).Create(sale).Error
}

func (g *GormStorage) Read(ctx context.Context, id string) (*Sale, error) {
	var sale Sale
	err := g.db.WithContext(ctx).Preload("Items").First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (g *GormStorage) Search(ctx context.Context, filter SaleFilter) ([]*Sale, error) {
	q := g.db.WithContext(ctx).Preload("Items")
	if filter.Customer != nil {
		q = q.Where("customer_name = ?", string(*filter.Customer))
	}
	if filter.PaymentType != "" {
		q = q.Where("payment_type = ?", string(filter.PaymentType))
	}
	if filter.Paid != nil {
		q = q.Where("paid = ?", *filter.Paid)
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

	order := "date desc, created_at desc, id desc"
	if filter.ByEntry {
		order = "created_at desc, id desc"
	}

	sales := make([]*Sale, 0)
	if err := q.Order(order).Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// Delete removes the sale and its items in one transaction.
func (g *GormStorage) Delete(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&SaleItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Sale{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (g *GormStorage) OutstandingCreditSales(ctx context.Context, customer *CustomerName) ([]*Sale, error) {
	q := g.db.WithContext(ctx).
		Where("payment_type = ? AND paid = ? AND customer_name IS NOT NULL", string(PaymentCredit), false)
	if customer != nil {
		q = q.Where("customer_name = ?", string(*customer))
	}

	sales := make([]*Sale, 0)
	if err := q.Order("date asc, created_at asc, id asc").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (g *GormStorage) PaymentsForSales(ctx context.Context, saleIDs []string) ([]Payment, error) {
	payments := make([]Payment, 0)
	if len(saleIDs) == 0 {
		return payments, nil
	}
	if err := g.db.WithContext(ctx).Where("sale_id IN ?", saleIDs).Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (g *GormStorage) Payments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	q := g.db.WithContext(ctx)
	if !filter.From.IsZero() {
		q = q.Where("payment_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("payment_date <= ?", filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	payments := make([]Payment, 0)
	if err := q.Order("payment_date desc, created_at desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (g *GormStorage) InsertPayments(ctx context.Context, payments []Payment) error {
	if len(payments) == 0 {
		return nil
	}
	for _, p := range payments {
		if p.ID == "" {
			return ErrEmptyID
		}
	}
	return g.db.WithContext(ctx).Create(&payments).Error
}

func (g *GormStorage) MarkSalesPaid(ctx context.Context, saleIDs []string) error {
	if len(saleIDs) == 0 {
		return nil
	}
	res := g.db.WithContext(ctx).Model(&Sale{}).Where("id IN ?", saleIDs).Update("paid", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(saleIDs)) {
		return ErrNotFound
	}
	return nil
}

func (g *GormStorage) Transaction(ctx context.Context, fn func(tx Storage) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStorage{db: tx})
	})
}
