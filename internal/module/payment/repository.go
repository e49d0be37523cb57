package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coursecart/server/internal/shared/database"
)

// Repository provides access to payment storage.
type Repository interface {
	// Transaction runs fn inside a database transaction. The
	// transaction handle travels on the context so nested repository
	// calls, including other modules', join it.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, p *Payment) error
	GetByOrderCode(ctx context.Context, orderCode string) (*Payment, error)
	// GetByOrderCodeForUpdate loads the payment under a row lock. Must
	// be called inside Transaction; it is the per-order-code
	// single-writer section.
	GetByOrderCodeForUpdate(ctx context.Context, orderCode string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by gorm.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.Transaction(ctx, r.db, fn)
}

func (r *gormRepository) Create(ctx context.Context, p *Payment) error {
	if err := r.conn(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByOrderCode(ctx context.Context, orderCode string) (*Payment, error) {
	var p Payment
	err := r.conn(ctx).
		Preload("Items").
		First(&p, "order_code = ?", orderCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownOrder
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) GetByOrderCodeForUpdate(ctx context.Context, orderCode string) (*Payment, error) {
	var p Payment
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "order_code = ?", orderCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownOrder
		}
		return nil, fmt.Errorf("get payment for update: %w", err)
	}
	// Items are append-only, no need to lock them.
	if err := r.conn(ctx).Where("payment_id = ?", p.ID).Order("created_at ASC").Find(&p.Items).Error; err != nil {
		return nil, fmt.Errorf("load payment items: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) Update(ctx context.Context, p *Payment) error {
	if err := r.conn(ctx).Omit("Items").Save(p).Error; err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

func (r *gormRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var codes []string
	err := r.conn(ctx).
		Model(&Payment{}).
		Where("status = ? AND expires_at <= ?", StatusPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("order_code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("list expired pending: %w", err)
	}
	return codes, nil
}
