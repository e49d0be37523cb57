package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursecart/server/internal/shared/database"
)

// Repository provides access to order storage. Orders are only ever
// created inside the settlement transaction.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*Order, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an order repository backed by gorm.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

// Create inserts the order and its full item batch. Under the
// settlement transaction either all rows land or none do.
func (r *gormRepository) Create(ctx context.Context, o *Order) error {
	if err := r.conn(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*Order, error) {
	var o Order
	err := r.conn(ctx).
		Preload("Items").
		First(&o, "payment_id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by payment: %w", err)
	}
	return &o, nil
}
