package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads the settled-order projection.
type Repository interface {
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]*Transaction, error)
}

// orderRow and orderItemRow are local read mappings over the order
// tables. The projection never writes, so it carries its own narrow
// structs instead of the order module's models. ProviderRef and Status
// come off the joined payment row.
type orderRow struct {
	ID          uuid.UUID
	OrderCode   string
	ProviderRef string
	Amount      int64
	Status      string
	Provider    string
	SettledAt   time.Time
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	OrderID     uuid.UUID
	CourseID    uuid.UUID
	CourseTitle string
	ChildID     uuid.UUID
	ChildName   string
	Price       int64
	Quantity    int
	Subtotal    int64
}

func (orderItemRow) TableName() string { return "order_items" }

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a transaction read repository backed by gorm.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*Transaction, error) {
	var orders []orderRow
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("orders.id, orders.order_code, orders.amount, orders.provider, orders.settled_at, payments.provider_ref, payments.status").
		Joins("JOIN payments ON payments.id = orders.payment_id").
		Where("orders.parent_id = ?", parentID).
		Order("orders.settled_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list settled orders: %w", err)
	}
	if len(orders) == 0 {
		return []*Transaction{}, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}

	var items []orderItemRow
	err = r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	itemsByOrder := make(map[uuid.UUID][]TransactionItem, len(orders))
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], TransactionItem{
			CourseID:    item.CourseID,
			CourseTitle: item.CourseTitle,
			ChildID:     item.ChildID,
			ChildName:   item.ChildName,
			Price:       item.Price,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		})
	}

	result := make([]*Transaction, 0, len(orders))
	for _, o := range orders {
		tx := &Transaction{
			OrderID:     o.ID,
			OrderCode:   o.OrderCode,
			ProviderRef: o.ProviderRef,
			Amount:      o.Amount,
			Status:      o.Status,
			Provider:    o.Provider,
			SettledAt:   o.SettledAt,
			Items:       itemsByOrder[o.ID],
		}
		if tx.Items == nil {
			// An order with no surviving items still renders.
			tx.Items = []TransactionItem{}
		}
		result = append(result, tx)
	}
	return result, nil
}
