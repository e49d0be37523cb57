package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursecart/server/internal/shared/database"
)

// Repository provides access to cart item storage.
type Repository interface {
	Create(ctx context.Context, item *CartItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*CartItem, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*CartItem, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]*CartItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteLines(ctx context.Context, parentID uuid.UUID, lines []Line) error
}

// Line identifies one cart line by its course/child pair.
type Line struct {
	CourseID uuid.UUID
	ChildID  uuid.UUID
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a cart repository backed by gorm.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *gormRepository) Create(ctx context.Context, item *CartItem) error {
	if err := r.conn(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCartItem
		}
		return fmt.Errorf("create cart item: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*CartItem, error) {
	var item CartItem
	if err := r.conn(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return &item, nil
}

func (r *gormRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*CartItem, error) {
	var items []*CartItem
	if err := r.conn(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	result := make(map[uuid.UUID]*CartItem, len(items))
	for _, item := range items {
		result[item.ID] = item
	}
	return result, nil
}

func (r *gormRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*CartItem, error) {
	var items []*CartItem
	if err := r.conn(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	return items, nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Delete(&CartItem{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// DeleteLines removes the given course/child lines from a parent's cart.
// Lines that are no longer present are skipped.
func (r *gormRepository) DeleteLines(ctx context.Context, parentID uuid.UUID, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	conn := r.conn(ctx)
	for _, line := range lines {
		if err := conn.
			Where("parent_id = ? AND course_id = ? AND child_id = ?", parentID, line.CourseID, line.ChildID).
			Delete(&CartItem{}).Error; err != nil {
			return fmt.Errorf("delete cart line: %w", err)
		}
	}
	return nil
}
