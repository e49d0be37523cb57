package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursecart/server/internal/shared/database"
)

// Module errors.
var (
	ErrCourseNotFound = errors.New("course not found")
	ErrChildNotFound  = errors.New("child not found")
)

// Repository provides read access to courses and children.
type Repository interface {
	GetCourse(ctx context.Context, id uuid.UUID) (*Course, error)
	GetCourses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Course, error)
	ListCourses(ctx context.Context) ([]*Course, error)
	GetChild(ctx context.Context, id uuid.UUID) (*Child, error)
	GetChildren(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Child, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a catalog repository backed by gorm.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) conn(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *gormRepository) GetCourse(ctx context.Context, id uuid.UUID) (*Course, error) {
	var course Course
	if err := r.conn(ctx).First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &course, nil
}

func (r *gormRepository) GetCourses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Course, error) {
	var courses []*Course
	if err := r.conn(ctx).Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("get courses: %w", err)
	}
	result := make(map[uuid.UUID]*Course, len(courses))
	for _, c := range courses {
		result[c.ID] = c
	}
	return result, nil
}

func (r *gormRepository) ListCourses(ctx context.Context) ([]*Course, error) {
	var courses []*Course
	if err := r.conn(ctx).Where("active = ?", true).Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (r *gormRepository) GetChild(ctx context.Context, id uuid.UUID) (*Child, error) {
	var child Child
	if err := r.conn(ctx).First(&child, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChildNotFound
		}
		return nil, fmt.Errorf("get child: %w", err)
	}
	return &child, nil
}

func (r *gormRepository) GetChildren(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Child, error) {
	var children []*Child
	if err := r.conn(ctx).Where("id IN ?", ids).Find(&children).Error; err != nil {
		return nil, fmt.Errorf("get children: %w", err)
	}
	result := make(map[uuid.UUID]*Child, len(children))
	for _, c := range children {
		result[c.ID] = c
	}
	return result, nil
}
