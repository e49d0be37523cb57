package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coursecart/server/internal/module/catalog"
)

// Service implements cart operations and payment intent aggregation.
type Service struct {
	repo    Repository
	catalog catalog.Repository
	logger  *zap.Logger
}

// NewService creates a new cart service.
func NewService(repo Repository, catalogRepo catalog.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalogRepo,
		logger:  logger,
	}
}

// AddItem adds a course/child line to the parent's cart. The child must
// belong to the parent and the course must be active.
func (s *Service) AddItem(ctx context.Context, parentID, courseID, childID uuid.UUID, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, catalog.ErrCourseNotFound) {
			return nil, ErrCourseUnavailable
		}
		return nil, fmt.Errorf("resolve course: %w", err)
	}
	if !course.Active {
		return nil, ErrCourseUnavailable
	}

	child, err := s.catalog.GetChild(ctx, childID)
	if err != nil {
		if errors.Is(err, catalog.ErrChildNotFound) {
			return nil, ErrChildNotOwned
		}
		return nil, fmt.Errorf("resolve child: %w", err)
	}
	if child.ParentID != parentID {
		return nil, ErrChildNotOwned
	}

	item := &CartItem{
		ParentID: parentID,
		CourseID: courseID,
		ChildID:  childID,
		Quantity: quantity,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("cart item added",
		zap.String("parent_id", parentID.String()),
		zap.String("course_id", courseID.String()),
		zap.String("child_id", childID.String()))

	return item, nil
}

// ListItems returns the parent's cart lines in insertion order.
func (s *Service) ListItems(ctx context.Context, parentID uuid.UUID) ([]*CartItem, error) {
	return s.repo.ListByParent(ctx, parentID)
}

// RemoveItem removes a cart line owned by the parent.
func (s *Service) RemoveItem(ctx context.Context, parentID, itemID uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.ParentID != parentID {
		return ErrCartItemNotFound
	}
	return s.repo.Delete(ctx, itemID)
}

// BuildIntent turns the selected cart lines into a priced payment
// intent. Prices are snapshotted from the catalog at build time and
// lines keep the selection order. Every id must resolve to a line owned
// by the parent; an empty or duplicated selection is an error.
func (s *Service) BuildIntent(ctx context.Context, parentID uuid.UUID, itemIDs []uuid.UUID) (*Intent, error) {
	if len(itemIDs) == 0 {
		return nil, ErrEmptyCart
	}
	seen := make(map[uuid.UUID]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSelection, id)
		}
		seen[id] = struct{}{}
	}

	rows, err := s.repo.GetByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	items := make([]*CartItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, ok := rows[id]
		// A line owned by another parent is indistinguishable from a
		// missing one.
		if !ok || item.ParentID != parentID {
			return nil, fmt.Errorf("%w: %s", ErrCartItemNotFound, id)
		}
		items = append(items, item)
	}

	courseIDs := make([]uuid.UUID, 0, len(items))
	childIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		courseIDs = append(courseIDs, item.CourseID)
		childIDs = append(childIDs, item.ChildID)
	}

	courses, err := s.catalog.GetCourses(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve courses: %w", err)
	}
	children, err := s.catalog.GetChildren(ctx, childIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve children: %w", err)
	}

	intent := &Intent{
		ParentID: parentID,
		Lines:    make([]IntentLine, 0, len(items)),
	}
	for _, item := range items {
		course, ok := courses[item.CourseID]
		if !ok || !course.Active {
			return nil, ErrCourseUnavailable
		}
		child, ok := children[item.ChildID]
		if !ok || child.ParentID != parentID {
			return nil, ErrChildNotOwned
		}

		subtotal := course.Price * int64(item.Quantity)
		intent.Lines = append(intent.Lines, IntentLine{
			CourseID:    course.ID,
			CourseTitle: course.Title,
			ChildID:     child.ID,
			ChildName:   child.FullName,
			UnitPrice:   course.Price,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
		})
		intent.Total += subtotal
	}

	return intent, nil
}

// RemoveLines removes the given course/child lines from the parent's
// cart. Used after settlement to clear purchased lines.
func (s *Service) RemoveLines(ctx context.Context, parentID uuid.UUID, lines []Line) error {
	return s.repo.DeleteLines(ctx, parentID, lines)
}
