package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursecart/server/internal/module/catalog"
)

type mockCartRepository struct {
	mu    sync.Mutex
	items []*CartItem
}

func (m *mockCartRepository) Create(ctx context.Context, item *CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.ParentID == item.ParentID && existing.CourseID == item.CourseID && existing.ChildID == item.ChildID {
			return ErrDuplicateCartItem
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now()
	m.items = append(m.items, item)
	return nil
}

func (m *mockCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, ErrCartItemNotFound
}

func (m *mockCartRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[uuid.UUID]*CartItem)
	for _, item := range m.items {
		for _, id := range ids {
			if item.ID == id {
				result[id] = item
			}
		}
	}
	return result, nil
}

func (m *mockCartRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*CartItem
	for _, item := range m.items {
		if item.ParentID == parentID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *mockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return ErrCartItemNotFound
}

func (m *mockCartRepository) DeleteLines(ctx context.Context, parentID uuid.UUID, lines []Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	for _, item := range m.items {
		removed := false
		for _, line := range lines {
			if item.ParentID == parentID && item.CourseID == line.CourseID && item.ChildID == line.ChildID {
				removed = true
				break
			}
		}
		if !removed {
			kept = append(kept, item)
		}
	}
	m.items = kept
	return nil
}

type mockCatalogRepository struct {
	courses  map[uuid.UUID]*catalog.Course
	children map[uuid.UUID]*catalog.Child
}

func newMockCatalog() *mockCatalogRepository {
	return &mockCatalogRepository{
		courses:  make(map[uuid.UUID]*catalog.Course),
		children: make(map[uuid.UUID]*catalog.Child),
	}
}

func (m *mockCatalogRepository) GetCourse(ctx context.Context, id uuid.UUID) (*catalog.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, catalog.ErrCourseNotFound
}

func (m *mockCatalogRepository) GetCourses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Course, error) {
	result := make(map[uuid.UUID]*catalog.Course)
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

func (m *mockCatalogRepository) ListCourses(ctx context.Context) ([]*catalog.Course, error) {
	var result []*catalog.Course
	for _, c := range m.courses {
		result = append(result, c)
	}
	return result, nil
}

func (m *mockCatalogRepository) GetChild(ctx context.Context, id uuid.UUID) (*catalog.Child, error) {
	if c, ok := m.children[id]; ok {
		return c, nil
	}
	return nil, catalog.ErrChildNotFound
}

func (m *mockCatalogRepository) GetChildren(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Child, error) {
	result := make(map[uuid.UUID]*catalog.Child)
	for _, id := range ids {
		if c, ok := m.children[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

func (m *mockCatalogRepository) addCourse(title string, price int64, active bool) *catalog.Course {
	c := &catalog.Course{ID: uuid.New(), Title: title, Price: price, Active: active}
	m.courses[c.ID] = c
	return c
}

func (m *mockCatalogRepository) addChild(parentID uuid.UUID, name string) *catalog.Child {
	c := &catalog.Child{ID: uuid.New(), ParentID: parentID, FullName: name}
	m.children[c.ID] = c
	return c
}

func newTestService() (*Service, *mockCartRepository, *mockCatalogRepository) {
	repo := &mockCartRepository{}
	cat := newMockCatalog()
	return NewService(repo, cat, zap.NewNop()), repo, cat
}

func TestService_AddItem(t *testing.T) {
	svc, _, cat := newTestService()
	parentID := uuid.New()
	course := cat.addCourse("Piano Basics", 12000, true)
	child := cat.addChild(parentID, "Alice")

	item, err := svc.AddItem(context.Background(), parentID, course.ID, child.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, parentID, item.ParentID)
	assert.Equal(t, 1, item.Quantity)

	t.Run("duplicate line rejected", func(t *testing.T) {
		_, err := svc.AddItem(context.Background(), parentID, course.ID, child.ID, 1)
		assert.ErrorIs(t, err, ErrDuplicateCartItem)
	})

	t.Run("inactive course rejected", func(t *testing.T) {
		inactive := cat.addCourse("Retired Course", 5000, false)
		_, err := svc.AddItem(context.Background(), parentID, inactive.ID, child.ID, 1)
		assert.ErrorIs(t, err, ErrCourseUnavailable)
	})

	t.Run("unknown course rejected", func(t *testing.T) {
		_, err := svc.AddItem(context.Background(), parentID, uuid.New(), child.ID, 1)
		assert.ErrorIs(t, err, ErrCourseUnavailable)
	})

	t.Run("other parent's child rejected", func(t *testing.T) {
		otherChild := cat.addChild(uuid.New(), "Bob")
		_, err := svc.AddItem(context.Background(), parentID, course.ID, otherChild.ID, 1)
		assert.ErrorIs(t, err, ErrChildNotOwned)
	})

	t.Run("non positive quantity rejected", func(t *testing.T) {
		_, err := svc.AddItem(context.Background(), parentID, course.ID, child.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestService_RemoveItem(t *testing.T) {
	svc, _, cat := newTestService()
	parentID := uuid.New()
	course := cat.addCourse("Chess Club", 8000, true)
	child := cat.addChild(parentID, "Alice")

	item, err := svc.AddItem(context.Background(), parentID, course.ID, child.ID, 1)
	require.NoError(t, err)

	t.Run("other parent cannot remove", func(t *testing.T) {
		err := svc.RemoveItem(context.Background(), uuid.New(), item.ID)
		assert.ErrorIs(t, err, ErrCartItemNotFound)
	})

	t.Run("owner removes", func(t *testing.T) {
		require.NoError(t, svc.RemoveItem(context.Background(), parentID, item.ID))
		items, err := svc.ListItems(context.Background(), parentID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestService_BuildIntent(t *testing.T) {
	svc, _, cat := newTestService()
	parentID := uuid.New()
	piano := cat.addCourse("Piano Basics", 12000, true)
	chess := cat.addCourse("Chess Club", 8000, true)
	alice := cat.addChild(parentID, "Alice")
	bob := cat.addChild(parentID, "Bob")

	pianoItem, err := svc.AddItem(context.Background(), parentID, piano.ID, alice.ID, 1)
	require.NoError(t, err)
	chessItem, err := svc.AddItem(context.Background(), parentID, chess.ID, bob.ID, 2)
	require.NoError(t, err)

	intent, err := svc.BuildIntent(context.Background(), parentID, []uuid.UUID{pianoItem.ID, chessItem.ID})
	require.NoError(t, err)

	require.Len(t, intent.Lines, 2)
	assert.Equal(t, "Piano Basics", intent.Lines[0].CourseTitle)
	assert.Equal(t, "Chess Club", intent.Lines[1].CourseTitle)
	assert.Equal(t, int64(12000), intent.Lines[0].Subtotal)
	assert.Equal(t, int64(16000), intent.Lines[1].Subtotal)
	assert.Equal(t, int64(28000), intent.Total)

	t.Run("selection order preserved", func(t *testing.T) {
		intent, err := svc.BuildIntent(context.Background(), parentID, []uuid.UUID{chessItem.ID, pianoItem.ID})
		require.NoError(t, err)
		require.Len(t, intent.Lines, 2)
		assert.Equal(t, "Chess Club", intent.Lines[0].CourseTitle)
		assert.Equal(t, "Piano Basics", intent.Lines[1].CourseTitle)
	})

	t.Run("subset leaves other lines alone", func(t *testing.T) {
		intent, err := svc.BuildIntent(context.Background(), parentID, []uuid.UUID{chessItem.ID})
		require.NoError(t, err)
		require.Len(t, intent.Lines, 1)
		assert.Equal(t, "Chess Club", intent.Lines[0].CourseTitle)
		assert.Equal(t, int64(16000), intent.Total)

		items, err := svc.ListItems(context.Background(), parentID)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("unknown item rejected", func(t *testing.T) {
		_, err := svc.BuildIntent(context.Background(), parentID, []uuid.UUID{pianoItem.ID, uuid.New()})
		assert.ErrorIs(t, err, ErrCartItemNotFound)
	})

	t.Run("other parent's item rejected", func(t *testing.T) {
		_, err := svc.BuildIntent(context.Background(), uuid.New(), []uuid.UUID{pianoItem.ID})
		assert.ErrorIs(t, err, ErrCartItemNotFound)
	})

	t.Run("duplicated id rejected", func(t *testing.T) {
		_, err := svc.BuildIntent(context.Background(), parentID, []uuid.UUID{pianoItem.ID, pianoItem.ID})
		assert.ErrorIs(t, err, ErrDuplicateSelection)
	})
}

func TestService_BuildIntent_EmptySelection(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.BuildIntent(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestService_BuildIntent_CourseDeactivatedAfterAdd(t *testing.T) {
	svc, _, cat := newTestService()
	parentID := uuid.New()
	course := cat.addCourse("Piano Basics", 12000, true)
	child := cat.addChild(parentID, "Alice")

	item, err := svc.AddItem(context.Background(), parentID, course.ID, child.ID, 1)
	require.NoError(t, err)

	course.Active = false

	_, err = svc.BuildIntent(context.Background(), parentID, []uuid.UUID{item.ID})
	assert.ErrorIs(t, err, ErrCourseUnavailable)
}

func TestService_RemoveLines(t *testing.T) {
	svc, _, cat := newTestService()
	parentID := uuid.New()
	piano := cat.addCourse("Piano Basics", 12000, true)
	chess := cat.addCourse("Chess Club", 8000, true)
	alice := cat.addChild(parentID, "Alice")

	_, err := svc.AddItem(context.Background(), parentID, piano.ID, alice.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), parentID, chess.ID, alice.ID, 1)
	require.NoError(t, err)

	err = svc.RemoveLines(context.Background(), parentID, []Line{{CourseID: piano.ID, ChildID: alice.ID}})
	require.NoError(t, err)

	items, err := svc.ListItems(context.Background(), parentID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, chess.ID, items[0].CourseID)
}
