package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursecart/server/internal/module/cart"
	"github.com/coursecart/server/internal/module/payment"
)

type mockOrderRepository struct {
	orders    map[uuid.UUID]*Order
	createErr error
	creates   int
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, o *Order) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	m.orders[o.PaymentID] = o
	return nil
}

func (m *mockOrderRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*Order, error) {
	if o, ok := m.orders[paymentID]; ok {
		return o, nil
	}
	return nil, ErrOrderNotFound
}

type mockCartRemover struct {
	removed []cart.Line
	err     error
}

func (m *mockCartRemover) RemoveLines(ctx context.Context, parentID uuid.UUID, lines []cart.Line) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, lines...)
	return nil
}

func settledPayment(t *testing.T) *payment.Payment {
	t.Helper()
	settledAt := time.Now()
	p := &payment.Payment{
		ID:        uuid.New(),
		OrderCode: "PAY-20260830-TESTCODE",
		ParentID:  uuid.New(),
		Provider:  "stripe",
		Amount:    28000,
		Status:    payment.StatusPaid,
		SettledAt: &settledAt,
		Items: []payment.PaymentItem{
			{CourseID: uuid.New(), CourseTitle: "Piano Basics", ChildID: uuid.New(), ChildName: "Alice", UnitPrice: 12000, Quantity: 1, Subtotal: 12000},
			{CourseID: uuid.New(), CourseTitle: "Chess Club", ChildID: uuid.New(), ChildName: "Bob", UnitPrice: 8000, Quantity: 2, Subtotal: 16000},
		},
	}
	return p
}

func TestMaterializer_CreatesOrderWithItems(t *testing.T) {
	repo := newMockOrderRepository()
	carts := &mockCartRemover{}
	m := NewMaterializer(repo, carts, zap.NewNop())
	p := settledPayment(t)

	orderID, err := m.Materialize(context.Background(), p)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, orderID)

	o := repo.orders[p.ID]
	require.NotNil(t, o)
	assert.Equal(t, p.OrderCode, o.OrderCode)
	assert.Equal(t, p.Amount, o.Amount)
	require.Len(t, o.Items, 2)

	var sum int64
	for _, item := range o.Items {
		sum += item.Subtotal
	}
	assert.Equal(t, p.Amount, sum)
}

func TestMaterializer_RemovesPurchasedCartLines(t *testing.T) {
	repo := newMockOrderRepository()
	carts := &mockCartRemover{}
	m := NewMaterializer(repo, carts, zap.NewNop())
	p := settledPayment(t)

	_, err := m.Materialize(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, carts.removed, 2)
	assert.Equal(t, p.Items[0].CourseID, carts.removed[0].CourseID)
	assert.Equal(t, p.Items[1].ChildID, carts.removed[1].ChildID)
}

func TestMaterializer_DuplicateIsNoOp(t *testing.T) {
	repo := newMockOrderRepository()
	carts := &mockCartRemover{}
	m := NewMaterializer(repo, carts, zap.NewNop())
	p := settledPayment(t)

	first, err := m.Materialize(context.Background(), p)
	require.NoError(t, err)

	second, err := m.Materialize(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.creates)
}

func TestMaterializer_AmountConservation(t *testing.T) {
	repo := newMockOrderRepository()
	m := NewMaterializer(repo, &mockCartRemover{}, zap.NewNop())

	t.Run("total mismatch", func(t *testing.T) {
		p := settledPayment(t)
		p.Amount = 99999
		_, err := m.Materialize(context.Background(), p)
		assert.ErrorIs(t, err, ErrAmountConservation)
		assert.Empty(t, repo.orders)
	})

	t.Run("line subtotal mismatch", func(t *testing.T) {
		p := settledPayment(t)
		p.Items[1].Subtotal = 15000
		_, err := m.Materialize(context.Background(), p)
		assert.ErrorIs(t, err, ErrAmountConservation)
	})
}

func TestMaterializer_CreateFailurePropagates(t *testing.T) {
	repo := newMockOrderRepository()
	repo.createErr = errors.New("insert failed")
	m := NewMaterializer(repo, &mockCartRemover{}, zap.NewNop())

	_, err := m.Materialize(context.Background(), settledPayment(t))
	assert.Error(t, err)
}

func TestMaterializer_CartRemovalFailurePropagates(t *testing.T) {
	repo := newMockOrderRepository()
	carts := &mockCartRemover{err: errors.New("delete failed")}
	m := NewMaterializer(repo, carts, zap.NewNop())

	_, err := m.Materialize(context.Background(), settledPayment(t))
	assert.Error(t, err)
}
