package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coursecart/server/internal/module/cart"
	"github.com/coursecart/server/internal/module/payment"
)

// CartRemover clears purchased lines from the buyer's cart inside the
// settlement transaction.
type CartRemover interface {
	RemoveLines(ctx context.Context, parentID uuid.UUID, lines []cart.Line) error
}

// Materializer turns a settled payment into an order with its item
// batch. It runs inside the settlement transaction, so any failure here
// rolls the whole settlement back.
type Materializer struct {
	repo   Repository
	carts  CartRemover
	logger *zap.Logger
}

// NewMaterializer creates a new order materializer.
func NewMaterializer(repo Repository, carts CartRemover, logger *zap.Logger) *Materializer {
	return &Materializer{
		repo:   repo,
		carts:  carts,
		logger: logger,
	}
}

// Materialize creates the order for a payment the ledger is flipping to
// PAID. The ledger calls it exactly once per flip; the payment-id
// lookup is the second line of defense, turning an unexpected repeat
// into a no-op that returns the existing order.
func (m *Materializer) Materialize(ctx context.Context, p *payment.Payment) (uuid.UUID, error) {
	existing, err := m.repo.GetByPaymentID(ctx, p.ID)
	if err == nil {
		m.logger.Warn("order already materialized",
			zap.String("order_code", p.OrderCode),
			zap.String("order_id", existing.ID.String()))
		return existing.ID, nil
	}
	if !errors.Is(err, ErrOrderNotFound) {
		return uuid.Nil, err
	}

	var sum int64
	for _, item := range p.Items {
		if item.Subtotal != item.UnitPrice*int64(item.Quantity) {
			return uuid.Nil, fmt.Errorf("%w: line %s", ErrAmountConservation, item.CourseID)
		}
		sum += item.Subtotal
	}
	if sum != p.Amount {
		return uuid.Nil, fmt.Errorf("%w: items %d, payment %d", ErrAmountConservation, sum, p.Amount)
	}

	o := &Order{
		PaymentID: p.ID,
		OrderCode: p.OrderCode,
		ParentID:  p.ParentID,
		Amount:    p.Amount,
		Provider:  p.Provider,
		SettledAt: *p.SettledAt,
	}
	lines := make([]cart.Line, 0, len(p.Items))
	for _, item := range p.Items {
		o.Items = append(o.Items, OrderItem{
			CourseID:    item.CourseID,
			CourseTitle: item.CourseTitle,
			ChildID:     item.ChildID,
			ChildName:   item.ChildName,
			Price:       item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		})
		lines = append(lines, cart.Line{CourseID: item.CourseID, ChildID: item.ChildID})
	}

	if err := m.repo.Create(ctx, o); err != nil {
		return uuid.Nil, err
	}
	if err := m.carts.RemoveLines(ctx, p.ParentID, lines); err != nil {
		return uuid.Nil, fmt.Errorf("clear purchased cart lines: %w", err)
	}

	m.logger.Info("order materialized",
		zap.String("order_code", p.OrderCode),
		zap.String("order_id", o.ID.String()),
		zap.Int("items", len(o.Items)))

	return o.ID, nil
}
