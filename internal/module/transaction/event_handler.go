package transaction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coursecart/server/internal/shared/events"
)

// SettlementHandler invalidates the cached history when a new
// settlement lands for a parent.
type SettlementHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewSettlementHandler creates a new settlement event handler.
func NewSettlementHandler(service *Service, logger *zap.Logger) *SettlementHandler {
	return &SettlementHandler{service: service, logger: logger}
}

// Handles returns the event types this handler processes.
func (h *SettlementHandler) Handles() []string {
	return []string{events.OrderSettledType}
}

// Handle processes an event.
func (h *SettlementHandler) Handle(ctx context.Context, event events.Event) error {
	settled, ok := event.(*events.OrderSettledEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	h.service.InvalidateFor(ctx, settled.ParentID)
	h.logger.Debug("transaction history invalidated",
		zap.String("parent_id", settled.ParentID.String()),
		zap.String("order_code", settled.OrderCode))
	return nil
}
