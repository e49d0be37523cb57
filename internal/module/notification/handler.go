// Package notification is the fire-and-forget sink for settlement
// events. Delivery transport (email, push) is an external collaborator;
// this module shapes and dispatches the message and never reports
// failure back into the settlement path.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coursecart/server/internal/shared/events"
)

// Sender delivers a rendered notification. Implementations are
// best-effort; errors are logged and dropped.
type Sender interface {
	Send(ctx context.Context, parentID, subject, body string) error
}

// logSender writes notifications to the log. Stands in until a real
// transport is configured.
type logSender struct {
	logger *zap.Logger
}

// NewLogSender creates a Sender that logs instead of delivering.
func NewLogSender(logger *zap.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) Send(ctx context.Context, parentID, subject, body string) error {
	s.logger.Info("notification dispatched",
		zap.String("parent_id", parentID),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// SettlementNotifier subscribes to settlement lifecycle events and
// dispatches parent-facing notifications.
type SettlementNotifier struct {
	sender Sender
	logger *zap.Logger
}

// NewSettlementNotifier creates a new settlement notifier.
func NewSettlementNotifier(sender Sender, logger *zap.Logger) *SettlementNotifier {
	return &SettlementNotifier{sender: sender, logger: logger}
}

// Handles returns the event types this handler processes.
func (n *SettlementNotifier) Handles() []string {
	return []string{events.OrderSettledType, events.PaymentExpiredType}
}

// Handle processes an event. Errors are swallowed after logging; a
// failed notification must never disturb the settlement that caused it.
func (n *SettlementNotifier) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.OrderSettledEvent:
		subject := "Enrollment confirmed"
		body := fmt.Sprintf("Your payment %s for %d enrollment(s) has been confirmed.", e.OrderCode, len(e.Items))
		if err := n.sender.Send(ctx, e.ParentID.String(), subject, body); err != nil {
			n.logger.Warn("settlement notification failed",
				zap.String("order_code", e.OrderCode),
				zap.Error(err))
		}
	case *events.PaymentExpiredEvent:
		subject := "Payment expired"
		body := fmt.Sprintf("Your payment %s expired before completion. The items remain in your cart.", e.OrderCode)
		if err := n.sender.Send(ctx, e.ParentID.String(), subject, body); err != nil {
			n.logger.Warn("expiry notification failed",
				zap.String("order_code", e.OrderCode),
				zap.Error(err))
		}
	default:
		n.logger.Debug("ignoring event", zap.String("type", event.EventType()))
	}
	return nil
}
