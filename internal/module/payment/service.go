package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coursecart/server/internal/module/payment/gateway"
	"github.com/coursecart/server/internal/shared/events"
	"github.com/coursecart/server/internal/shared/metrics"
	"github.com/coursecart/server/internal/shared/random"
)

const expireBatchSize = 100

// ServiceConfig holds payment service configuration.
type ServiceConfig struct {
	DefaultProvider string
	ExpireAfter     time.Duration
}

// Service is the payment ledger. Every path that can settle a payment
// funnels through settle, which holds the row lock for the order code.
type Service struct {
	repo         Repository
	carts        CartAggregator
	materializer OrderMaterializer
	registry     *gateway.Registry
	bus          EventPublisher
	metrics      *metrics.Metrics
	logger       *zap.Logger
	config       ServiceConfig
}

// NewService creates a new payment service.
func NewService(
	repo Repository,
	carts CartAggregator,
	materializer OrderMaterializer,
	registry *gateway.Registry,
	bus EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	config ServiceConfig,
) *Service {
	return &Service{
		repo:         repo,
		carts:        carts,
		materializer: materializer,
		registry:     registry,
		bus:          bus,
		metrics:      m,
		logger:       logger,
		config:       config,
	}
}

// newOrderCode generates a merchant-side order code, e.g.
// PAY-20260830-7KQX2M4A.
func newOrderCode() string {
	return fmt.Sprintf("PAY-%s-%s", time.Now().Format("20060102"), random.UpperAlphaNum(8))
}

// CreatePayment freezes the selected cart lines into a PENDING ledger
// row and opens a gateway session for it. The cart itself is not
// touched until settlement.
func (s *Service) CreatePayment(ctx context.Context, parentID uuid.UUID, itemIDs []uuid.UUID, providerName, description string) (*Payment, error) {
	if providerName == "" {
		providerName = s.config.DefaultProvider
	}
	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	intent, err := s.carts.BuildIntent(ctx, parentID, itemIDs)
	if err != nil {
		return nil, err
	}
	if intent.Total <= 0 {
		return nil, fmt.Errorf("%w: total %d", ErrInvalidAmount, intent.Total)
	}

	p := &Payment{
		OrderCode:   newOrderCode(),
		ParentID:    parentID,
		Provider:    providerName,
		Amount:      intent.Total,
		Status:      StatusPending,
		Description: description,
		ExpiresAt:   time.Now().Add(s.config.ExpireAfter),
	}
	for _, line := range intent.Lines {
		p.Items = append(p.Items, PaymentItem{
			CourseID:    line.CourseID,
			CourseTitle: line.CourseTitle,
			ChildID:     line.ChildID,
			ChildName:   line.ChildName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Subtotal:    line.Subtotal,
		})
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	req := &gateway.SessionRequest{
		OrderCode:   p.OrderCode,
		Amount:      p.Amount,
		Subject:     sessionSubject(p),
		Description: description,
		ExpiresAt:   p.ExpiresAt,
	}
	for _, item := range p.Items {
		req.Lines = append(req.Lines, gateway.SessionLine{
			Name:       item.CourseTitle,
			UnitAmount: item.UnitPrice,
			Quantity:   int64(item.Quantity),
		})
	}

	session, err := provider.OpenSession(ctx, req)
	if err != nil {
		// The PENDING row stays; the expiry sweep reclaims it.
		s.metrics.RecordGatewayCall(providerName, "error")
		return nil, fmt.Errorf("open gateway session: %w", err)
	}
	s.metrics.RecordGatewayCall(providerName, "ok")

	p.ProviderRef = session.ProviderRef
	p.PaymentURL = session.PaymentURL
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("payment created",
		zap.String("order_code", p.OrderCode),
		zap.String("provider", providerName),
		zap.Int64("amount", p.Amount))

	return p, nil
}

func sessionSubject(p *Payment) string {
	if len(p.Items) == 1 {
		return p.Items[0].CourseTitle
	}
	return fmt.Sprintf("%d course enrollments", len(p.Items))
}

// settle is the single settlement path. All success signals, webhook,
// return query and any future channel, converge here. The row lock on
// the order code serializes racing settles and cancels.
func (s *Service) settle(ctx context.Context, notify *gateway.Notify) (*Payment, error) {
	var settled *Payment
	var event *events.OrderSettledEvent

	err := s.repo.Transaction(ctx, func(txCtx context.Context) error {
		p, err := s.repo.GetByOrderCodeForUpdate(txCtx, notify.OrderCode)
		if err != nil {
			return err
		}

		switch p.Status {
		case StatusCancelled, StatusExpired:
			return fmt.Errorf("%w: payment is %s", ErrSettlementConflict, p.Status)
		}
		if p.Status == StatusPaid {
			// Replayed notification, settlement already happened. The
			// amount check is skipped; success replays acknowledge the
			// existing settlement unconditionally.
			settled = p
			return nil
		}
		if notify.Amount != p.Amount {
			return fmt.Errorf("%w: ledger %d, gateway %d", ErrAmountMismatch, p.Amount, notify.Amount)
		}

		settledAt := notify.PaidAt
		if settledAt.IsZero() {
			settledAt = time.Now()
		}
		p.Status = StatusPaid
		p.SettledAt = &settledAt
		if notify.ProviderRef != "" {
			p.ProviderRef = notify.ProviderRef
		}

		// Materialize before persisting the flip so a failure rolls
		// back the whole settlement and the row stays PENDING.
		orderID, err := s.materializer.Materialize(txCtx, p)
		if err != nil {
			return fmt.Errorf("materialize order: %w", err)
		}
		if err := s.repo.Update(txCtx, p); err != nil {
			return err
		}

		items := make([]events.SettledItem, 0, len(p.Items))
		for _, item := range p.Items {
			items = append(items, events.SettledItem{
				CourseID: item.CourseID,
				ChildID:  item.ChildID,
				Price:    item.UnitPrice,
				Quantity: item.Quantity,
			})
		}
		event = events.NewOrderSettledEvent(p.ID, orderID, p.OrderCode, p.ParentID, p.Amount, p.Provider, items)
		settled = p
		return nil
	})
	if err != nil {
		s.metrics.RecordSettlement(settlementOutcome(err))
		return nil, err
	}

	if event != nil {
		// Post-commit, fire and forget. A handler failure cannot undo
		// the settlement at this point.
		s.bus.Publish(ctx, event)
		s.metrics.RecordSettlement("settled")
		s.logger.Info("payment settled",
			zap.String("order_code", settled.OrderCode),
			zap.Int64("amount", settled.Amount))
	} else {
		s.metrics.RecordSettlement("replayed")
	}

	return settled, nil
}

func settlementOutcome(err error) string {
	switch {
	case errors.Is(err, ErrUnknownOrder):
		return "unknown_order"
	case errors.Is(err, ErrSettlementConflict):
		return "conflict"
	case errors.Is(err, ErrAmountMismatch):
		return "amount_mismatch"
	default:
		return "error"
	}
}

// close flips a PENDING payment to the given terminal status under the
// row lock. Returns ErrInvalidTransition when the payment already left
// PENDING.
func (s *Service) close(ctx context.Context, orderCode string, to Status) (*Payment, error) {
	var closed *Payment
	err := s.repo.Transaction(ctx, func(txCtx context.Context) error {
		p, err := s.repo.GetByOrderCodeForUpdate(txCtx, orderCode)
		if err != nil {
			return err
		}
		if !p.Status.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
		}
		p.Status = to
		if err := s.repo.Update(txCtx, p); err != nil {
			return err
		}
		closed = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch to {
	case StatusCancelled:
		s.bus.Publish(ctx, events.NewPaymentCancelledEvent(closed.ID, closed.OrderCode, closed.ParentID, ""))
	case StatusExpired:
		s.bus.Publish(ctx, events.NewPaymentExpiredEvent(closed.ID, closed.OrderCode, closed.ParentID))
	}
	return closed, nil
}

// HandleNotify processes a gateway push notification. The returned ack
// is the provider-specific body the gateway expects on success.
func (s *Service) HandleNotify(ctx context.Context, providerName string, body []byte, headers http.Header) (string, error) {
	provider, err := s.registry.Get(providerName)
	if err != nil {
		return "", err
	}

	notify, err := provider.ParseNotify(ctx, body, headers)
	if err != nil {
		if errors.Is(err, gateway.ErrIgnoredNotify) {
			s.metrics.RecordWebhookEvent(providerName, "ignored")
			return defaultAck(providerName), nil
		}
		s.metrics.RecordWebhookEvent(providerName, "invalid")
		return "", err
	}

	switch notify.Status {
	case gateway.StatusSucceeded:
		if _, err := s.settle(ctx, notify); err != nil {
			s.metrics.RecordWebhookEvent(providerName, "failed")
			return "", err
		}
		s.metrics.RecordWebhookEvent(providerName, "settled")

	case gateway.StatusClosed:
		// A gateway-side close races with local cancel and expiry. The
		// payment having already left PENDING is the same outcome.
		if _, err := s.close(ctx, notify.OrderCode, StatusCancelled); err != nil {
			if !errors.Is(err, ErrInvalidTransition) {
				s.metrics.RecordWebhookEvent(providerName, "failed")
				return "", err
			}
		}
		s.metrics.RecordWebhookEvent(providerName, "closed")

	default:
		s.metrics.RecordWebhookEvent(providerName, "ignored")
	}

	return notify.Ack, nil
}

func defaultAck(providerName string) string {
	if providerName == "alipay" {
		return "success"
	}
	return `{"received":true}`
}

// ConfirmReturn handles the buyer's synchronous return from the
// gateway. If the webhook already settled the payment this is a pure
// read; otherwise the gateway is queried and the same settlement path
// applied inline.
func (s *Service) ConfirmReturn(ctx context.Context, orderCode string) (*Payment, error) {
	p, err := s.repo.GetByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return p, nil
	}

	provider, err := s.registry.Get(p.Provider)
	if err != nil {
		return p, nil
	}
	notify, err := provider.QueryPayment(ctx, p.OrderCode, p.ProviderRef)
	if err != nil {
		// Render the pending view; the webhook will settle later.
		s.metrics.RecordGatewayCall(p.Provider, "error")
		s.logger.Warn("return-side gateway query failed",
			zap.String("order_code", orderCode),
			zap.Error(err))
		return p, nil
	}
	s.metrics.RecordGatewayCall(p.Provider, "ok")

	switch notify.Status {
	case gateway.StatusSucceeded:
		return s.settle(ctx, notify)
	case gateway.StatusClosed:
		if _, err := s.close(ctx, orderCode, StatusCancelled); err != nil && !errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return s.repo.GetByOrderCode(ctx, orderCode)
	}
	return p, nil
}

// Cancel cancels the caller's PENDING payment.
func (s *Service) Cancel(ctx context.Context, parentID uuid.UUID, orderCode string) (*Payment, error) {
	p, err := s.repo.GetByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if p.ParentID != parentID {
		return nil, ErrNotOwner
	}

	closed, err := s.close(ctx, orderCode, StatusCancelled)
	if err != nil {
		return nil, err
	}

	// Best effort, the gateway session may already be gone.
	if provider, err := s.registry.Get(closed.Provider); err == nil {
		if err := provider.CloseSession(ctx, closed.OrderCode, closed.ProviderRef); err != nil {
			s.logger.Warn("close gateway session failed",
				zap.String("order_code", closed.OrderCode),
				zap.Error(err))
		}
	}

	s.logger.Info("payment cancelled", zap.String("order_code", closed.OrderCode))
	return closed, nil
}

// Get returns the caller's payment by order code.
func (s *Service) Get(ctx context.Context, parentID uuid.UUID, orderCode string) (*Payment, error) {
	p, err := s.repo.GetByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if p.ParentID != parentID {
		return nil, ErrNotOwner
	}
	return p, nil
}

// ExpireDue flips overdue PENDING payments to EXPIRED. Invoked by the
// scheduler; returns how many payments were expired.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	codes, err := s.repo.ListExpiredPending(ctx, time.Now(), expireBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, code := range codes {
		if _, err := s.close(ctx, code, StatusExpired); err != nil {
			// Settled or cancelled between the scan and the lock.
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrUnknownOrder) {
				continue
			}
			s.logger.Error("expire payment failed",
				zap.String("order_code", code),
				zap.Error(err))
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("expired pending payments", zap.Int("count", expired))
	}
	return expired, nil
}
