package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types []string
	err   error
	seen  []Event
	ctxs  []context.Context
}

func (h *recordingHandler) Handles() []string { return h.types }

func (h *recordingHandler) Handle(ctx context.Context, event Event) error {
	h.ctxs = append(h.ctxs, ctx)
	if h.err != nil {
		return h.err
	}
	h.seen = append(h.seen, event)
	return nil
}

type busTestKey struct{}

func TestBus_PublishDeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())
	first := &recordingHandler{types: []string{OrderSettledType}}
	second := &recordingHandler{types: []string{OrderSettledType}}
	bus.Register(first)
	bus.Register(second)

	event := NewOrderSettledEvent(uuid.New(), uuid.New(), "PAY-20260830-BUSAAAAA", uuid.New(), 1000, "stripe", nil)
	bus.Publish(context.Background(), event)

	require.Len(t, first.seen, 1)
	require.Len(t, second.seen, 1)
	assert.Equal(t, event.EventID(), first.seen[0].EventID())
}

func TestBus_PublishPropagatesContext(t *testing.T) {
	bus := NewBus(zap.NewNop())
	handler := &recordingHandler{types: []string{PaymentExpiredType}}
	bus.Register(handler)

	ctx := context.WithValue(context.Background(), busTestKey{}, "marker")
	bus.Publish(ctx, NewPaymentExpiredEvent(uuid.New(), "PAY-20260830-BUSBBBBB", uuid.New()))

	require.Len(t, handler.ctxs, 1)
	assert.Equal(t, "marker", handler.ctxs[0].Value(busTestKey{}))
}

func TestBus_HandlerFailureDoesNotStopOthers(t *testing.T) {
	bus := NewBus(zap.NewNop())
	failing := &recordingHandler{types: []string{OrderSettledType}, err: errors.New("boom")}
	healthy := &recordingHandler{types: []string{OrderSettledType}}
	bus.Register(failing)
	bus.Register(healthy)

	bus.Publish(context.Background(), NewOrderSettledEvent(uuid.New(), uuid.New(), "PAY-20260830-BUSCCCCC", uuid.New(), 1000, "stripe", nil))

	assert.Len(t, healthy.seen, 1)
}

func TestBus_UnsubscribedEventIsDropped(t *testing.T) {
	bus := NewBus(zap.NewNop())
	handler := &recordingHandler{types: []string{OrderSettledType}}
	bus.Register(handler)

	bus.Publish(context.Background(), NewPaymentCancelledEvent(uuid.New(), "PAY-20260830-BUSDDDDD", uuid.New(), ""))

	assert.Empty(t, handler.seen)
}
