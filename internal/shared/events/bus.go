package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Bus dispatches domain events to subscribed handlers, synchronously
// and in registration order. Handler errors are isolated: one failing
// subscriber never stops the others, and the publisher never sees the
// failure.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	logger      *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]Handler),
		logger:      logger,
	}
}

// Register subscribes the handler to every event type it reports.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, eventType := range handler.Handles() {
		b.subscribers[eventType] = append(b.subscribers[eventType], handler)
	}
}

// Publish delivers the event to its subscribers on the caller's
// goroutine. An event without subscribers is dropped silently.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	subscribers := b.subscribers[event.EventType()]
	b.mu.RUnlock()

	for _, handler := range subscribers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err))
		}
	}
}
