package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/coursecart/server/internal/module/cart"
	"github.com/coursecart/server/internal/shared/events"
)

// CartAggregator supplies the priced purchase intent a payment is
// created from. The item ids select which of the parent's cart lines
// are being bought.
type CartAggregator interface {
	BuildIntent(ctx context.Context, parentID uuid.UUID, itemIDs []uuid.UUID) (*cart.Intent, error)
}

// OrderMaterializer turns a settled payment into an order. It is
// invoked inside the settlement transaction; the transaction travels on
// the context, so a failure here rolls back the status flip.
type OrderMaterializer interface {
	Materialize(ctx context.Context, p *Payment) (uuid.UUID, error)
}

// EventPublisher publishes domain events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}
