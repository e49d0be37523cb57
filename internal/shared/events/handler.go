package events

import "context"

// Handler consumes domain events from the bus. Handle must be
// idempotent; the settlement paths may replay an event after a retried
// notification.
type Handler interface {
	// Handles returns the event types this handler subscribes to.
	Handles() []string

	// Handle processes one event. The context is the publisher's; the
	// publish happens post-commit, so cancellation only bounds the
	// handler's own work.
	Handle(ctx context.Context, event Event) error
}
