package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// breakerProvider wraps a Provider so that outbound calls go through a
// circuit breaker. An open circuit degrades to ErrUnavailable.
// ParseNotify is local signature verification and bypasses the breaker.
type breakerProvider struct {
	inner  Provider
	cb     *gobreaker.CircuitBreaker[any]
	logger *zap.Logger
}

// WithBreaker decorates a provider with a circuit breaker.
func WithBreaker(p Provider, logger *zap.Logger) Provider {
	settings := gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Only infrastructure failures trip the breaker. A rejected
		// request or a bad signature is the provider answering.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &breakerProvider{
		inner:  p,
		cb:     gobreaker.NewCircuitBreaker[any](settings),
		logger: logger,
	}
}

func (b *breakerProvider) Name() string {
	return b.inner.Name()
}

func (b *breakerProvider) OpenSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.OpenSession(ctx, req)
	})
	if err != nil {
		return nil, b.mapBreakerErr(err)
	}
	return result.(*Session), nil
}

func (b *breakerProvider) ParseNotify(ctx context.Context, body []byte, headers http.Header) (*Notify, error) {
	return b.inner.ParseNotify(ctx, body, headers)
}

func (b *breakerProvider) QueryPayment(ctx context.Context, orderCode, providerRef string) (*Notify, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.QueryPayment(ctx, orderCode, providerRef)
	})
	if err != nil {
		return nil, b.mapBreakerErr(err)
	}
	return result.(*Notify), nil
}

func (b *breakerProvider) CloseSession(ctx context.Context, orderCode, providerRef string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.CloseSession(ctx, orderCode, providerRef)
	})
	if err != nil {
		return b.mapBreakerErr(err)
	}
	return nil
}

func (b *breakerProvider) mapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: circuit open", b.inner.Name(), ErrUnavailable)
	}
	return err
}
