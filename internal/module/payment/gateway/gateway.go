// Package gateway abstracts external payment providers behind a single
// session-oriented interface. Order codes are generated locally and
// passed to every provider as the merchant-side reference, so async
// notifications and queries correlate back without trusting
// provider-assigned identifiers.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Errors returned by providers. Callers branch on these to decide
// whether a failure is retryable, a terminal rejection, or a forgery.
var (
	ErrUnavailable      = errors.New("gateway unavailable")
	ErrRejected         = errors.New("gateway rejected request")
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrIgnoredNotify    = errors.New("notification not relevant")
	ErrUnknownProvider  = errors.New("unknown payment provider")
)

// Status is the provider-side state of a payment session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusClosed    Status = "closed"
)

// SessionLine is one display line of a checkout session.
type SessionLine struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest describes the payment session to open. Amount is in
// cents and must equal the sum of the lines.
type SessionRequest struct {
	OrderCode   string
	Amount      int64
	Subject     string
	Description string
	Lines       []SessionLine
	ExpiresAt   time.Time
}

// Session is an opened provider-side payment session.
type Session struct {
	ProviderRef string
	PaymentURL  string
}

// Notify is a verified, provider-neutral settlement notification,
// produced by ParseNotify or QueryPayment.
type Notify struct {
	OrderCode   string
	ProviderRef string
	Amount      int64
	Status      Status
	PaidAt      time.Time
	Ack         string
}

// Provider is a payment gateway adapter.
type Provider interface {
	Name() string
	OpenSession(ctx context.Context, req *SessionRequest) (*Session, error)
	ParseNotify(ctx context.Context, body []byte, headers http.Header) (*Notify, error)
	QueryPayment(ctx context.Context, orderCode, providerRef string) (*Notify, error)
	CloseSession(ctx context.Context, orderCode, providerRef string) error
}
