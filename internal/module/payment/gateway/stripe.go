package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeConfig holds Stripe configuration. ReturnBaseURL is the
// return-endpoint prefix; the order code is appended per session.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	Currency      string
	ReturnBaseURL string
}

// StripeProvider implements Provider using Stripe Checkout sessions.
type StripeProvider struct {
	config *StripeConfig
}

// NewStripeProvider creates a new Stripe provider.
func NewStripeProvider(config *StripeConfig) *StripeProvider {
	stripe.Key = config.APIKey
	return &StripeProvider{config: config}
}

// Name returns the provider name.
func (p *StripeProvider) Name() string {
	return "stripe"
}

// OpenSession creates a Checkout session. The order code travels as the
// client reference id so completed-session events carry it back.
func (p *StripeProvider) OpenSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	returnURL := fmt.Sprintf("%s/%s", p.config.ReturnBaseURL, req.OrderCode)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.OrderCode),
		SuccessURL:        stripe.String(returnURL),
		CancelURL:         stripe.String(returnURL),
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.config.Currency),
				UnitAmount: stripe.Int64(line.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	s, err := session.New(params)
	if err != nil {
		return nil, p.mapError("create checkout session", err)
	}

	return &Session{
		ProviderRef: s.ID,
		PaymentURL:  s.URL,
	}, nil
}

// ParseNotify verifies the webhook signature and extracts the
// settlement outcome from checkout session events.
func (p *StripeProvider) ParseNotify(ctx context.Context, body []byte, headers http.Header) (*Notify, error) {
	event, err := webhook.ConstructEvent(body, headers.Get("Stripe-Signature"), p.config.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
	default:
		return nil, ErrIgnoredNotify
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal checkout session: %w", err)
	}

	notify := &Notify{
		OrderCode:   s.ClientReferenceID,
		ProviderRef: s.ID,
		Amount:      s.AmountTotal,
		Status:      mapStripeSession(&s, event.Type),
		Ack:         `{"received":true}`,
	}
	if notify.Status == StatusSucceeded {
		notify.PaidAt = time.Unix(event.Created, 0)
	}
	return notify, nil
}

// QueryPayment fetches the session state directly from Stripe.
func (p *StripeProvider) QueryPayment(ctx context.Context, orderCode, providerRef string) (*Notify, error) {
	s, err := session.Get(providerRef, nil)
	if err != nil {
		return nil, p.mapError("get checkout session", err)
	}

	notify := &Notify{
		OrderCode:   s.ClientReferenceID,
		ProviderRef: s.ID,
		Amount:      s.AmountTotal,
		Status:      mapStripeSession(s, ""),
	}
	if notify.Status == StatusSucceeded {
		notify.PaidAt = time.Now()
	}
	return notify, nil
}

// CloseSession expires an open Checkout session.
func (p *StripeProvider) CloseSession(ctx context.Context, orderCode, providerRef string) error {
	if _, err := session.Expire(providerRef, &stripe.CheckoutSessionExpireParams{}); err != nil {
		return p.mapError("expire checkout session", err)
	}
	return nil
}

func (p *StripeProvider) mapError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeAPI:
			return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
		default:
			return fmt.Errorf("%s: %w: %v", op, ErrRejected, err)
		}
	}
	// Transport-level failures surface as plain errors.
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

func mapStripeSession(s *stripe.CheckoutSession, eventType stripe.EventType) Status {
	if eventType == "checkout.session.expired" || s.Status == stripe.CheckoutSessionStatusExpired {
		return StatusClosed
	}
	if s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return StatusSucceeded
	}
	return StatusPending
}
