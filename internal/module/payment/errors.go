package payment

import "errors"

// Module errors. The settlement path reports exactly one of these per
// failure so callers can map them to distinct responses.
var (
	// ErrUnknownOrder means the order code matches no ledger row.
	ErrUnknownOrder = errors.New("unknown order code")

	// ErrSettlementConflict means a success notification arrived for a
	// payment already CANCELLED or EXPIRED.
	ErrSettlementConflict = errors.New("settlement conflicts with terminal status")

	// ErrAmountMismatch means the gateway-confirmed amount diverges
	// from the ledger amount.
	ErrAmountMismatch = errors.New("settled amount does not match payment amount")

	// ErrInvalidTransition means the requested status change is not an
	// edge of the payment state machine.
	ErrInvalidTransition = errors.New("invalid payment status transition")

	// ErrNotOwner means the caller does not own the payment.
	ErrNotOwner = errors.New("payment does not belong to caller")

	// ErrInvalidAmount means the purchase intent priced to zero or less
	// and cannot be charged.
	ErrInvalidAmount = errors.New("payment amount must be positive")
)
