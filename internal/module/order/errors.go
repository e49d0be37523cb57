package order

import "errors"

// Module errors.
var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrAmountConservation means the item subtotals do not sum to the
	// payment amount. Materialization refuses to write such an order.
	ErrAmountConservation = errors.New("order items do not sum to payment amount")
)
