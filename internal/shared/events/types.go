package events

import "github.com/google/uuid"

// Settlement event type constants.
const (
	OrderSettledType     = "OrderSettled"
	PaymentCancelledType = "PaymentCancelled"
	PaymentExpiredType   = "PaymentExpired"
)

// SettledItem is one purchased line item carried by OrderSettledEvent.
type SettledItem struct {
	CourseID uuid.UUID `json:"course_id"`
	ChildID  uuid.UUID `json:"child_id"`
	Price    int64     `json:"price"`
	Quantity int       `json:"quantity"`
}

// OrderSettledEvent is emitted after a payment settles and its order has been
// materialized. It is published outside the settlement transaction; handlers
// must never assume they can veto the settlement.
type OrderSettledEvent struct {
	BaseEvent

	// PaymentID is the unique identifier of the settled payment.
	PaymentID uuid.UUID `json:"payment_id"`

	// OrderID is the ID of the materialized order.
	OrderID uuid.UUID `json:"order_id"`

	// OrderCode is the gateway-visible order code.
	OrderCode string `json:"order_code"`

	// ParentID is the ID of the purchasing parent.
	ParentID uuid.UUID `json:"parent_id"`

	// Amount is the settled amount in smallest currency unit (e.g., cents).
	Amount int64 `json:"amount"`

	// Provider is the payment provider name (e.g., "stripe", "alipay").
	Provider string `json:"provider"`

	// Items are the purchased line items.
	Items []SettledItem `json:"items"`
}

// NewOrderSettledEvent creates a new OrderSettledEvent.
func NewOrderSettledEvent(
	paymentID, orderID uuid.UUID,
	orderCode string,
	parentID uuid.UUID,
	amount int64,
	provider string,
	items []SettledItem,
) *OrderSettledEvent {
	return &OrderSettledEvent{
		BaseEvent: NewBaseEvent(OrderSettledType, paymentID, "Payment"),
		PaymentID: paymentID,
		OrderID:   orderID,
		OrderCode: orderCode,
		ParentID:  parentID,
		Amount:    amount,
		Provider:  provider,
		Items:     items,
	}
}

// PaymentCancelledEvent is emitted when a pending payment is cancelled.
type PaymentCancelledEvent struct {
	BaseEvent

	PaymentID uuid.UUID `json:"payment_id"`
	OrderCode string    `json:"order_code"`
	ParentID  uuid.UUID `json:"parent_id"`
	Reason    string    `json:"reason,omitempty"`
}

// NewPaymentCancelledEvent creates a new PaymentCancelledEvent.
func NewPaymentCancelledEvent(paymentID uuid.UUID, orderCode string, parentID uuid.UUID, reason string) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseEvent: NewBaseEvent(PaymentCancelledType, paymentID, "Payment"),
		PaymentID: paymentID,
		OrderCode: orderCode,
		ParentID:  parentID,
		Reason:    reason,
	}
}

// PaymentExpiredEvent is emitted when the expiry sweep times out a pending
// payment.
type PaymentExpiredEvent struct {
	BaseEvent

	PaymentID uuid.UUID `json:"payment_id"`
	OrderCode string    `json:"order_code"`
	ParentID  uuid.UUID `json:"parent_id"`
}

// NewPaymentExpiredEvent creates a new PaymentExpiredEvent.
func NewPaymentExpiredEvent(paymentID uuid.UUID, orderCode string, parentID uuid.UUID) *PaymentExpiredEvent {
	return &PaymentExpiredEvent{
		BaseEvent: NewBaseEvent(PaymentExpiredType, paymentID, "Payment"),
		PaymentID: paymentID,
		OrderCode: orderCode,
		ParentID:  parentID,
	}
}
