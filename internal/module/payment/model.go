package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the lifecycle state of a payment.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusPaid, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition to target is legal.
// Only PENDING has outgoing edges.
func (s Status) CanTransitionTo(target Status) bool {
	if s != StatusPending {
		return false
	}
	switch target {
	case StatusPaid, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Payment is the ledger row for one purchase attempt. OrderCode is the
// merchant-side reference every gateway exchange is keyed by. Amount is
// in cents and must equal the sum of the item subtotals.
type Payment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderCode   string     `gorm:"uniqueIndex;not null" json:"order_code"`
	ParentID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"parent_id"`
	Provider    string     `gorm:"not null" json:"provider"`
	ProviderRef string     `json:"provider_ref,omitempty"`
	Amount      int64      `gorm:"not null" json:"amount"`
	Status      Status     `gorm:"not null;default:'PENDING';index" json:"status"`
	Description string     `json:"description,omitempty"`
	PaymentURL  string     `json:"payment_url,omitempty"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []PaymentItem `gorm:"foreignKey:PaymentID" json:"items,omitempty"`
}

// TableName returns the table name for Payment.
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate assigns an ID when the database default is unavailable.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PaymentItem is one intent line frozen onto the payment at creation
// time, so settlement never depends on the live cart.
type PaymentItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PaymentID   uuid.UUID `gorm:"type:uuid;not null;index" json:"payment_id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null" json:"course_id"`
	CourseTitle string    `gorm:"not null" json:"course_title"`
	ChildID     uuid.UUID `gorm:"type:uuid;not null" json:"child_id"`
	ChildName   string    `gorm:"not null" json:"child_name"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Subtotal    int64     `gorm:"not null" json:"subtotal"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for PaymentItem.
func (PaymentItem) TableName() string {
	return "payment_items"
}

func (pi *PaymentItem) BeforeCreate(tx *gorm.DB) error {
	if pi.ID == uuid.Nil {
		pi.ID = uuid.New()
	}
	return nil
}
