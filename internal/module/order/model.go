package order

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the materialized record of a settled payment. Orders are
// append-only; exactly one exists per settled payment.
type Order struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PaymentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"payment_id"`
	OrderCode string    `gorm:"not null;index" json:"order_code"`
	ParentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"parent_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Provider  string    `gorm:"not null" json:"provider"`
	SettledAt time.Time `gorm:"not null" json:"settled_at"`
	CreatedAt time.Time `json:"created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName returns the table name for Order.
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns an ID when the database default is unavailable.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is one enrollment of the order. Price is the unit price in
// cents at purchase time.
type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null" json:"course_id"`
	CourseTitle string    `gorm:"not null" json:"course_title"`
	ChildID     uuid.UUID `gorm:"type:uuid;not null" json:"child_id"`
	ChildName   string    `gorm:"not null" json:"child_name"`
	Price       int64     `gorm:"not null" json:"price"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Subtotal    int64     `gorm:"not null" json:"subtotal"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for OrderItem.
func (OrderItem) TableName() string {
	return "order_items"
}

func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}
