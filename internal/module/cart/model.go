package cart

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one course/child pair a parent intends to purchase.
// A parent can hold at most one cart line per course/child pair.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ParentID  uuid.UUID `gorm:"type:uuid;not null;index:idx_cart_parent;uniqueIndex:idx_cart_line" json:"parent_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line" json:"course_id"`
	ChildID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line" json:"child_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for CartItem.
func (CartItem) TableName() string {
	return "cart_items"
}

// BeforeCreate assigns an ID when the database default is unavailable.
func (ci *CartItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}

// IntentLine is one priced line of a payment intent. UnitPrice and
// Subtotal are snapshots taken at build time, in cents.
type IntentLine struct {
	CourseID    uuid.UUID `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	ChildID     uuid.UUID `json:"child_id"`
	ChildName   string    `json:"child_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Subtotal    int64     `json:"subtotal"`
}

// Intent is the priced snapshot of the parent's selected cart lines,
// ready to be turned into a payment. Lines preserve selection order.
type Intent struct {
	ParentID uuid.UUID    `json:"parent_id"`
	Lines    []IntentLine `json:"lines"`
	Total    int64        `json:"total"`
}
