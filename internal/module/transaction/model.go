package transaction

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one settled purchase in the parent's history. It is a
// read-only projection; nothing in this module mutates state.
type Transaction struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderCode   string            `json:"order_code"`
	ProviderRef string            `json:"provider_ref"`
	Amount      int64             `json:"amount"`
	Status      string            `json:"status"`
	Provider    string            `json:"provider"`
	SettledAt   time.Time         `json:"settled_at"`
	Items       []TransactionItem `json:"items"`
}

// TransactionItem is one enrollment line of a settled purchase.
type TransactionItem struct {
	CourseID    uuid.UUID `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	ChildID     uuid.UUID `json:"child_id"`
	ChildName   string    `json:"child_name"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	Subtotal    int64     `json:"subtotal"`
}
