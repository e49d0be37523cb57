package cart

import "errors"

// Module errors.
var (
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCourseUnavailable  = errors.New("course unavailable")
	ErrChildNotOwned      = errors.New("child does not belong to parent")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrDuplicateCartItem  = errors.New("course already in cart for this child")
	ErrDuplicateSelection = errors.New("cart item selected more than once")
)
