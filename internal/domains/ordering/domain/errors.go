package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrEmptyCart         = errors.New("cart has no items")
	ErrItemNotFound      = errors.New("order item not found")
	ErrInvalidTransition = errors.New("order status transition is not permitted")
	ErrForbidden         = errors.New("caller is not permitted to perform this action")
)

// InsufficientStockError reports a stock shortfall, carrying the requested and
// available quantities so the caller can act on it.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int32
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}
