package order

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart  = errors.New("cart is empty")
	ErrForbidden  = errors.New("you do not have access to this order")
	ErrValidation = errors.New("invalid order payload")
)

// InsufficientStockError names the product that blocked the workflow.
type InsufficientStockError struct {
	Name string
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.Name)
}
