// Package inventory owns per-product stock counts. Every stock mutation in
// the system goes through a Ledger so concurrent reservations for the same
// product cannot oversell it.
package inventory

import (
	"context"
	"errors"
)

var (
	ErrOutOfStock = errors.New("insufficient stock")
)

// Ledger applies stock movements atomically per product id.
type Ledger interface {
	// Reserve decrements stock by qty, failing with ErrOutOfStock when
	// fewer than qty units are available.
	Reserve(ctx context.Context, productID string, qty int) error
	// Release returns qty units to stock.
	Release(ctx context.Context, productID string, qty int) error
	// Adjust applies a signed delta: negative consumes (may fail with
	// ErrOutOfStock), positive restocks.
	Adjust(ctx context.Context, productID string, delta int) error
}
