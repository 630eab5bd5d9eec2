package inventory

import (
	"context"
	"sync"

	"github.com/MoonRock000/E-commerce/internal/product"
)

// MemLedger serializes all stock movements behind one mutex, giving the same
// per-product atomicity as the SQL guard. Good enough for tests and local runs.
type MemLedger struct {
	mu       sync.Mutex
	products product.Repository
}

func NewMemLedger(products product.Repository) *MemLedger {
	return &MemLedger{products: products}
}

func (l *MemLedger) Reserve(ctx context.Context, productID string, qty int) error {
	return l.Adjust(ctx, productID, -qty)
}

func (l *MemLedger) Release(ctx context.Context, productID string, qty int) error {
	return l.Adjust(ctx, productID, qty)
}

func (l *MemLedger) Adjust(ctx context.Context, productID string, delta int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	next := p.Stock + delta
	if next < 0 {
		return ErrOutOfStock
	}
	p.Stock = next
	return l.products.Update(ctx, p, false)
}

var _ Ledger = (*MemLedger)(nil)
