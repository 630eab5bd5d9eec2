package inventory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MoonRock000/E-commerce/internal/product"
)

// PGLedger implements Ledger with single-statement compare-and-decrement
// updates, so two concurrent reservations can never oversell a product.
type PGLedger struct{ db *pgxpool.Pool }

func NewPGLedger(db *pgxpool.Pool) *PGLedger { return &PGLedger{db: db} }

func (l *PGLedger) Reserve(ctx context.Context, productID string, qty int) error {
	return l.Adjust(ctx, productID, -qty)
}

func (l *PGLedger) Release(ctx context.Context, productID string, qty int) error {
	return l.Adjust(ctx, productID, qty)
}

func (l *PGLedger) Adjust(ctx context.Context, productID string, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if delta >= 0 {
		tag, err := l.db.Exec(ctx, `
			UPDATE products SET stock = stock + $2, updated_at = NOW()
			WHERE id = $1
		`, productID, delta)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return product.ErrNotFound
		}
		return nil
	}

	need := -delta
	tag, err := l.db.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, productID, need)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the product is gone or the guard rejected the decrement.
		var exists bool
		if err := l.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return product.ErrNotFound
		}
		return ErrOutOfStock
	}
	return nil
}

var _ Ledger = (*PGLedger)(nil)
