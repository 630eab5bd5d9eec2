// Package cart implements the per-user shopping cart aggregate and its
// storage backends.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("cart not found")
	ErrEntryNotFound = errors.New("product not found in cart")
)

type Repository interface {
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	// Save upserts the cart keyed by user id; the carts table enforces the
	// one-cart-per-user invariant with a unique constraint.
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, userID string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, price::text, created_at, updated_at
		FROM carts WHERE user_id=$1
	`, userID).Scan(&c.ID, &c.UserID, &c.Price, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT product_id, quantity, total_price::text
		FROM cart_items WHERE cart_id=$1
	`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ProductID, &e.Quantity, &e.TotalPrice); err != nil {
			return nil, err
		}
		c.Entries = append(c.Entries, e)
	}
	return &c, rows.Err()
}

func (r *PGRepo) Save(ctx context.Context, c *Cart) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Upsert on user_id, then replace the entry set wholesale.
	if err := tx.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, price, created_at, updated_at)
		VALUES ($1,$2,$3,NOW(),NOW())
		ON CONFLICT (user_id) DO UPDATE SET price = EXCLUDED.price, updated_at = NOW()
		RETURNING id
	`, c.ID, c.UserID, c.Price).Scan(&c.ID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, c.ID); err != nil {
		return err
	}
	for _, e := range c.Entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity, total_price)
			VALUES ($1,$2,$3,$4)
		`, c.ID, e.ProductID, e.Quantity, e.TotalPrice); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Delete(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id=$1`, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

var _ Repository = (*PGRepo)(nil)
