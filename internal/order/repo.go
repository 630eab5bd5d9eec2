package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("order not found")
)

type Repository interface {
	// Create persists the order with its lines. When clearCartUserID is
	// non-empty and the carts live in the same store, that user's cart is
	// dropped in the same transaction (checkout boundary).
	Create(ctx context.Context, o *Order, clearCartUserID string) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// Update replaces lines, status, shipping and price in one transaction.
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, o *Order, clearCartUserID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, shipping_address, shipping_company, tracking_number, price, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
	`, o.ID, o.UserID, o.Status, o.Shipping.Address, o.Shipping.Company, o.Shipping.TrackingNumber, o.Price); err != nil {
		return err
	}
	for _, l := range o.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity)
			VALUES ($1,$2,$3)
		`, o.ID, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	if clearCartUserID != "" {
		// cart_items cascade on cart deletion
		if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE user_id=$1`, clearCartUserID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, status, shipping_address, shipping_company, tracking_number, price::text, created_at, updated_at
		FROM orders WHERE id=$1
	`, id).Scan(&o.ID, &o.UserID, &o.Status, &o.Shipping.Address, &o.Shipping.Company, &o.Shipping.TrackingNumber, &o.Price, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT product_id, quantity FROM order_items WHERE order_id=$1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return &o, rows.Err()
}

func (r *PGRepo) List(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, status, shipping_address, shipping_company, tracking_number, price::text, created_at, updated_at
		FROM orders ORDER BY created_at DESC
	`)
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, status, shipping_address, shipping_company, tracking_number, price::text, created_at, updated_at
		FROM orders WHERE user_id=$1 ORDER BY created_at DESC
	`, userID)
}

func (r *PGRepo) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Shipping.Address, &o.Shipping.Company, &o.Shipping.TrackingNumber, &o.Price, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, shipping_address = $3, shipping_company = $4,
		    tracking_number = $5, price = $6, updated_at = NOW()
		WHERE id = $1
	`, o.ID, o.Status, o.Shipping.Address, o.Shipping.Company, o.Shipping.TrackingNumber, o.Price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
		return err
	}
	for _, l := range o.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity)
			VALUES ($1,$2,$3)
		`, o.ID, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

var _ Repository = (*PGRepo)(nil)
