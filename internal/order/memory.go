package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MoonRock000/E-commerce/internal/cart"
)

// MemRepo is an in-memory Repository for local development and tests. When a
// cart repository is supplied, Create with clearCartUserID drops the cart
// under the same lock, mirroring the Postgres checkout transaction.
type MemRepo struct {
	mu    sync.RWMutex
	items map[string]*Order
	carts cart.Repository
}

func NewMemRepo(carts cart.Repository) *MemRepo {
	return &MemRepo{items: make(map[string]*Order), carts: carts}
}

func (r *MemRepo) Create(ctx context.Context, o *Order, clearCartUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := clone(o)
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	o.CreatedAt = cp.CreatedAt
	o.UpdatedAt = cp.UpdatedAt
	r.items[o.ID] = cp

	if clearCartUserID != "" && r.carts != nil {
		if _, err := r.carts.Delete(ctx, clearCartUserID); err != nil {
			delete(r.items, o.ID)
			return err
		}
	}
	return nil
}

func (r *MemRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(o), nil
}

func (r *MemRepo) List(ctx context.Context) ([]Order, error) {
	return r.filtered(func(*Order) bool { return true })
}

func (r *MemRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.filtered(func(o *Order) bool { return o.UserID == userID })
}

func (r *MemRepo) filtered(keep func(*Order) bool) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, 0, len(r.items))
	for _, o := range r.items {
		if keep(o) {
			out = append(out, *clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemRepo) Update(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[o.ID]
	if !ok {
		return ErrNotFound
	}
	cp := clone(o)
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	r.items[o.ID] = cp
	return nil
}

func (r *MemRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

func clone(o *Order) *Order {
	cp := *o
	cp.Lines = append([]Line(nil), o.Lines...)
	return &cp
}

var _ Repository = (*MemRepo)(nil)
