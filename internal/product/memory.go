package product

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is an in-memory Repository for local development and tests.
type MemRepo struct {
	mu    sync.RWMutex
	items map[string]*Product
}

func NewMemRepo() *MemRepo {
	return &MemRepo{items: make(map[string]*Product)}
}

func (r *MemRepo) Create(ctx context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	r.items[p.ID] = &cp
	return nil
}

func (r *MemRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemRepo) List(ctx context.Context, q Query) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Q))
	out := make([]Product, 0, len(r.items))
	for _, p := range r.items {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, *p)
	}

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(out) {
		return []Product{}, nil
	}
	end := len(out)
	if q.Limit > 0 && offset+q.Limit < end {
		end = offset + q.Limit
	}
	return out[offset:end], nil
}

func (r *MemRepo) Update(ctx context.Context, p *Product, updatePrice bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[p.ID]
	if !ok {
		return ErrNotFound
	}
	if p.Name != "" {
		cur.Name = p.Name
	}
	if p.Description != "" {
		cur.Description = p.Description
	}
	if updatePrice && p.Price != "" {
		cur.Price = p.Price
	}
	cur.Stock = p.Stock
	if p.Images != nil {
		cur.Images = append([]string(nil), p.Images...)
	}
	cur.UpdatedAt = time.Now().UTC()
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

var _ Repository = (*MemRepo)(nil)
