package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is an in-memory Repository for local development and tests.
type MemRepo struct {
	mu     sync.RWMutex
	byUser map[string]*Cart
}

func NewMemRepo() *MemRepo {
	return &MemRepo{byUser: make(map[string]*Cart)}
}

func (r *MemRepo) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.Entries = append([]Entry(nil), c.Entries...)
	return &cp, nil
}

func (r *MemRepo) Save(ctx context.Context, c *Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.byUser[c.UserID]; ok {
		c.ID = cur.ID
		c.CreatedAt = cur.CreatedAt
	} else {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = time.Now().UTC()

	cp := *c
	cp.Entries = append([]Entry(nil), c.Entries...)
	r.byUser[c.UserID] = &cp
	return nil
}

func (r *MemRepo) Delete(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[userID]; !ok {
		return false, nil
	}
	delete(r.byUser, userID)
	return true, nil
}

var _ Repository = (*MemRepo)(nil)
