package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyCart = "cart:%s"

// RedisRepo stores each cart as a JSON document keyed by user id. Picked by
// CART_BACKEND=redis; carts are disposable enough that durability of the
// relational store is not required for them.
type RedisRepo struct{ rdb *redis.Client }

func NewRedisRepo(rdb *redis.Client) *RedisRepo { return &RedisRepo{rdb: rdb} }

func (r *RedisRepo) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	raw, err := r.rdb.Get(ctx, fmt.Sprintf(keyCart, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *RedisRepo) Save(ctx context.Context, c *Cart) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = time.Now().UTC()

	// Drop resolved product snapshots before persisting; they are view-only.
	cp := *c
	cp.Entries = make([]Entry, len(c.Entries))
	for i, e := range c.Entries {
		e.Product = nil
		cp.Entries[i] = e
	}

	raw, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, fmt.Sprintf(keyCart, c.UserID), raw, 0).Err()
}

func (r *RedisRepo) Delete(ctx context.Context, userID string) (bool, error) {
	n, err := r.rdb.Del(ctx, fmt.Sprintf(keyCart, userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ Repository = (*RedisRepo)(nil)
