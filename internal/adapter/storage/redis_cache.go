package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ndquoc/ecom-service/internal/core/domain"
)

const productKeyPrefix = "product:"

// RedisCache is a best-effort cache-aside layer for product reads.
// It never participates in the order transaction; stale entries are
// dropped on every write that touches a product.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	data, err := r.client.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt entry is treated as a miss.
		return nil, nil
	}
	return &p, nil
}

func (r *RedisCache) SetProduct(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := r.client.Set(ctx, productKey(p.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}

func productKey(id int64) string {
	return productKeyPrefix + strconv.FormatInt(id, 10)
}
