// Package cache provides a Redis-backed read cache for single-product
// lookups. Misses and marshal failures fall through to the repository; the
// cache is never the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/domain"
)

const keyPrefix = "product:"

// ErrMiss is returned when the requested product is not cached.
var ErrMiss = errors.New("cache miss")

// ProductCache caches products by ID with a fixed TTL.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache creates a new Redis-backed product cache.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached product by ID. Returns ErrMiss when absent.
func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	data, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get product: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal cached product: %w", err)
	}

	return &p, nil
}

// Set stores a product with the configured TTL.
func (c *ProductCache) Set(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+p.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}

	return nil
}

// Invalidate drops the cached entry for a product ID.
func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del product: %w", err)
	}

	return nil
}
