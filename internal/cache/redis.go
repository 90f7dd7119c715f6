// Package cache stores the most recent catalog in Redis so a restart
// can serve rules immediately instead of waiting for the first fetch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greedhall/rules-engine/internal/rules"
)

const catalogKey = "rules:catalog"

// Redis wraps the go-redis client for catalog caching.
type Redis struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(address, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// StoreCatalog caches the catalog. The entry has no TTL; it is only
// ever replaced by a newer catalog.
func (r *Redis) StoreCatalog(ctx context.Context, catalog *rules.Catalog) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := r.client.Set(ctx, catalogKey, data, 0).Err(); err != nil {
		return fmt.Errorf("store catalog: %w", err)
	}
	return nil
}

// LoadCatalog returns the cached catalog, or (nil, nil) when the cache
// is empty.
func (r *Redis) LoadCatalog(ctx context.Context) (*rules.Catalog, error) {
	data, err := r.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var catalog rules.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unmarshal cached catalog: %w", err)
	}
	return &catalog, nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
