package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// DefaultImportIndexPrefix namespaces import index keys
const DefaultImportIndexPrefix = "catalog:import:"

// RedisImportIndex implements catalog.ImportIndex on Redis so that every
// instance shares the sourceUrl → productId mapping
type RedisImportIndex struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisImportIndex connects to Redis and verifies the connection
func NewRedisImportIndex(ctx context.Context, cfg config.RedisConfig) (*RedisImportIndex, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisImportIndexWithClient(client, ""), nil
}

// NewRedisImportIndexWithClient wraps an existing client
func NewRedisImportIndexWithClient(client *redis.Client, keyPrefix string) *RedisImportIndex {
	if keyPrefix == "" {
		keyPrefix = DefaultImportIndexPrefix
	}
	return &RedisImportIndex{client: client, keyPrefix: keyPrefix}
}

// Lookup returns the product recorded for sourceURL
func (r *RedisImportIndex) Lookup(ctx context.Context, sourceURL string) (uuid.UUID, bool, error) {
	value, err := r.client.Get(ctx, r.key(sourceURL)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to read import index: %w", err)
	}

	productID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt import index entry for %s: %w", sourceURL, err)
	}
	return productID, true, nil
}

// Remember records sourceURL → productID for ttl
func (r *RedisImportIndex) Remember(ctx context.Context, sourceURL string, productID uuid.UUID, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(sourceURL), productID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to write import index: %w", err)
	}
	return nil
}

// Forget drops the entry for sourceURL
func (r *RedisImportIndex) Forget(ctx context.Context, sourceURL string) error {
	if err := r.client.Del(ctx, r.key(sourceURL)).Err(); err != nil {
		return fmt.Errorf("failed to delete import index entry: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (r *RedisImportIndex) Close() error {
	return r.client.Close()
}

func (r *RedisImportIndex) key(sourceURL string) string {
	return r.keyPrefix + sourceURL
}

var _ catalog.ImportIndex = (*RedisImportIndex)(nil)
