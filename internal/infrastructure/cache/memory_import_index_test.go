package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const listingURL = "https://marketplace.example/item/42"

func TestInMemoryImportIndex_RememberLookupForget(t *testing.T) {
	ctx := context.Background()
	idx := NewInMemoryImportIndex(0)
	defer idx.Close()

	_, ok, err := idx.Lookup(ctx, listingURL)
	require.NoError(t, err)
	assert.False(t, ok)

	productID := uuid.New()
	require.NoError(t, idx.Remember(ctx, listingURL, productID, time.Hour))

	got, ok, err := idx.Lookup(ctx, listingURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, productID, got)

	require.NoError(t, idx.Forget(ctx, listingURL))
	_, ok, _ = idx.Lookup(ctx, listingURL)
	assert.False(t, ok)
}

func TestInMemoryImportIndex_Expiry(t *testing.T) {
	ctx := context.Background()
	idx := NewInMemoryImportIndex(0)
	defer idx.Close()

	now := time.Now()
	idx.now = func() time.Time { return now }
	require.NoError(t, idx.Remember(ctx, listingURL, uuid.New(), time.Minute))
	require.NoError(t, idx.Remember(ctx, "https://marketplace.example/item/43", uuid.New(), time.Hour))

	now = now.Add(2 * time.Minute)
	_, ok, err := idx.Lookup(ctx, listingURL)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, idx.Size())

	idx.cleanup()
	assert.Equal(t, 1, idx.Size())
}

func TestInMemoryImportIndex_CloseIsIdempotent(t *testing.T) {
	idx := NewInMemoryImportIndex(time.Millisecond)
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())
}

func TestNewImportIndex_DisabledRedis(t *testing.T) {
	idx := NewImportIndex(context.Background(), config.RedisConfig{Enabled: false}, nil)
	defer idx.Close()

	_, ok := idx.(*InMemoryImportIndex)
	assert.True(t, ok)
}

func TestNewImportIndex_FallsBackWhenRedisUnreachable(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	idx := NewImportIndex(context.Background(), config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, zap.New(core))
	defer idx.Close()

	_, ok := idx.(*InMemoryImportIndex)
	assert.True(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("Redis unavailable, falling back to in-memory import index").Len())
}
