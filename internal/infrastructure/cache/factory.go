package cache

import (
	"context"
	"io"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ImportIndexCloser is an import index holding resources that must be released
type ImportIndexCloser interface {
	catalog.ImportIndex
	io.Closer
}

// NewImportIndex returns a Redis-backed index when Redis is enabled and reachable,
// otherwise an in-memory one. The index only accelerates duplicate detection,
// so an unreachable Redis degrades to the in-memory index with a warning.
func NewImportIndex(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) ImportIndexCloser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("using in-memory import index")
		return NewInMemoryImportIndex(defaultCleanupInterval)
	}

	idx, err := NewRedisImportIndex(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory import index",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return NewInMemoryImportIndex(defaultCleanupInterval)
	}

	logger.Info("using Redis import index", zap.String("addr", cfg.Addr()))
	return idx
}
