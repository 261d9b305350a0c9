package importapp

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DuplicateDetector finds the product a listing URL was already imported as.
// It is an optimization: lookup failures are logged and reported as "no duplicate",
// the unique constraint on source_url backs it up at write time.
type DuplicateDetector struct {
	products catalog.ProductRepository
	index    catalog.ImportIndex
	indexTTL time.Duration
	logger   *zap.Logger
}

// NewDuplicateDetector creates a DuplicateDetector. index may be nil.
func NewDuplicateDetector(products catalog.ProductRepository, index catalog.ImportIndex, indexTTL time.Duration, logger *zap.Logger) *DuplicateDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuplicateDetector{
		products: products,
		index:    index,
		indexTTL: indexTTL,
		logger:   logger,
	}
}

// Find returns the product previously imported from sourceURL, or nil when there is none.
// Only context cancellation is returned as an error.
func (d *DuplicateDetector) Find(ctx context.Context, sourceURL string) (*catalog.Product, error) {
	if sourceURL == "" {
		return nil, nil
	}

	if product := d.findIndexed(ctx, sourceURL); product != nil {
		return product, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	product, err := d.products.FindBySourceURL(ctx, sourceURL)
	switch {
	case err == nil:
		d.remember(ctx, product)
		return product, nil
	case shared.IsNotFound(err):
		return nil, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		d.logger.Warn("duplicate check failed, assuming no duplicate",
			zap.String("source_url", sourceURL),
			zap.Error(err),
		)
		return nil, nil
	}
}

func (d *DuplicateDetector) findIndexed(ctx context.Context, sourceURL string) *catalog.Product {
	if d.index == nil {
		return nil
	}

	id, ok, err := d.index.Lookup(ctx, sourceURL)
	if err != nil {
		d.logger.Warn("import index lookup failed", zap.String("source_url", sourceURL), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	product, err := d.products.FindByID(ctx, id)
	if err == nil && product.SourceURL == sourceURL {
		return product
	}
	if err != nil && !shared.IsNotFound(err) {
		d.logger.Warn("indexed product lookup failed",
			zap.String("source_url", sourceURL),
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
		return nil
	}

	d.logger.Debug("dropping stale import index entry",
		zap.String("source_url", sourceURL),
		zap.String("product_id", id.String()),
	)
	if err := d.index.Forget(ctx, sourceURL); err != nil {
		d.logger.Warn("failed to drop stale import index entry", zap.String("source_url", sourceURL), zap.Error(err))
	}
	return nil
}

func (d *DuplicateDetector) remember(ctx context.Context, product *catalog.Product) {
	if d.index == nil {
		return
	}
	if err := d.index.Remember(ctx, product.SourceURL, product.ID, d.indexTTL); err != nil {
		d.logger.Warn("failed to record import index entry",
			zap.String("source_url", product.SourceURL),
			zap.Error(err),
		)
	}
}
