package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ImportIndex caches which product a marketplace listing URL was imported as.
// It is a lookup accelerator; the product repository stays authoritative.
type ImportIndex interface {
	// Lookup returns the product ID recorded for sourceURL
	Lookup(ctx context.Context, sourceURL string) (uuid.UUID, bool, error)

	// Remember records that sourceURL was imported as productID
	Remember(ctx context.Context, sourceURL string, productID uuid.UUID, ttl time.Duration) error

	// Forget drops the entry for sourceURL
	Forget(ctx context.Context, sourceURL string) error
}
