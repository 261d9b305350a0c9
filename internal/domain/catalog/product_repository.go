package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySourceURL finds the product imported from a marketplace listing URL
	FindBySourceURL(ctx context.Context, sourceURL string) (*Product, error)

	// FindSlugsWithPrefix returns every product slug starting with prefix
	FindSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)

	// Create inserts a new product.
	// Returns shared.ErrAlreadyExists when the slug or source URL is already taken.
	Create(ctx context.Context, product *Product) error
}
