package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindBySlug finds a category by its slug, returns shared.ErrNotFound when absent
	FindBySlug(ctx context.Context, slug string) (*Category, error)

	// FindActive returns all active categories ordered by sort order, then creation time
	FindActive(ctx context.Context) ([]Category, error)

	// Create inserts a new category.
	// Returns shared.ErrAlreadyExists when the slug is already taken.
	Create(ctx context.Context, category *Category) error
}
