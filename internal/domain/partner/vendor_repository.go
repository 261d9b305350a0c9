package partner

import (
	"context"

	"github.com/google/uuid"
)

// VendorRepository defines the interface for vendor persistence
type VendorRepository interface {
	// FindByID finds a vendor by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Vendor, error)

	// FindFirst returns the oldest vendor, or shared.ErrNotFound when there is none
	FindFirst(ctx context.Context) (*Vendor, error)

	// FindBySlug finds a vendor by its slug
	FindBySlug(ctx context.Context, slug string) (*Vendor, error)

	// Create inserts a new vendor.
	// Returns shared.ErrAlreadyExists when the slug is already taken.
	Create(ctx context.Context, vendor *Vendor) error
}
