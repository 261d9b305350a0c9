package partner

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant for Vendor
const AggregateTypeVendor = "Vendor"

// Event type constants for Vendor
const (
	EventTypeVendorCreated = "VendorCreated"
)

// VendorCreatedEvent is published when a new vendor is created
type VendorCreatedEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID `json:"vendor_id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
}

// NewVendorCreatedEvent creates a new VendorCreatedEvent
func NewVendorCreatedEvent(vendor *Vendor) *VendorCreatedEvent {
	return &VendorCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorCreated, AggregateTypeVendor, vendor.ID),
		VendorID:        vendor.ID,
		Name:            vendor.Name,
		Slug:            vendor.Slug,
	}
}
