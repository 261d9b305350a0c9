package partner

import (
	"regexp"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// VendorStatus represents the status of a vendor
type VendorStatus string

const (
	VendorStatusActive   VendorStatus = "active"
	VendorStatusInactive VendorStatus = "inactive"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Vendor represents the seller a catalog product is attributed to
type Vendor struct {
	shared.BaseAggregateRoot
	Name   string
	Slug   string
	Email  string
	Status VendorStatus
}

// NewVendor creates a new active vendor
func NewVendor(name, slug, email string) (*Vendor, error) {
	name = strings.TrimSpace(name)
	if err := validateVendorName(name); err != nil {
		return nil, err
	}
	if err := validateVendorSlug(slug); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	vendor := &Vendor{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Email:             strings.ToLower(email),
		Status:            VendorStatusActive,
	}

	vendor.AddDomainEvent(NewVendorCreatedEvent(vendor))

	return vendor, nil
}

// Deactivate deactivates the vendor
func (v *Vendor) Deactivate() error {
	if v.Status == VendorStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Vendor is already inactive")
	}

	v.Status = VendorStatusInactive
	v.Touch()

	return nil
}

// IsActive returns true if the vendor is active
func (v *Vendor) IsActive() bool {
	return v.Status == VendorStatusActive
}

func validateVendorName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Vendor name cannot be empty")
	}
	if len([]rune(name)) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Vendor name cannot exceed 200 characters")
	}
	return nil
}

func validateVendorSlug(slug string) error {
	if len(slug) > 100 {
		return shared.NewDomainError("INVALID_SLUG", "Vendor slug cannot exceed 100 characters")
	}
	if !slugRegex.MatchString(slug) {
		return shared.NewDomainError("INVALID_SLUG", "Vendor slug must be lowercase words separated by hyphens")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
