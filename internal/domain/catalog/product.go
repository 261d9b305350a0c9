package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStatus represents the publication status of a product
type ProductStatus string

const (
	ProductStatusDraft  ProductStatus = "draft"
	ProductStatusActive ProductStatus = "active"
)

// MaxProductNameLength is the maximum product name length in characters
const MaxProductNameLength = 200

// Product represents a sellable catalog entry.
// Imported products remember the marketplace listing they came from.
type Product struct {
	shared.BaseAggregateRoot
	Name             string
	Slug             string
	Description      string
	ShortDescription string
	Price            decimal.Decimal
	ComparePrice     *decimal.Decimal
	Images           []string
	CategoryID       uuid.UUID
	VendorID         uuid.UUID
	SKU              string
	Quantity         int
	Status           ProductStatus
	SourceURL        string
	SourcePlatform   string
}

// NewProductParams holds the values needed to create a product
type NewProductParams struct {
	Name             string
	Slug             string
	Description      string
	ShortDescription string
	Price            decimal.Decimal
	ComparePrice     *decimal.Decimal
	Images           []string
	CategoryID       uuid.UUID
	VendorID         uuid.UUID
	SKU              string
	Quantity         int
	Publish          bool
	SourceURL        string
	SourcePlatform   string
}

// NewProduct creates a new product.
// The product is a draft unless Publish is set.
func NewProduct(params NewProductParams) (*Product, error) {
	name := strings.TrimSpace(params.Name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateSlug(params.Slug); err != nil {
		return nil, err
	}
	if !params.Price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price must be greater than zero")
	}
	if params.ComparePrice != nil && params.ComparePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Compare price cannot be negative")
	}
	if len(params.Images) == 0 {
		return nil, shared.NewDomainError("INVALID_IMAGES", "Product must have at least one image")
	}
	if params.CategoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Product must belong to a category")
	}
	if params.VendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Product must belong to a vendor")
	}
	if params.Quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}

	status := ProductStatusDraft
	if params.Publish {
		status = ProductStatusActive
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              params.Slug,
		Description:       params.Description,
		ShortDescription:  params.ShortDescription,
		Price:             params.Price,
		ComparePrice:      params.ComparePrice,
		Images:            append([]string(nil), params.Images...),
		CategoryID:        params.CategoryID,
		VendorID:          params.VendorID,
		SKU:               params.SKU,
		Quantity:          params.Quantity,
		Status:            status,
		SourceURL:         params.SourceURL,
		SourcePlatform:    params.SourcePlatform,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))
	if product.IsImported() {
		product.AddDomainEvent(NewProductImportedEvent(product))
	}

	return product, nil
}

// ChangeSlug replaces the slug of a product that has not been persisted yet
func (p *Product) ChangeSlug(slug string) error {
	if err := validateSlug(slug); err != nil {
		return err
	}
	p.Slug = slug
	return nil
}

// IsActive returns true if the product is published
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsImported returns true if the product originates from a marketplace listing
func (p *Product) IsImported() bool {
	return p.SourceURL != ""
}

// HasRequiredReferences reports whether both the category and vendor links are set
func (p *Product) HasRequiredReferences() bool {
	return p.CategoryID != uuid.Nil && p.VendorID != uuid.Nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len([]rune(name)) > MaxProductNameLength {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
