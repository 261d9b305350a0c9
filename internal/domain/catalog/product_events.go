package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated  = "ProductCreated"
	EventTypeProductImported = "ProductImported"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	Price      decimal.Decimal `json:"price"`
	CategoryID uuid.UUID       `json:"category_id"`
	VendorID   uuid.UUID       `json:"vendor_id"`
	Status     ProductStatus   `json:"status"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
		Slug:            product.Slug,
		Price:           product.Price,
		CategoryID:      product.CategoryID,
		VendorID:        product.VendorID,
		Status:          product.Status,
	}
}

// ProductImportedEvent is published when a product is created from a marketplace listing
type ProductImportedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID `json:"product_id"`
	SourceURL      string    `json:"source_url"`
	SourcePlatform string    `json:"source_platform,omitempty"`
}

// NewProductImportedEvent creates a new ProductImportedEvent
func NewProductImportedEvent(product *Product) *ProductImportedEvent {
	return &ProductImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductImported, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		SourceURL:       product.SourceURL,
		SourcePlatform:  product.SourcePlatform,
	}
}
