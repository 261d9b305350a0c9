package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	AggregateModel
	Name        string                 `gorm:"type:varchar(100);not null"`
	Slug        string                 `gorm:"type:varchar(100);not null;uniqueIndex:uq_categories_slug"`
	Description string                 `gorm:"type:text"`
	SortOrder   int                    `gorm:"not null;default:0"`
	Status      catalog.CategoryStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		SortOrder:         m.SortOrder,
		Status:            m.Status,
	}
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
		Status:      c.Status,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// ProductModel is the persistence model for the Product domain entity.
// Category and vendor are nullable at the Go level so that a row missing
// either reference is observable after a write.
type ProductModel struct {
	AggregateModel
	Name             string                `gorm:"type:varchar(200);not null"`
	Slug             string                `gorm:"type:varchar(100);not null;uniqueIndex:uq_products_slug"`
	Description      string                `gorm:"type:text"`
	ShortDescription string                `gorm:"type:varchar(500)"`
	Price            decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	ComparePrice     decimal.NullDecimal   `gorm:"type:decimal(18,2)"`
	Images           []string              `gorm:"type:text;serializer:json;not null"`
	CategoryID       *uuid.UUID            `gorm:"type:uuid;index"`
	VendorID         *uuid.UUID            `gorm:"type:uuid;index"`
	SKU              string                `gorm:"type:varchar(100)"`
	Quantity         int                   `gorm:"not null;default:0"`
	Status           catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	SourceURL        *string               `gorm:"type:varchar(2048);uniqueIndex:uq_products_source_url"`
	SourcePlatform   string                `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		ShortDescription:  m.ShortDescription,
		Price:             m.Price,
		Images:            m.Images,
		SKU:               m.SKU,
		Quantity:          m.Quantity,
		Status:            m.Status,
		SourcePlatform:    m.SourcePlatform,
	}
	if m.ComparePrice.Valid {
		cp := m.ComparePrice.Decimal
		p.ComparePrice = &cp
	}
	if m.CategoryID != nil {
		p.CategoryID = *m.CategoryID
	}
	if m.VendorID != nil {
		p.VendorID = *m.VendorID
	}
	if m.SourceURL != nil {
		p.SourceURL = *m.SourceURL
	}
	return p
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price,
		Images:           p.Images,
		SKU:              p.SKU,
		Quantity:         p.Quantity,
		Status:           p.Status,
		SourcePlatform:   p.SourcePlatform,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	if p.ComparePrice != nil {
		m.ComparePrice = decimal.NewNullDecimal(*p.ComparePrice)
	}
	if p.CategoryID != uuid.Nil {
		id := p.CategoryID
		m.CategoryID = &id
	}
	if p.VendorID != uuid.Nil {
		id := p.VendorID
		m.VendorID = &id
	}
	if p.SourceURL != "" {
		u := p.SourceURL
		m.SourceURL = &u
	}
	return m
}
