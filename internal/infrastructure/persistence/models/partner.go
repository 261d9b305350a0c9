package models

import (
	"github.com/storefront/backend/internal/domain/partner"
)

// VendorModel is the persistence model for the Vendor domain entity.
type VendorModel struct {
	AggregateModel
	Name   string               `gorm:"type:varchar(200);not null"`
	Slug   string               `gorm:"type:varchar(100);not null;uniqueIndex:uq_vendors_slug"`
	Email  string               `gorm:"type:varchar(200);not null"`
	Status partner.VendorStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the persistence model to a domain Vendor entity.
func (m *VendorModel) ToDomain() *partner.Vendor {
	return &partner.Vendor{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Email:             m.Email,
		Status:            m.Status,
	}
}

// VendorModelFromDomain creates a new persistence model from a domain Vendor entity.
func VendorModelFromDomain(v *partner.Vendor) *VendorModel {
	m := &VendorModel{
		Name:   v.Name,
		Slug:   v.Slug,
		Email:  v.Email,
		Status: v.Status,
	}
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	return m
}

// AllModels lists every model managed by this service, in dependency order
func AllModels() []any {
	return []any{
		&CategoryModel{},
		&VendorModel{},
		&ProductModel{},
	}
}
