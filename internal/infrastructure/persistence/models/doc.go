// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - catalog.go: Catalog context models (Category, Product)
// - partner.go: Partner context models (Vendor)
package models
