package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormVendorRepository implements VendorRepository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// FindByID finds a vendor by its ID
func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Vendor, error) {
	var model models.VendorModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// FindFirst returns the oldest vendor
func (r *GormVendorRepository) FindFirst(ctx context.Context) (*partner.Vendor, error) {
	var model models.VendorModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Limit(1).
		Find(&model).Error; err != nil {
		return nil, err
	}
	if model.ID == uuid.Nil {
		return nil, translateReadError(gorm.ErrRecordNotFound)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a vendor by its slug
func (r *GormVendorRepository) FindBySlug(ctx context.Context, slug string) (*partner.Vendor, error) {
	var model models.VendorModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// Create inserts a new vendor
func (r *GormVendorRepository) Create(ctx context.Context, vendor *partner.Vendor) error {
	return translateWriteError(r.db.WithContext(ctx).Create(models.VendorModelFromDomain(vendor)).Error)
}

var _ partner.VendorRepository = (*GormVendorRepository)(nil)
