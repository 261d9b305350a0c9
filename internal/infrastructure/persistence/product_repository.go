package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// FindBySourceURL finds the product imported from sourceURL
func (r *GormProductRepository) FindBySourceURL(ctx context.Context, sourceURL string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("source_url = ?", sourceURL).First(&model).Error; err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// FindSlugsWithPrefix returns every product slug starting with prefix.
// Slugs only contain [a-z0-9-], so the prefix needs no LIKE escaping.
func (r *GormProductRepository) FindSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var slugs []string
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("slug LIKE ?", prefix+"%").
		Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}
	return slugs, nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return translateWriteError(r.db.WithContext(ctx).Create(models.ProductModelFromDomain(product)).Error)
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
