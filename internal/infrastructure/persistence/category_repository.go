package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a category by its slug
func (r *GormCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// FindActive returns active categories by sort order, then age
func (r *GormCategoryRepository) FindActive(ctx context.Context) ([]catalog.Category, error) {
	var rows []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", catalog.CategoryStatusActive).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	categories := make([]catalog.Category, 0, len(rows))
	for i := range rows {
		categories = append(categories, *rows[i].ToDomain())
	}
	return categories, nil
}

// Create inserts a new category
func (r *GormCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	return translateWriteError(r.db.WithContext(ctx).Create(models.CategoryModelFromDomain(category)).Error)
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
