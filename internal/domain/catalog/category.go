package catalog

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// CategoryStatus represents the status of a category
type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "active"
	CategoryStatusInactive CategoryStatus = "inactive"
)

// Category represents a product category in the storefront taxonomy
type Category struct {
	shared.BaseAggregateRoot
	Name        string
	Slug        string
	Description string
	SortOrder   int
	Status      CategoryStatus
}

// NewCategory creates a new active category.
// An empty slug is derived from the name.
func NewCategory(name, slug string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Status:            CategoryStatusActive,
	}

	category.AddDomainEvent(NewCategoryCreatedEvent(category))

	return category, nil
}

// SetSortOrder sets the display order of the category
func (c *Category) SetSortOrder(order int) {
	c.SortOrder = order
	c.Touch()
}

// Activate activates the category
func (c *Category) Activate() error {
	if c.Status == CategoryStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Category is already active")
	}

	c.Status = CategoryStatusActive
	c.Touch()

	c.AddDomainEvent(NewCategoryStatusChangedEvent(c, CategoryStatusInactive, CategoryStatusActive))

	return nil
}

// Deactivate deactivates the category
func (c *Category) Deactivate() error {
	if c.Status == CategoryStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Category is already inactive")
	}

	c.Status = CategoryStatusInactive
	c.Touch()

	c.AddDomainEvent(NewCategoryStatusChangedEvent(c, CategoryStatusActive, CategoryStatusInactive))

	return nil
}

// IsActive returns true if the category is active
func (c *Category) IsActive() bool {
	return c.Status == CategoryStatusActive
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len([]rune(name)) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
