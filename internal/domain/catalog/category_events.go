package catalog

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeCategory = "Category"

// Event type constants
const (
	EventTypeCategoryCreated       = "CategoryCreated"
	EventTypeCategoryStatusChanged = "CategoryStatusChanged"
)

// CategoryCreatedEvent is published when a new category is created
type CategoryCreatedEvent struct {
	shared.BaseDomainEvent
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
}

// NewCategoryCreatedEvent creates a new CategoryCreatedEvent
func NewCategoryCreatedEvent(category *Category) *CategoryCreatedEvent {
	return &CategoryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCategoryCreated, AggregateTypeCategory, category.ID),
		CategoryID:      category.ID,
		Name:            category.Name,
		Slug:            category.Slug,
	}
}

// CategoryStatusChangedEvent is published when a category's status changes
type CategoryStatusChangedEvent struct {
	shared.BaseDomainEvent
	CategoryID uuid.UUID      `json:"category_id"`
	Slug       string         `json:"slug"`
	OldStatus  CategoryStatus `json:"old_status"`
	NewStatus  CategoryStatus `json:"new_status"`
}

// NewCategoryStatusChangedEvent creates a new CategoryStatusChangedEvent
func NewCategoryStatusChangedEvent(category *Category, oldStatus, newStatus CategoryStatus) *CategoryStatusChangedEvent {
	return &CategoryStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCategoryStatusChanged, AggregateTypeCategory, category.ID),
		CategoryID:      category.ID,
		Slug:            category.Slug,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}
