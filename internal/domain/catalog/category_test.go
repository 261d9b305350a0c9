package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	t.Run("creates active category", func(t *testing.T) {
		category, err := NewCategory("Produits Importés", "imported-products")
		require.NoError(t, err)

		assert.Equal(t, "Produits Importés", category.Name)
		assert.Equal(t, "imported-products", category.Slug)
		assert.True(t, category.IsActive())
		assert.NotEmpty(t, category.ID)
	})

	t.Run("derives slug from name", func(t *testing.T) {
		category, err := NewCategory("Home & Garden", "")
		require.NoError(t, err)
		assert.Equal(t, "home-garden", category.Slug)
	})

	t.Run("publishes CategoryCreated event", func(t *testing.T) {
		category, err := NewCategory("Electronics", "")
		require.NoError(t, err)

		events := category.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*CategoryCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, category.ID, event.CategoryID)
		assert.Equal(t, "electronics", event.Slug)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewCategory("   ", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with invalid slug", func(t *testing.T) {
		_, err := NewCategory("Electronics", "Not A Slug")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Slug can only contain")
	})
}

func TestCategory_StatusTransitions(t *testing.T) {
	category, err := NewCategory("Electronics", "")
	require.NoError(t, err)
	category.ClearDomainEvents()

	require.NoError(t, category.Deactivate())
	assert.False(t, category.IsActive())
	assert.Equal(t, 2, category.GetVersion())

	err = category.Deactivate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already inactive")

	require.NoError(t, category.Activate())
	assert.True(t, category.IsActive())

	events := category.GetDomainEvents()
	require.Len(t, events, 2)
	changed, ok := events[1].(*CategoryStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, CategoryStatusInactive, changed.OldStatus)
	assert.Equal(t, CategoryStatusActive, changed.NewStatus)
}
