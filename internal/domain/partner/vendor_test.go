package partner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVendor(t *testing.T) {
	t.Run("creates active vendor", func(t *testing.T) {
		vendor, err := NewVendor("Imported Goods", "imported-goods", "Imports@Store.Example")
		require.NoError(t, err)

		assert.Equal(t, "Imported Goods", vendor.Name)
		assert.Equal(t, "imported-goods", vendor.Slug)
		assert.Equal(t, "imports@store.example", vendor.Email)
		assert.True(t, vendor.IsActive())

		events := vendor.GetDomainEvents()
		require.Len(t, events, 1)
		created, ok := events[0].(*VendorCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, vendor.ID, created.VendorID)
	})

	tests := []struct {
		name    string
		vName   string
		slug    string
		email   string
		wantErr string
	}{
		{"empty name", "", "imported-goods", "a@b.example", "name cannot be empty"},
		{"uppercase slug", "Imported", "Imported-Goods", "a@b.example", "lowercase words"},
		{"trailing hyphen", "Imported", "imported-", "a@b.example", "lowercase words"},
		{"bad email", "Imported", "imported", "not-an-email", "Invalid email format"},
	}
	for _, tt := range tests {
		t.Run("fails with "+tt.name, func(t *testing.T) {
			_, err := NewVendor(tt.vName, tt.slug, tt.email)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVendor_Deactivate(t *testing.T) {
	vendor, err := NewVendor("Imported Goods", "imported-goods", "imports@store.example")
	require.NoError(t, err)

	require.NoError(t, vendor.Deactivate())
	assert.False(t, vendor.IsActive())
	assert.Error(t, vendor.Deactivate())
}
