package importapp

import (
	"errors"
	"strings"
	"testing"

	"github.com/storefront/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importErrorOf(t *testing.T, err error) *ImportError {
	t.Helper()
	var ie *ImportError
	require.True(t, errors.As(err, &ie), "expected ImportError, got %v", err)
	return ie
}

func TestListingValidator_CheckMandatory(t *testing.T) {
	v := NewListingValidator()

	tests := []struct {
		name    string
		mutate  func(l *integration.ScrapedListing)
		missing []string
	}{
		{name: "complete listing", mutate: func(l *integration.ScrapedListing) {}},
		{name: "empty images", mutate: func(l *integration.ScrapedListing) { l.Images = []string{} }, missing: []string{"images"}},
		{name: "blank images only", mutate: func(l *integration.ScrapedListing) { l.Images = []string{" ", ""} }, missing: []string{"images"}},
		{
			name: "placeholder images only",
			mutate: func(l *integration.ScrapedListing) {
				l.Images = []string{"https://img.marketplace.example/placeholder.jpg", "null"}
			},
			missing: []string{"images"},
		},
		{name: "blank name", mutate: func(l *integration.ScrapedListing) { l.Name = "   " }, missing: []string{"name"}},
		{name: "no price", mutate: func(l *integration.ScrapedListing) { l.Price = nil }, missing: []string{"price"}},
		{name: "zero price", mutate: func(l *integration.ScrapedListing) { l.Price = dec("0") }, missing: []string{"price"}},
		{name: "negative price", mutate: func(l *integration.ScrapedListing) { l.Price = dec("-5") }, missing: []string{"price"}},
		{
			name: "everything missing",
			mutate: func(l *integration.ScrapedListing) {
				l.Name, l.Price, l.Images = "", nil, nil
			},
			missing: []string{"name", "price", "images"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := testListing("Test Widget")
			tt.mutate(listing)

			err := v.CheckMandatory(listing)
			if len(tt.missing) == 0 {
				assert.NoError(t, err)
				return
			}

			ie := importErrorOf(t, err)
			assert.Equal(t, CodeIncompleteListing, ie.Code)
			paths := make([]string, len(ie.Details))
			for i, d := range ie.Details {
				paths[i] = d.Path
			}
			assert.Equal(t, tt.missing, paths)
			for _, field := range tt.missing {
				assert.Contains(t, ie.Message, field)
			}
		})
	}
}

func TestListingValidator_CheckMandatory_NilListing(t *testing.T) {
	ie := importErrorOf(t, NewListingValidator().CheckMandatory(nil))
	assert.Len(t, ie.Details, 3)
}

func TestListingValidator_Validate(t *testing.T) {
	v := NewListingValidator()

	t.Run("valid listing", func(t *testing.T) {
		listing := testListing("  Test Widget  ")
		listing.CompareAtPrice = dec("1200")
		listing.SKU = " TW-1 "

		validated, err := v.Validate(listing)
		require.NoError(t, err)
		assert.Equal(t, "Test Widget", validated.Name)
		assert.Equal(t, "TW-1", validated.SKU)
		assert.True(t, validated.Price.Equal(*dec("1000")))
		assert.True(t, validated.CompareAtPrice.Equal(*dec("1200")))
		assert.Equal(t, 3, validated.StockQuantity)
		assert.Equal(t, listing.Images, validated.Images)
	})

	t.Run("missing stock defaults to zero", func(t *testing.T) {
		listing := testListing("Test Widget")
		listing.StockQuantity = nil

		validated, err := v.Validate(listing)
		require.NoError(t, err)
		assert.Zero(t, validated.StockQuantity)
	})

	t.Run("reports every violation at once", func(t *testing.T) {
		listing := testListing(strings.Repeat("n", 201))
		listing.ShortDescription = strings.Repeat("s", 501)
		listing.Price = dec("1000000.01")
		listing.CompareAtPrice = dec("-1")
		listing.Images = []string{"https://img/1.jpg", "not a url", "ftp://img/3.jpg"}
		listing.StockQuantity = intPtr(-1)
		listing.SKU = strings.Repeat("k", 101)
		listing.SourceURL = "http://marketplace.example/item/abc"
		listing.SourcePlatform = strings.Repeat("p", 51)

		_, err := v.Validate(listing)
		ie := importErrorOf(t, err)
		assert.Equal(t, CodeValidationFailed, ie.Code)
		assert.True(t, errors.Is(err, ErrValidationFailed))

		got := map[string]string{}
		for _, d := range ie.Details {
			got[d.Path] = d.Message
		}
		assert.Equal(t, map[string]string{
			"name":             "must be at most 200 characters",
			"shortDescription": "must be at most 500 characters",
			"images[1]":        "must be an absolute http(s) URL",
			"images[2]":        "must be an absolute http(s) URL",
			"stockQuantity":    "must be at least 0",
			"sku":              "must be at most 100 characters",
			"sourceUrl":        "must be an absolute https URL",
			"sourcePlatform":   "must be at most 50 characters",
			"price":            "must be at most 1000000",
			"compareAtPrice":   "must be greater than or equal to 0",
		}, got)
	})

	t.Run("too many images", func(t *testing.T) {
		listing := testListing("Test Widget")
		listing.Images = make([]string, MaxImages+1)
		for i := range listing.Images {
			listing.Images[i] = "https://img.example/x.jpg"
		}

		_, err := v.Validate(listing)
		ie := importErrorOf(t, err)
		require.Len(t, ie.Details, 1)
		assert.Equal(t, FieldError{Path: "images", Message: "must contain at most 20 entries"}, ie.Details[0])
	})

	t.Run("empty image entry", func(t *testing.T) {
		listing := testListing("Test Widget")
		listing.Images = []string{"https://img.example/1.jpg", ""}

		_, err := v.Validate(listing)
		ie := importErrorOf(t, err)
		require.Len(t, ie.Details, 1)
		assert.Equal(t, "images[1]", ie.Details[0].Path)
		assert.Equal(t, "is required", ie.Details[0].Message)
	})

	t.Run("mandatory failure comes first", func(t *testing.T) {
		listing := testListing("Test Widget")
		listing.Images = nil

		_, err := v.Validate(listing)
		assert.True(t, errors.Is(err, ErrIncompleteListing))
	})

	t.Run("placeholder images are dropped", func(t *testing.T) {
		listing := testListing("Test Widget")
		listing.Images = []string{
			"https://img.marketplace.example/placeholder.jpg",
			"https://img.marketplace.example/placeholder-free/1.jpg",
		}

		validated, err := v.Validate(listing)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://img.marketplace.example/placeholder-free/1.jpg"}, validated.Images)
	})

	t.Run("prices keep two decimal places", func(t *testing.T) {
		listing := testListing("Test Widget")
		listing.Price = dec("0.001")
		listing.CompareAtPrice = dec("12.345")

		_, err := v.Validate(listing)
		ie := importErrorOf(t, err)
		assert.Equal(t, CodeValidationFailed, ie.Code)
		got := map[string]string{}
		for _, d := range ie.Details {
			got[d.Path] = d.Message
		}
		assert.Equal(t, map[string]string{
			"price":          "must have at most 2 decimal places",
			"compareAtPrice": "must have at most 2 decimal places",
		}, got)

		listing.Price = dec("12.50")
		listing.CompareAtPrice = dec("15.1")
		validated, err := v.Validate(listing)
		require.NoError(t, err)
		assert.True(t, validated.Price.Equal(*dec("12.5")))
	})

	t.Run("multibyte names count characters", func(t *testing.T) {
		listing := testListing(strings.Repeat("é", 200))
		_, err := v.Validate(listing)
		assert.NoError(t, err)
	})
}
