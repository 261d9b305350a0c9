package importapp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/integration"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/mock"
)

// MockListingFetcher is a mock implementation of integration.ListingFetcher
type MockListingFetcher struct {
	mock.Mock
}

func (m *MockListingFetcher) FetchListingByURL(ctx context.Context, listingURL string) (*integration.ScrapedListing, error) {
	args := m.Called(ctx, listingURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ScrapedListing), args.Error(1)
}

// MockImportIndex is a mock implementation of catalog.ImportIndex
type MockImportIndex struct {
	mock.Mock
}

func (m *MockImportIndex) Lookup(ctx context.Context, sourceURL string) (uuid.UUID, bool, error) {
	args := m.Called(ctx, sourceURL)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockImportIndex) Remember(ctx context.Context, sourceURL string, productID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, sourceURL, productID, ttl)
	return args.Error(0)
}

func (m *MockImportIndex) Forget(ctx context.Context, sourceURL string) error {
	args := m.Called(ctx, sourceURL)
	return args.Error(0)
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func intPtr(v int) *int {
	return &v
}

func testListing(name string) *integration.ScrapedListing {
	return &integration.ScrapedListing{
		ExternalID:     "abc",
		Name:           name,
		Description:    "A fine product",
		Price:          dec("1000"),
		Images:         []string{"https://img.marketplace.example/1.jpg"},
		StockQuantity:  intPtr(3),
		SourceURL:      "https://marketplace.example/item/abc",
		SourcePlatform: "marketplace",
	}
}

func testServiceConfig() ServiceConfig {
	return ServiceConfig{
		AllowedDomains:  []string{"marketplace.example"},
		AdminWriteKey:   "write-key",
		MaxSlugAttempts: DefaultMaxSlugAttempts,
		IndexTTL:        time.Hour,
		Category: CategoryResolverConfig{
			SimilarityThreshold: DefaultSimilarityThreshold,
			Keywords: map[string][]string{
				"electronics": {"phone", "headphones", "charger"},
				"home":        {"lamp", "kitchen"},
			},
			DefaultSlug: "imported-products",
			DefaultName: "Produits Importés",
		},
		Vendor: VendorResolverConfig{
			DefaultName:  "Imported Goods",
			DefaultSlug:  "imported-goods",
			DefaultEmail: "imports@storefront.invalid",
		},
	}
}

func seedCategory(store *memory.Store, name, slug string) *catalog.Category {
	category, err := catalog.NewCategory(name, slug)
	if err != nil {
		panic(err)
	}
	if err := store.Categories().Create(context.Background(), category); err != nil {
		panic(err)
	}
	return category
}

func seedVendor(store *memory.Store, name, slug string) *partner.Vendor {
	vendor, err := partner.NewVendor(name, slug, slug+"@vendors.example")
	if err != nil {
		panic(err)
	}
	if err := store.Vendors().Create(context.Background(), vendor); err != nil {
		panic(err)
	}
	return vendor
}

func seedProduct(store *memory.Store, slug, sourceURL string) *catalog.Product {
	product, err := catalog.NewProduct(catalog.NewProductParams{
		Name:       "Seeded " + slug,
		Slug:       slug,
		Price:      decimal.NewFromInt(10),
		Images:     []string{"https://img.example/seed.jpg"},
		CategoryID: uuid.New(),
		VendorID:   uuid.New(),
		SourceURL:  sourceURL,
	})
	if err != nil {
		panic(err)
	}
	store.Products().Put(product)
	return product
}
