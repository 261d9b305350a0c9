package importapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/integration"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type serviceFixture struct {
	store   *memory.Store
	fetcher *MockListingFetcher
	index   *cache.InMemoryImportIndex
	bus     *event.InMemoryEventBus
	logs    *observer.ObservedLogs
	service *ImportService
}

func newServiceFixture(t *testing.T, mutate ...func(*ServiceConfig)) *serviceFixture {
	t.Helper()
	cfg := testServiceConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	store := memory.NewStore()
	fetcher := new(MockListingFetcher)
	index := cache.NewInMemoryImportIndex(0)
	t.Cleanup(func() { _ = index.Close() })

	bus := event.NewInMemoryEventBus(logger)
	bus.Subscribe(NewImportIndexHandler(index, cfg.IndexTTL))

	return &serviceFixture{
		store:   store,
		fetcher: fetcher,
		index:   index,
		bus:     bus,
		logs:    logs,
		service: NewImportService(fetcher, store.Categories(), store.Vendors(), store.Products(), index, bus, cfg, logger),
	}
}

func (f *serviceFixture) expectFetch(url string, listing *integration.ScrapedListing) {
	f.fetcher.On("FetchListingByURL", mock.Anything, url).Return(listing, nil)
}

func TestImportProduct_EndToEndDraftImport(t *testing.T) {
	f := newServiceFixture(t)
	f.expectFetch("https://marketplace.example/item/abc", &integration.ScrapedListing{
		Name:   "Test Widget",
		Price:  dec("1000"),
		Images: []string{"https://img/1.jpg"},
	})

	resp, err := f.service.ImportProduct(context.Background(), ImportRequest{
		URL:             "https://marketplace.example/item/abc",
		ImportDirectly:  true,
		PublishDirectly: false,
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeImported, resp.Outcome)
	assert.Equal(t, MessageImported, resp.Message)
	p := resp.Product
	require.NotNil(t, p)
	assert.Equal(t, catalog.ProductStatusDraft, p.Status)
	assert.Equal(t, "test-widget", p.Slug)
	assert.Equal(t, 0, p.Quantity)
	assert.Equal(t, "https://marketplace.example/item/abc", p.SourceURL)

	category, err := f.store.Categories().FindByID(context.Background(), p.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "imported-products", category.Slug)
	vendor, err := f.store.Vendors().FindByID(context.Background(), p.VendorID)
	require.NoError(t, err)
	assert.Equal(t, "imported-goods", vendor.Slug)

	assert.Equal(t, 1, f.store.CategoryCount())
	assert.Equal(t, 1, f.store.VendorCount())
	assert.Equal(t, 1, f.store.ProductCount())

	require.NotNil(t, resp.Session)
	assert.Equal(t, StateSucceeded, resp.Session.State)
	assert.Len(t, resp.Session.Timeline, 7)
	assert.NotNil(t, resp.Session.CreatedCategoryID)
	assert.NotNil(t, resp.Session.CreatedVendorID)
}

func TestImportProduct_Idempotent(t *testing.T) {
	f := newServiceFixture(t)
	f.expectFetch(itemURL, testListing("Test Widget"))
	req := ImportRequest{URL: itemURL, ImportDirectly: true}

	first, err := f.service.ImportProduct(context.Background(), req)
	require.NoError(t, err)
	second, err := f.service.ImportProduct(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, OutcomeImported, first.Outcome)
	assert.Equal(t, OutcomeAlreadyImported, second.Outcome)
	assert.Equal(t, MessageAlreadyImported, second.Message)
	assert.Equal(t, first.Product.ID, second.Product.ID)
	assert.Equal(t, 1, f.store.ProductCount())
	assert.Equal(t, 1, f.store.Calls(memory.OpCreateProduct))

	// The repeat is answered by the import index, not a source URL query.
	assert.Equal(t, 1, f.store.Calls(memory.OpFindBySourceURL))
	id, ok, err := f.index.Lookup(context.Background(), itemURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first.Product.ID, id)
}

func TestImportProduct_IdempotentWithoutIndex(t *testing.T) {
	store := memory.NewStore()
	fetcher := new(MockListingFetcher)
	fetcher.On("FetchListingByURL", mock.Anything, itemURL).Return(testListing("Test Widget"), nil)
	svc := NewImportService(fetcher, store.Categories(), store.Vendors(), store.Products(), nil, nil, testServiceConfig(), nil)

	req := ImportRequest{URL: itemURL, ImportDirectly: true}
	first, err := svc.ImportProduct(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.ImportProduct(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Product.ID, second.Product.ID)
	assert.Equal(t, OutcomeAlreadyImported, second.Outcome)
	assert.Equal(t, 1, store.ProductCount())
}

func TestImportProduct_FragmentVariantIsSameListing(t *testing.T) {
	f := newServiceFixture(t)
	f.expectFetch(itemURL, testListing("Test Widget"))

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	require.NoError(t, err)
	resp, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL + "#reviews", ImportDirectly: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyImported, resp.Outcome)
}

func TestImportProduct_MandatoryRejectionBeforeAnyWrite(t *testing.T) {
	f := newServiceFixture(t)
	listing := testListing("Perfectly Valid Name")
	listing.Images = []string{}
	f.expectFetch(itemURL, listing)

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	ie := importErrorOf(t, err)
	assert.Equal(t, CodeIncompleteListing, ie.Code)
	assert.Contains(t, ie.Message, "images")

	assert.Zero(t, f.store.Calls(memory.OpCreateCategory))
	assert.Zero(t, f.store.Calls(memory.OpCreateVendor))
	assert.Zero(t, f.store.Calls(memory.OpCreateProduct))
	assert.Zero(t, f.store.Calls(memory.OpFindBySourceURL))
}

func TestImportProduct_ValidationFailureReportsAllFields(t *testing.T) {
	f := newServiceFixture(t)
	listing := testListing("Test Widget")
	listing.Images = []string{"https://img/1.jpg", "nope"}
	listing.StockQuantity = intPtr(-3)
	f.expectFetch(itemURL, listing)

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	ie := importErrorOf(t, err)
	assert.Equal(t, CodeValidationFailed, ie.Code)
	assert.Len(t, ie.Details, 2)
	assert.Zero(t, f.store.Calls(memory.OpCreateProduct))
}

func TestImportProduct_URLGate(t *testing.T) {
	for _, raw := range []string{"http://example.com/product", "https://othersite.com/product"} {
		t.Run(raw, func(t *testing.T) {
			f := newServiceFixture(t)

			_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: raw, ImportDirectly: true})
			assert.True(t, errors.Is(err, ErrInvalidURL))
			f.fetcher.AssertNotCalled(t, "FetchListingByURL", mock.Anything, mock.Anything)
		})
	}

	t.Run("accepted URL reaches the fetcher", func(t *testing.T) {
		f := newServiceFixture(t)
		f.fetcher.On("FetchListingByURL", mock.Anything, "https://marketplace.example/item/123").
			Return(nil, integration.ErrListingNotFound)

		_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: "https://marketplace.example/item/123"})
		assert.True(t, errors.Is(err, ErrListingNotFound))
		f.fetcher.AssertExpectations(t)
	})
}

func TestImportProduct_SlugUniqueness(t *testing.T) {
	f := newServiceFixture(t)
	seedProduct(f.store, "wireless-mouse", "")

	var slugs []string
	for i := 1; i <= 2; i++ {
		url := fmt.Sprintf("https://marketplace.example/item/mouse-%d", i)
		listing := testListing("Wireless Mouse")
		f.expectFetch(url, listing)

		resp, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: url, ImportDirectly: true})
		require.NoError(t, err)
		slugs = append(slugs, resp.Product.Slug)
	}

	assert.Equal(t, []string{"wireless-mouse-2", "wireless-mouse-3"}, slugs)
}

func TestImportProduct_SlugUniquenessForLongNames(t *testing.T) {
	f := newServiceFixture(t)
	name := strings.TrimSpace(strings.Repeat("abcd ", 40))
	require.Len(t, name, 199)

	seen := map[string]struct{}{}
	var last string
	for i := 1; i <= 8; i++ {
		url := fmt.Sprintf("https://marketplace.example/item/long-%d", i)
		f.expectFetch(url, testListing(name))

		resp, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: url, ImportDirectly: true})
		require.NoError(t, err, "import %d", i)
		slug := resp.Product.Slug
		assert.LessOrEqual(t, len(slug), catalog.MaxSlugLength)
		assert.NotContains(t, seen, slug)
		seen[slug] = struct{}{}
		last = slug
	}

	assert.Equal(t, catalog.SlugCandidate(catalog.Slugify(name), 8), last)
	assert.Equal(t, 8, f.store.Calls(memory.OpCreateProduct))
}

func TestImportProduct_CategoryFallbackDeterminism(t *testing.T) {
	f := newServiceFixture(t)
	seedCategory(f.store, "Garden Tools", "garden-tools")
	seedCategory(f.store, "Electronics", "electronics")

	f.expectFetch("https://marketplace.example/item/1", testListing("Bluetooth Speaker"))
	f.expectFetch("https://marketplace.example/item/2", testListing("Scented Candle"))

	first, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: "https://marketplace.example/item/1", ImportDirectly: true})
	require.NoError(t, err)
	second, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: "https://marketplace.example/item/2", ImportDirectly: true})
	require.NoError(t, err)

	def, err := f.store.Categories().FindBySlug(context.Background(), "imported-products")
	require.NoError(t, err)
	assert.Equal(t, def.ID, first.Product.CategoryID)
	assert.Equal(t, def.ID, second.Product.CategoryID)
	assert.Equal(t, 3, f.store.CategoryCount())
	// two seeded, one default
	assert.Equal(t, 3, f.store.Calls(memory.OpCreateCategory))
}

func TestImportProduct_NeverPersistsNullReferences(t *testing.T) {
	tests := []struct {
		name  string
		setup func(store *memory.Store)
	}{
		{name: "everything created", setup: func(*memory.Store) {}},
		{name: "existing vendor and matching category", setup: func(s *memory.Store) {
			seedVendor(s, "Acme", "acme")
			seedCategory(s, "Widgets", "widgets")
		}},
		{name: "default category creation fails, first active used", setup: func(s *memory.Store) {
			seedCategory(s, "Garden Tools", "garden-tools")
			s.FailNext(memory.OpCreateCategory, errors.New("permission denied"))
		}},
		{name: "default category created concurrently", setup: func(s *memory.Store) {
			s.FailNext(memory.OpFindCategoryBySlug, errors.New("timeout"))
			seedCategory(s, "Produits Importés", "imported-products")
		}},
		{name: "vendor lookup fails", setup: func(s *memory.Store) {
			s.FailNext(memory.OpFindFirstVendor, errors.New("timeout"))
		}},
		{name: "category listing fails", setup: func(s *memory.Store) {
			s.FailNext(memory.OpFindActiveCategory, errors.New("timeout"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			tt.setup(f.store)
			f.expectFetch(itemURL, testListing("Test Widget"))

			resp, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
			require.NoError(t, err)
			assert.True(t, resp.Product.HasRequiredReferences())

			stored, err := f.store.Products().FindByID(context.Background(), resp.Product.ID)
			require.NoError(t, err)
			assert.True(t, stored.HasRequiredReferences())
		})
	}
}

func TestImportProduct_ResolutionFailureWritesNoProduct(t *testing.T) {
	f := newServiceFixture(t)
	f.store.FailNext(memory.OpCreateCategory, errors.New("permission denied"))
	f.expectFetch(itemURL, testListing("Test Widget"))

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	assert.True(t, errors.Is(err, ErrNoCategoryAvailable))
	assert.Zero(t, f.store.ProductCount())
	assert.Zero(t, f.store.Calls(memory.OpCreateVendor))
}

func TestImportProduct_OrphanCandidatesLogged(t *testing.T) {
	f := newServiceFixture(t)
	f.store.FailNext(memory.OpCreateVendor, errors.New("permission denied"))
	f.expectFetch(itemURL, testListing("Test Widget"))

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	require.True(t, errors.Is(err, ErrNoVendorAvailable))

	// The default category stays behind.
	assert.Equal(t, 1, f.store.CategoryCount())
	entries := f.logs.FilterMessage("product import failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, CodeNoVendorAvailable, fields["code"])
	assert.Equal(t, string(StateResolvingVendor), fields["stage"])
	assert.Len(t, fields["orphan_candidates"], 1)
}

func TestImportProduct_Preview(t *testing.T) {
	f := newServiceFixture(t)
	f.expectFetch(itemURL, testListing("Test Widget"))

	resp, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL})
	require.NoError(t, err)

	assert.Equal(t, OutcomePreview, resp.Outcome)
	assert.Nil(t, resp.Product)
	require.NotNil(t, resp.Preview)
	assert.Equal(t, "Test Widget", resp.Preview.Listing.Name)
	assert.Equal(t, "test-widget", resp.Preview.ProposedSlug)
	assert.True(t, resp.Preview.WouldCreateCategory)
	assert.True(t, resp.Preview.WouldCreateVendor)
	assert.Nil(t, resp.Preview.SuggestedCategoryID)
	assert.Nil(t, resp.Preview.SuggestedVendorID)

	assert.Zero(t, f.store.CategoryCount())
	assert.Zero(t, f.store.VendorCount())
	assert.Zero(t, f.store.ProductCount())
}

func TestImportProduct_PreviewSuggestsExistingRecords(t *testing.T) {
	f := newServiceFixture(t)
	widgets := seedCategory(f.store, "Widgets", "widgets")
	acme := seedVendor(f.store, "Acme", "acme")
	f.expectFetch(itemURL, testListing("Test Widget"))

	resp, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL})
	require.NoError(t, err)
	require.NotNil(t, resp.Preview.SuggestedCategoryID)
	assert.Equal(t, widgets.ID, *resp.Preview.SuggestedCategoryID)
	assert.Equal(t, CategoryBySimilarity, resp.Preview.CategoryStrategy)
	require.NotNil(t, resp.Preview.SuggestedVendorID)
	assert.Equal(t, acme.ID, *resp.Preview.SuggestedVendorID)
	assert.False(t, resp.Preview.WouldCreateCategory)
	assert.False(t, resp.Preview.WouldCreateVendor)
}

func TestImportProduct_PreviewOfImportedListing(t *testing.T) {
	f := newServiceFixture(t)
	existing := seedProduct(f.store, "test-widget", itemURL)
	f.expectFetch(itemURL, testListing("Test Widget"))

	resp, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL})
	require.NoError(t, err)
	assert.Equal(t, OutcomePreview, resp.Outcome)
	assert.Equal(t, MessageAlreadyImported, resp.Message)
	require.NotNil(t, resp.Preview.ExistingProduct)
	assert.Equal(t, existing.ID, resp.Preview.ExistingProduct.ID)
	assert.Equal(t, existing.CategoryID, *resp.Preview.SuggestedCategoryID)
}

func TestImportProduct_PublishDirectly(t *testing.T) {
	f := newServiceFixture(t)
	f.expectFetch(itemURL, testListing("Test Widget"))

	resp, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true, PublishDirectly: true})
	require.NoError(t, err)
	assert.Equal(t, catalog.ProductStatusActive, resp.Product.Status)
}

func TestImportProduct_MissingWriteKeyFailsBeforeFetch(t *testing.T) {
	f := newServiceFixture(t, func(c *ServiceConfig) { c.AdminWriteKey = "" })

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	assert.True(t, errors.Is(err, ErrConfiguration))
	f.fetcher.AssertNotCalled(t, "FetchListingByURL", mock.Anything, mock.Anything)

	// Previews need no write access.
	f.expectFetch(itemURL, testListing("Test Widget"))
	_, err = f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL})
	assert.NoError(t, err)
}

func TestImportProduct_FetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "auth failed", err: integration.ErrPlatformAuthFailed, wantErr: ErrMarketplaceAuthRequired},
		{name: "token expired", err: fmt.Errorf("item get: %w", integration.ErrPlatformTokenExpired), wantErr: ErrMarketplaceAuthRequired},
		{name: "not found", err: integration.ErrListingNotFound, wantErr: ErrListingNotFound},
		{name: "unavailable", err: integration.ErrPlatformUnavailable, wantErr: ErrMarketplaceUnavailable},
		{name: "rate limited", err: integration.ErrPlatformRateLimited, wantErr: ErrMarketplaceUnavailable},
		{name: "not configured", err: integration.ErrPlatformNotConfigured, wantErr: ErrConfiguration},
		{name: "unknown", err: errors.New("boom"), wantErr: ErrMarketplaceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			f.fetcher.On("FetchListingByURL", mock.Anything, itemURL).Return(nil, tt.err)

			_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestImportProduct_NilListing(t *testing.T) {
	f := newServiceFixture(t)
	f.fetcher.On("FetchListingByURL", mock.Anything, itemURL).Return(nil, nil)

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	assert.True(t, errors.Is(err, ErrMarketplaceUnavailable))
}

func TestImportProduct_DoesNotMutateFetchedListing(t *testing.T) {
	f := newServiceFixture(t)
	listing := testListing("Test Widget")
	listing.SourceURL = "https://marketplace.example/canonical/abc"
	f.expectFetch(itemURL, listing)

	resp, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	require.NoError(t, err)
	assert.Equal(t, itemURL, resp.Product.SourceURL)
	assert.Equal(t, "https://marketplace.example/canonical/abc", listing.SourceURL)
}

func TestImportProduct_CancelledContext(t *testing.T) {
	f := newServiceFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.fetcher.On("FetchListingByURL", mock.Anything, itemURL).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)

	_, err := f.service.ImportProduct(ctx, ImportRequest{URL: itemURL, ImportDirectly: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, CodeOf(err))
}

func TestImportProduct_ConcurrentImportsOfSameURL(t *testing.T) {
	f := newServiceFixture(t)
	f.expectFetch(itemURL, testListing("Test Widget"))

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*ImportResponse, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, 1, f.store.ProductCount())
	assert.Equal(t, 1, f.store.CategoryCount())
	assert.Equal(t, 1, f.store.VendorCount())

	id := results[0].Product.ID
	imported := 0
	for _, r := range results {
		assert.Equal(t, id, r.Product.ID)
		if r.Outcome == OutcomeImported {
			imported++
		}
	}
	assert.Equal(t, 1, imported)
}

func TestImportProduct_StageLogging(t *testing.T) {
	f := newServiceFixture(t)
	f.expectFetch(itemURL, testListing("Test Widget"))

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	require.NoError(t, err)

	assert.Equal(t, 5, f.logs.FilterMessage("import stage").Len())
	finished := f.logs.FilterMessage("product import finished").All()
	require.Len(t, finished, 1)
	fields := finished[0].ContextMap()
	assert.Equal(t, string(OutcomeImported), fields["outcome"])
	assert.Equal(t, "test-widget", fields["slug"])
	assert.Equal(t, string(CategoryDefaultCreated), fields["category_strategy"])
	assert.Contains(t, fields, "duration")
}

func TestImportProduct_PlaceholderOnlyImagesRejectedBeforeAnyWrite(t *testing.T) {
	f := newServiceFixture(t)
	listing := testListing("Test Widget")
	listing.Images = []string{"https://img.marketplace.example/placeholder.jpg"}
	f.expectFetch(itemURL, listing)

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	ie := importErrorOf(t, err)
	assert.Equal(t, CodeIncompleteListing, ie.Code)
	assert.Zero(t, f.store.CategoryCount())
	assert.Zero(t, f.store.Calls(memory.OpCreateCategory))
	assert.Zero(t, f.store.Calls(memory.OpCreateVendor))
	assert.Zero(t, f.store.Calls(memory.OpCreateProduct))
}

func TestImportProduct_SubMinorUnitPriceRejectedBeforeAnyWrite(t *testing.T) {
	f := newServiceFixture(t)
	listing := testListing("Test Widget")
	listing.Price = dec("0.001")
	f.expectFetch(itemURL, listing)

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	ie := importErrorOf(t, err)
	assert.Equal(t, CodeValidationFailed, ie.Code)
	assert.Zero(t, f.store.Calls(memory.OpCreateCategory))
	assert.Zero(t, f.store.Calls(memory.OpCreateVendor))
}

func TestImportProduct_PersistenceFailureLogsPayload(t *testing.T) {
	f := newServiceFixture(t)
	f.store.FailNext(memory.OpCreateProduct, errors.New("disk full"))
	f.expectFetch(itemURL, testListing("Test Widget"))

	_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
	require.True(t, errors.Is(err, ErrPersistenceFailed))

	entries := f.logs.FilterMessage("product import failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, CodePersistenceFailed, fields["code"])
	assert.Equal(t, string(StateWriting), fields["stage"])
	payload, ok := fields["payload"].(map[string]any)
	require.True(t, ok, "payload field missing: %v", fields)
	assert.Equal(t, "test-widget", payload["slug"])
	assert.Equal(t, itemURL, payload["source_url"])
}

func TestImportProduct_SpanPerStage(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	t.Run("committed import", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectFetch(itemURL, testListing("Test Widget"))

		_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
		require.NoError(t, err)

		spans := sr.Ended()
		var root sdktrace.ReadOnlySpan
		var stages []string
		for _, s := range spans {
			if s.Name() == "product_import" {
				root = s
				continue
			}
			stages = append(stages, s.Name())
		}
		require.NotNil(t, root)
		assert.Equal(t, []string{
			"product_import.validating",
			"product_import.deduplicating",
			"product_import.resolving_category",
			"product_import.resolving_vendor",
			"product_import.allocating_slug",
			"product_import.writing",
		}, stages)
		for _, s := range spans {
			if s.Name() != "product_import" {
				assert.Equal(t, root.SpanContext().SpanID(), s.Parent().SpanID(), s.Name())
			}
		}
		assert.Equal(t, codes.Unset, root.Status().Code)
	})

	t.Run("failed stage marks spans as errors", func(t *testing.T) {
		before := len(sr.Ended())
		f := newServiceFixture(t)
		f.store.FailNext(memory.OpCreateVendor, errors.New("permission denied"))
		f.expectFetch(itemURL, testListing("Test Widget"))

		_, err := f.service.ImportProduct(context.Background(), ImportRequest{URL: itemURL, ImportDirectly: true})
		require.Error(t, err)

		byName := map[string]sdktrace.ReadOnlySpan{}
		for _, s := range sr.Ended()[before:] {
			byName[s.Name()] = s
		}
		require.Contains(t, byName, "product_import.resolving_vendor")
		assert.Equal(t, codes.Error, byName["product_import.resolving_vendor"].Status().Code)
		assert.Equal(t, codes.Error, byName["product_import"].Status().Code)
		assert.NotContains(t, byName, "product_import.writing")
	})
}
