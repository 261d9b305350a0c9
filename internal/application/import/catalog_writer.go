package importapp

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultMaxSlugAttempts bounds how often a write is retried after a slug conflict
const DefaultMaxSlugAttempts = 5

// Outcome tells a newly imported product from one that already existed
type Outcome string

const (
	OutcomeImported        Outcome = "imported"
	OutcomeAlreadyImported Outcome = "already_imported"
)

// WriteInput is everything the writer needs to persist an imported product
type WriteInput struct {
	Listing    *ValidatedListing
	CategoryID uuid.UUID
	VendorID   uuid.UUID
	Slug       string
	Publish    bool
}

// WriteResult is the stored product and how it was obtained
type WriteResult struct {
	Product  *catalog.Product
	Outcome  Outcome
	Attempts int
}

// CatalogWriter assembles and persists the product for a validated listing.
// A unique violation is resolved by returning the product already imported
// from the same URL, or by retrying with the next free slug.
type CatalogWriter struct {
	products    catalog.ProductRepository
	slugs       *SlugAllocator
	eventBus    shared.EventPublisher
	maxAttempts int
	logger      *zap.Logger
}

// NewCatalogWriter creates a CatalogWriter. eventBus may be nil.
func NewCatalogWriter(products catalog.ProductRepository, slugs *SlugAllocator, eventBus shared.EventPublisher, maxAttempts int, logger *zap.Logger) *CatalogWriter {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxSlugAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogWriter{
		products:    products,
		slugs:       slugs,
		eventBus:    eventBus,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Write persists the product and verifies the stored row references both
// its category and its vendor
func (w *CatalogWriter) Write(ctx context.Context, in WriteInput) (*WriteResult, error) {
	if in.Listing == nil {
		return nil, newImportError(CodePersistenceFailed, "no listing to write", nil)
	}

	slug := in.Slug
	var tried []string
	for attempt := 1; ; attempt++ {
		product, err := catalog.NewProduct(productParams(in, slug))
		if err != nil {
			return nil, &ImportError{
				Code:    CodePersistenceFailed,
				Message: "product record could not be assembled",
				Payload: attemptedRecord(in, slug),
				Err:     err,
			}
		}

		err = w.products.Create(ctx, product)
		if err == nil {
			return w.verify(ctx, product, attempt)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !shared.IsAlreadyExists(err) {
			return nil, &ImportError{
				Code:    CodePersistenceFailed,
				Message: "failed to insert product",
				Payload: attemptedRecord(in, slug),
				Err:     err,
			}
		}

		if existing, findErr := w.products.FindBySourceURL(ctx, in.Listing.SourceURL); findErr == nil {
			w.logger.Info("listing was imported concurrently, returning existing product",
				zap.String("source_url", in.Listing.SourceURL),
				zap.String("product_id", existing.ID.String()),
			)
			return &WriteResult{Product: existing, Outcome: OutcomeAlreadyImported, Attempts: attempt}, nil
		}

		tried = append(tried, slug)
		if attempt >= w.maxAttempts {
			return nil, &ImportError{
				Code:    CodePersistenceFailed,
				Message: fmt.Sprintf("slug still taken after %d attempts", attempt),
				Payload: attemptedRecord(in, slug),
				Err:     err,
			}
		}

		w.logger.Debug("slug taken, allocating another", zap.String("slug", slug), zap.Int("attempt", attempt))
		slug, err = w.slugs.Allocate(ctx, in.Listing.Name, tried...)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &ImportError{
				Code:    CodePersistenceFailed,
				Message: "failed to allocate a new slug",
				Payload: attemptedRecord(in, tried[len(tried)-1]),
				Err:     err,
			}
		}
	}
}

func (w *CatalogWriter) verify(ctx context.Context, product *catalog.Product, attempts int) (*WriteResult, error) {
	stored, err := w.products.FindByID(ctx, product.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		code := CodePersistenceFailed
		if shared.IsNotFound(err) {
			code = CodeIncompletePersistedRecord
		}
		return nil, &ImportError{
			Code:    code,
			Message: "stored product could not be read back",
			Payload: map[string]any{"id": product.ID.String(), "slug": product.Slug},
			Err:     err,
		}
	}

	if !stored.HasRequiredReferences() {
		var missing []string
		if stored.CategoryID == uuid.Nil {
			missing = append(missing, "categoryId")
		}
		if stored.VendorID == uuid.Nil {
			missing = append(missing, "vendorId")
		}
		return nil, &ImportError{
			Code:    CodeIncompletePersistedRecord,
			Message: "stored product is missing " + strings.Join(missing, " and "),
			Payload: map[string]any{"id": stored.ID.String(), "slug": stored.Slug, "missing": missing},
		}
	}

	if w.eventBus != nil {
		if err := shared.PublishAndClear(ctx, w.eventBus, product); err != nil {
			w.logger.Warn("failed to publish product events", zap.String("product_id", product.ID.String()), zap.Error(err))
		}
	}

	return &WriteResult{Product: stored, Outcome: OutcomeImported, Attempts: attempts}, nil
}

func productParams(in WriteInput, slug string) catalog.NewProductParams {
	l := in.Listing
	return catalog.NewProductParams{
		Name:             l.Name,
		Slug:             slug,
		Description:      l.Description,
		ShortDescription: l.ShortDescription,
		Price:            l.Price,
		ComparePrice:     l.CompareAtPrice,
		Images:           NormalizeImages(l.Images),
		CategoryID:       in.CategoryID,
		VendorID:         in.VendorID,
		SKU:              l.SKU,
		Quantity:         l.StockQuantity,
		Publish:          in.Publish,
		SourceURL:        l.SourceURL,
		SourcePlatform:   l.SourcePlatform,
	}
}

func attemptedRecord(in WriteInput, slug string) map[string]any {
	record := map[string]any{
		"slug":        slug,
		"category_id": in.CategoryID.String(),
		"vendor_id":   in.VendorID.String(),
		"publish":     in.Publish,
	}
	if l := in.Listing; l != nil {
		record["name"] = l.Name
		record["price"] = l.Price.String()
		record["source_url"] = l.SourceURL
		record["images"] = len(l.Images)
	}
	return record
}

var placeholderImages = map[string]struct{}{
	"null": {}, "undefined": {}, "none": {}, "n/a": {}, "#": {}, "about:blank": {}, "placeholder": {},
}

// isPlaceholderImage reports whether img is a known placeholder token or a
// file literally named placeholder, such as "https://cdn/x/placeholder.png"
func isPlaceholderImage(img string) bool {
	lower := strings.ToLower(strings.TrimSpace(img))
	if lower == "" {
		return true
	}
	if _, ok := placeholderImages[lower]; ok {
		return true
	}
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	file := path.Base(lower)
	if ext := path.Ext(file); ext != "" {
		file = strings.TrimSuffix(file, ext)
	}
	return file == "placeholder"
}

// NormalizeImages keeps http(s) URLs as they are, prefixes relative
// references with "/" and drops empty or placeholder entries
func NormalizeImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if isPlaceholderImage(img) {
			continue
		}
		lower := strings.ToLower(img)
		switch {
		case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"), strings.HasPrefix(img, "/"):
			out = append(out, img)
		default:
			out = append(out, "/"+img)
		}
	}
	return out
}
