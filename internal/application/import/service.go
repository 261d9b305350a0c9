package importapp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/integration"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OutcomePreview marks a response that persisted nothing
const OutcomePreview Outcome = "preview"

// Response messages
const (
	MessageImported        = "Product imported successfully"
	MessageAlreadyImported = "Product already imported, returned existing record"
	MessagePreview         = "Listing preview generated, nothing was saved"
)

// ImportRequest asks for one marketplace listing to be imported
type ImportRequest struct {
	URL             string `json:"url"`
	ImportDirectly  bool   `json:"importDirectly"`
	PublishDirectly bool   `json:"publishDirectly"`
}

// ImportPreview is the normalized listing and what a committed import would link it to
type ImportPreview struct {
	Listing             *ValidatedListing `json:"listing"`
	SuggestedCategoryID *uuid.UUID        `json:"suggestedCategoryId,omitempty"`
	CategoryStrategy    CategoryStrategy  `json:"categoryStrategy,omitempty"`
	WouldCreateCategory bool              `json:"wouldCreateCategory"`
	SuggestedVendorID   *uuid.UUID        `json:"suggestedVendorId,omitempty"`
	VendorStrategy      VendorStrategy    `json:"vendorStrategy,omitempty"`
	WouldCreateVendor   bool              `json:"wouldCreateVendor"`
	ProposedSlug        string            `json:"proposedSlug,omitempty"`
	ExistingProduct     *catalog.Product  `json:"-"`
}

// ImportResponse is the result of ImportProduct.
// Product is set for committed imports, Preview otherwise.
type ImportResponse struct {
	Outcome Outcome
	Message string
	Product *catalog.Product
	Preview *ImportPreview
	Session *ImportSession
}

// ServiceConfig configures the import pipeline
type ServiceConfig struct {
	AllowedDomains []string
	// AdminWriteKey must be set for imports that write to the catalog
	AdminWriteKey   string
	MaxSlugAttempts int
	IndexTTL        time.Duration
	Category        CategoryResolverConfig
	Vendor          VendorResolverConfig
}

// ImportService runs the product import pipeline:
// URL gate, fetch, validation, duplicate check, category and vendor
// resolution, slug allocation and the catalog write.
type ImportService struct {
	gate       *URLGate
	fetcher    integration.ListingFetcher
	validator  *ListingValidator
	duplicates *DuplicateDetector
	categories *CategoryResolver
	vendors    *VendorResolver
	slugs      *SlugAllocator
	writer     *CatalogWriter
	writeKey   string
	logger     *zap.Logger
}

// NewImportService creates a new ImportService. index and eventBus may be nil.
func NewImportService(
	fetcher integration.ListingFetcher,
	categoryRepo catalog.CategoryRepository,
	vendorRepo partner.VendorRepository,
	productRepo catalog.ProductRepository,
	index catalog.ImportIndex,
	eventBus shared.EventPublisher,
	cfg ServiceConfig,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("import")

	slugs := NewSlugAllocator(productRepo)
	return &ImportService{
		gate:       NewURLGate(cfg.AllowedDomains),
		fetcher:    fetcher,
		validator:  NewListingValidator(),
		duplicates: NewDuplicateDetector(productRepo, index, cfg.IndexTTL, logger),
		categories: NewCategoryResolver(categoryRepo, eventBus, cfg.Category, logger),
		vendors:    NewVendorResolver(vendorRepo, eventBus, cfg.Vendor, logger),
		slugs:      slugs,
		writer:     NewCatalogWriter(productRepo, slugs, eventBus, cfg.MaxSlugAttempts, logger),
		writeKey:   cfg.AdminWriteKey,
		logger:     logger,
	}
}

// ImportProduct imports the listing at req.URL.
// Without ImportDirectly nothing is written and a preview is returned.
// Importing a URL that was imported before returns the existing product.
func (s *ImportService) ImportProduct(ctx context.Context, req ImportRequest) (*ImportResponse, error) {
	session := NewImportSession(req.URL)
	ctx, span := telemetry.StartSpan(ctx, "product_import",
		telemetry.WithAttribute("import.session_id", session.ID.String()),
		telemetry.WithAttribute("import.import_directly", req.ImportDirectly),
		telemetry.WithAttribute("import.publish_directly", req.PublishDirectly),
	)
	defer span.End()

	log := s.logger.With(
		zap.String("session_id", session.ID.String()),
		zap.Bool("import_directly", req.ImportDirectly),
	)
	if traceID := telemetry.TraceID(ctx); traceID != "" {
		log = log.With(zap.String("trace_id", traceID))
	}
	stages := &stageSpans{root: span, parent: ctx}
	stageCtx := stages.start(session.State)

	u, err := s.gate.Check(req.URL)
	if err != nil {
		return nil, s.fail(log, session, stages, err)
	}
	sourceURL := u.String()
	session.SourceURL = sourceURL
	log = log.With(zap.String("source_url", sourceURL))
	span.SetAttributes(attributeSourceURL(sourceURL))

	if req.ImportDirectly && s.writeKey == "" {
		return nil, s.fail(log, session, stages, newImportError(CodeConfigurationError,
			"catalog write access is not configured (catalog.admin_write_key)", nil))
	}

	listing, err := s.fetch(stageCtx, sourceURL)
	if err != nil {
		return nil, s.fail(log, session, stages, err)
	}
	listing.SourceURL = sourceURL

	if err := s.validator.CheckMandatory(listing); err != nil {
		return nil, s.fail(log, session, stages, err)
	}
	validated, err := s.validator.Validate(listing)
	if err != nil {
		return nil, s.fail(log, session, stages, err)
	}

	stageCtx = s.advance(log, session, stages, StateDeduplicating)
	existing, err := s.duplicates.Find(stageCtx, sourceURL)
	if err != nil {
		return nil, s.fail(log, session, stages, err)
	}
	if existing != nil {
		return s.alreadyImported(log, session, stages, validated, existing, req.ImportDirectly), nil
	}

	mode := ModePreview
	if req.ImportDirectly {
		mode = ModeCommit
	}

	stageCtx = s.advance(log, session, stages, StateResolvingCategory)
	category, err := s.categories.Resolve(stageCtx, validated.Name, mode)
	if err != nil {
		return nil, s.fail(log, session, stages, err)
	}
	if category.Created() {
		id := category.Category.ID
		session.CreatedCategoryID = &id
	}

	stageCtx = s.advance(log, session, stages, StateResolvingVendor)
	vendor, err := s.vendors.Resolve(stageCtx, mode)
	if err != nil {
		return nil, s.fail(log, session, stages, err)
	}
	if vendor.Created() {
		id := vendor.Vendor.ID
		session.CreatedVendorID = &id
	}

	stageCtx = s.advance(log, session, stages, StateAllocatingSlug)
	slug, err := s.slugs.Allocate(stageCtx, validated.Name)
	if err != nil {
		if ctx.Err() == nil {
			err = newImportError(CodePersistenceFailed, "failed to allocate a slug", err)
		}
		return nil, s.fail(log, session, stages, err)
	}

	if !req.ImportDirectly {
		preview := &ImportPreview{
			Listing:             validated,
			CategoryStrategy:    category.Strategy,
			WouldCreateCategory: category.WouldCreateDefault(),
			VendorStrategy:      vendor.Strategy,
			WouldCreateVendor:   vendor.WouldCreateDefault(),
			ProposedSlug:        slug,
		}
		if category.Category != nil {
			id := category.Category.ID
			preview.SuggestedCategoryID = &id
		}
		if vendor.Vendor != nil {
			id := vendor.Vendor.ID
			preview.SuggestedVendorID = &id
		}
		s.succeed(log, session, stages, OutcomePreview)
		return &ImportResponse{Outcome: OutcomePreview, Message: MessagePreview, Preview: preview, Session: session}, nil
	}

	stageCtx = s.advance(log, session, stages, StateWriting)
	result, err := s.writer.Write(stageCtx, WriteInput{
		Listing:    validated,
		CategoryID: category.Category.ID,
		VendorID:   vendor.Vendor.ID,
		Slug:       slug,
		Publish:    req.PublishDirectly,
	})
	if err != nil {
		return nil, s.fail(log, session, stages, err)
	}

	message := MessageImported
	if result.Outcome == OutcomeAlreadyImported {
		message = MessageAlreadyImported
	}
	span.SetAttributes(attributeProductID(result.Product.ID.String()))
	s.succeed(log.With(
		zap.String("product_id", result.Product.ID.String()),
		zap.String("slug", result.Product.Slug),
		zap.String("category_strategy", string(category.Strategy)),
		zap.String("vendor_strategy", string(vendor.Strategy)),
		zap.Int("write_attempts", result.Attempts),
	), session, stages, result.Outcome)

	return &ImportResponse{Outcome: result.Outcome, Message: message, Product: result.Product, Session: session}, nil
}

func (s *ImportService) fetch(ctx context.Context, sourceURL string) (*integration.ScrapedListing, error) {
	listing, err := s.fetcher.FetchListingByURL(ctx, sourceURL)
	if err != nil {
		return nil, classifyFetchError(ctx, err)
	}
	if listing == nil {
		return nil, newImportError(CodeMarketplaceUnavailable, "marketplace returned no listing", integration.ErrPlatformInvalidResponse)
	}
	copied := *listing
	return &copied, nil
}

// classifyFetchError maps listing fetcher failures onto import error codes
func classifyFetchError(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case integration.IsAuthorizationError(err):
		return newImportError(CodeMarketplaceAuthRequired, "the marketplace requires re-authorization", err)
	case errors.Is(err, integration.ErrListingNotFound):
		return newImportError(CodeListingNotFound, "listing not found on the marketplace", err)
	case errors.Is(err, integration.ErrPlatformNotConfigured):
		return newImportError(CodeConfigurationError, "marketplace integration is not configured", err)
	case errors.Is(err, integration.ErrPlatformRateLimited):
		return newImportError(CodeMarketplaceUnavailable, "marketplace rate limit reached, retry later", err)
	default:
		return newImportError(CodeMarketplaceUnavailable, "failed to fetch listing from the marketplace", err)
	}
}

func (s *ImportService) alreadyImported(log *zap.Logger, session *ImportSession, stages *stageSpans, validated *ValidatedListing, existing *catalog.Product, commit bool) *ImportResponse {
	log = log.With(zap.String("product_id", existing.ID.String()))
	stages.root.SetAttributes(attributeProductID(existing.ID.String()))
	if commit {
		s.succeed(log, session, stages, OutcomeAlreadyImported)
		return &ImportResponse{Outcome: OutcomeAlreadyImported, Message: MessageAlreadyImported, Product: existing, Session: session}
	}

	categoryID, vendorID := existing.CategoryID, existing.VendorID
	s.succeed(log, session, stages, OutcomePreview)
	return &ImportResponse{
		Outcome: OutcomePreview,
		Message: MessageAlreadyImported,
		Preview: &ImportPreview{
			Listing:             validated,
			SuggestedCategoryID: &categoryID,
			SuggestedVendorID:   &vendorID,
			ProposedSlug:        existing.Slug,
			ExistingProduct:     existing,
		},
		Session: session,
	}
}

// advance moves session to next and returns the context of the new stage span
func (s *ImportService) advance(log *zap.Logger, session *ImportSession, stages *stageSpans, next ImportState) context.Context {
	from := session.State
	if !session.Advance(next) {
		log.Error("invalid import stage transition", zap.String("from", string(from)), zap.String("to", string(next)))
		return stages.current
	}
	log.Debug("import stage", zap.String("from", string(from)), zap.String("to", string(next)))
	return stages.start(next)
}

func (s *ImportService) succeed(log *zap.Logger, session *ImportSession, stages *stageSpans, outcome Outcome) {
	from := session.State
	session.Succeed()
	stages.finish(nil)
	stages.root.SetAttributes(attributeOutcome(string(outcome)))
	log.Info("product import finished",
		zap.String("outcome", string(outcome)),
		zap.String("last_stage", string(from)),
		zap.Duration("duration", session.Elapsed()),
	)
}

func (s *ImportService) fail(log *zap.Logger, session *ImportSession, stages *stageSpans, err error) error {
	code := CodeOf(err)
	if code == "" {
		code = "CANCELED"
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			code = CodePersistenceFailed
		}
	}
	stage := session.State
	session.Fail(code)
	stages.finish(err)
	telemetry.RecordError(stages.root, err)
	stages.root.SetAttributes(attributeErrorCode(code))

	fields := []zap.Field{
		zap.String("code", code),
		zap.String("stage", string(stage)),
		zap.Duration("duration", session.Elapsed()),
		zap.Error(err),
	}
	var ie *ImportError
	if errors.As(err, &ie) {
		if ie.Payload != nil {
			fields = append(fields, zap.Any("payload", ie.Payload))
		}
		if cause := causeCode(ie.Err); cause != "" {
			fields = append(fields, zap.String("cause_code", cause))
		}
	}
	if orphans := session.OrphanCandidates(); len(orphans) > 0 {
		fields = append(fields, zap.Strings("orphan_candidates", orphans))
	}

	switch code {
	case CodeInvalidURL, CodeIncompleteListing, CodeValidationFailed, CodeListingNotFound:
		log.Info("product import rejected", fields...)
	default:
		log.Warn("product import failed", fields...)
	}
	return err
}
