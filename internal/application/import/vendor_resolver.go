package importapp

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// VendorStrategy names how the owning vendor was found
type VendorStrategy string

const (
	VendorExisting           VendorStrategy = "existing"
	VendorDefaultCreated     VendorStrategy = "default_created"
	VendorWouldCreateDefault VendorStrategy = "would_create_default"
)

// VendorResolution is the outcome of resolving the owning vendor.
// Vendor is nil only for VendorWouldCreateDefault.
type VendorResolution struct {
	Vendor   *partner.Vendor
	Strategy VendorStrategy
}

// Created reports whether the resolver inserted the default vendor
func (r *VendorResolution) Created() bool {
	return r.Strategy == VendorDefaultCreated
}

// WouldCreateDefault reports whether a committed import would create the default vendor
func (r *VendorResolution) WouldCreateDefault() bool {
	return r.Strategy == VendorWouldCreateDefault
}

// VendorResolverConfig describes the vendor created when none exists
type VendorResolverConfig struct {
	DefaultName  string
	DefaultSlug  string
	DefaultEmail string
}

// VendorResolver picks the vendor imported products are attributed to.
// Any existing vendor is used, oldest first; the listing's seller is not matched.
type VendorResolver struct {
	vendors  partner.VendorRepository
	eventBus shared.EventPublisher
	config   VendorResolverConfig
	logger   *zap.Logger
}

// NewVendorResolver creates a VendorResolver. eventBus may be nil.
func NewVendorResolver(vendors partner.VendorRepository, eventBus shared.EventPublisher, cfg VendorResolverConfig, logger *zap.Logger) *VendorResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VendorResolver{
		vendors:  vendors,
		eventBus: eventBus,
		config:   cfg,
		logger:   logger,
	}
}

// Resolve returns the vendor for an import, creating the default one in commit mode
func (r *VendorResolver) Resolve(ctx context.Context, mode ResolveMode) (*VendorResolution, error) {
	vendor, err := r.vendors.FindFirst(ctx)
	if err == nil {
		return &VendorResolution{Vendor: vendor, Strategy: VendorExisting}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if !shared.IsNotFound(err) {
		r.logger.Warn("failed to look up existing vendor", zap.Error(err))
	}

	if mode == ModePreview {
		if err != nil && !shared.IsNotFound(err) {
			return nil, newImportError(CodeNoVendorAvailable, "vendors could not be listed", err)
		}
		return &VendorResolution{Strategy: VendorWouldCreateDefault}, nil
	}

	vendor, created, err := r.createDefault(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, newImportError(CodeNoVendorAvailable,
			fmt.Sprintf("no vendor exists and default vendor %q could not be created", r.config.DefaultSlug), err)
	}
	if !created {
		return &VendorResolution{Vendor: vendor, Strategy: VendorExisting}, nil
	}
	return &VendorResolution{Vendor: vendor, Strategy: VendorDefaultCreated}, nil
}

func (r *VendorResolver) createDefault(ctx context.Context) (*partner.Vendor, bool, error) {
	vendor, err := partner.NewVendor(r.config.DefaultName, r.config.DefaultSlug, r.config.DefaultEmail)
	if err != nil {
		return nil, false, err
	}

	if err := r.vendors.Create(ctx, vendor); err != nil {
		if !shared.IsAlreadyExists(err) {
			return nil, false, err
		}
		// Created concurrently by another import.
		existing, findErr := r.vendors.FindBySlug(ctx, r.config.DefaultSlug)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}

	r.logger.Info("created default import vendor",
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("slug", vendor.Slug),
	)
	if r.eventBus != nil {
		if err := shared.PublishAndClear(ctx, r.eventBus, vendor); err != nil {
			r.logger.Warn("failed to publish vendor events", zap.Error(err))
		}
	}
	return vendor, true, nil
}
