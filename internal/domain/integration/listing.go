package integration

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Marketplace Errors
// ---------------------------------------------------------------------------

var (
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformTokenExpired    = errors.New("integration: platform token expired")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")

	ErrListingNotFound = errors.New("integration: listing not found")
)

// IsAuthorizationError reports whether err means the marketplace requires
// (re-)authorization before the listing can be fetched
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrPlatformAuthFailed) || errors.Is(err, ErrPlatformTokenExpired)
}

// ---------------------------------------------------------------------------
// ScrapedListing
// ---------------------------------------------------------------------------

// ScrapedListing is a listing as returned by the marketplace.
// Fields are not validated; Price and StockQuantity are nil when the
// marketplace did not provide them.
type ScrapedListing struct {
	ExternalID       string           `json:"externalId,omitempty"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	ShortDescription string           `json:"shortDescription,omitempty"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	CompareAtPrice   *decimal.Decimal `json:"compareAtPrice,omitempty"`
	Images           []string         `json:"images"`
	StockQuantity    *int             `json:"stockQuantity,omitempty"`
	SKU              string           `json:"sku,omitempty"`
	SourceURL        string           `json:"sourceUrl"`
	SourcePlatform   string           `json:"sourcePlatform,omitempty"`
}

// ---------------------------------------------------------------------------
// ListingFetcher Port
// ---------------------------------------------------------------------------

// ListingFetcher retrieves marketplace listings.
// Implementations return ErrListingNotFound when the listing does not exist,
// ErrPlatformAuthFailed or ErrPlatformTokenExpired when the marketplace
// requires authorization, and ErrPlatformUnavailable for transient faults.
type ListingFetcher interface {
	FetchListingByURL(ctx context.Context, listingURL string) (*ScrapedListing, error)
}
