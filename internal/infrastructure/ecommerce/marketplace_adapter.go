// Package ecommerce contains adapters for external marketplaces.
package ecommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/integration"
)

// maxResponseSize is the maximum accepted response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

const itemFields = "num_iid,title,sub_title,desc,price,original_price,num,outer_id,pic_url,item_imgs,detail_url"

// MarketplaceAdapter fetches listings from the marketplace open API
type MarketplaceAdapter struct {
	config     *MarketplaceConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewMarketplaceAdapter creates an adapter for the given configuration
func NewMarketplaceAdapter(config *MarketplaceConfig) (*MarketplaceAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &MarketplaceAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		now:        time.Now,
	}, nil
}

// FetchListingByURL retrieves the listing a public marketplace URL points to
func (a *MarketplaceAdapter) FetchListingByURL(ctx context.Context, listingURL string) (*integration.ScrapedListing, error) {
	itemID, err := ItemIDFromURL(listingURL)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"method":  "item.get",
		"num_iid": itemID,
		"fields":  itemFields,
	}

	body, err := a.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp ItemGetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if !resp.IsSuccess() {
		return nil, classifyAPIError(resp.ErrorResponse)
	}
	if resp.ItemGet == nil || resp.ItemGet.Item == nil {
		return nil, fmt.Errorf("%w: item %s", integration.ErrListingNotFound, itemID)
	}

	return a.toListing(resp.ItemGet.Item, listingURL), nil
}

// ItemIDFromURL extracts the numeric item id from a listing URL.
// Both /item/123 paths and ?id=123 queries are recognized.
func ItemIDFromURL(listingURL string) (string, error) {
	u, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("%w: unparseable listing URL", integration.ErrListingNotFound)
	}

	candidates := []string{u.Query().Get("id"), strings.TrimSuffix(path.Base(u.Path), ".htm")}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := strconv.ParseInt(c, 10, 64); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: no item id in %s", integration.ErrListingNotFound, listingURL)
}

func (a *MarketplaceAdapter) toListing(item *MarketplaceItem, listingURL string) *integration.ScrapedListing {
	return &integration.ScrapedListing{
		ExternalID:       strconv.FormatInt(item.NumIid, 10),
		Name:             strings.TrimSpace(item.Title),
		Description:      item.Desc,
		ShortDescription: item.SubTitle,
		Price:            parseOptionalDecimal(item.Price),
		CompareAtPrice:   parseOptionalDecimal(item.OriginalPrice),
		Images:           item.ImageURLs(),
		StockQuantity:    item.Num,
		SKU:              item.OuterID,
		SourceURL:        listingURL,
		SourcePlatform:   a.config.Platform,
	}
}

// doRequest performs a signed form POST against the open API
func (a *MarketplaceAdapter) doRequest(ctx context.Context, params map[string]string) ([]byte, error) {
	params["app_key"] = a.config.AppKey
	params["session"] = a.config.AccessToken
	params["timestamp"] = a.now().UTC().Format("2006-01-02 15:04:05")
	params["format"] = "json"
	params["v"] = "2.0"
	params["sign_method"] = "hmac-sha256"
	params["sign"] = a.config.Sign(params)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("marketplace: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", integration.ErrPlatformUnavailable, err)
	}

	if err := classifyHTTPStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return body, nil
}

func classifyHTTPStatus(status int) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformAuthFailed, status)
	case status == http.StatusNotFound || status == http.StatusGone:
		return fmt.Errorf("%w: HTTP %d", integration.ErrListingNotFound, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRateLimited, status)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformUnavailable, status)
	default:
		return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRequestFailed, status)
	}
}

func classifyAPIError(e *APIErrorResponse) error {
	detail := fmt.Sprintf("%s - %s", e.Code, e.Msg)
	if e.SubCode != "" {
		detail = fmt.Sprintf("%s (%s: %s)", detail, e.SubCode, e.SubMsg)
	}

	switch {
	case e.SubCode == subCodeItemNotExist:
		return fmt.Errorf("%w: %s", integration.ErrListingNotFound, detail)
	case e.SubCode == subCodeSessionExpired:
		return fmt.Errorf("%w: %s", integration.ErrPlatformTokenExpired, detail)
	case e.Code == errCodeInvalidSession || e.SubCode == subCodePermissionDenied:
		return fmt.Errorf("%w: %s", integration.ErrPlatformAuthFailed, detail)
	case e.Code == errCodeRateLimited:
		return fmt.Errorf("%w: %s", integration.ErrPlatformRateLimited, detail)
	default:
		return fmt.Errorf("%w: %s", integration.ErrPlatformRequestFailed, detail)
	}
}

// UnconfiguredFetcher is used when no marketplace credentials are configured
type UnconfiguredFetcher struct{}

// FetchListingByURL always fails with ErrPlatformNotConfigured
func (UnconfiguredFetcher) FetchListingByURL(ctx context.Context, listingURL string) (*integration.ScrapedListing, error) {
	return nil, integration.ErrPlatformNotConfigured
}

var (
	_ integration.ListingFetcher = (*MarketplaceAdapter)(nil)
	_ integration.ListingFetcher = UnconfiguredFetcher{}
)
