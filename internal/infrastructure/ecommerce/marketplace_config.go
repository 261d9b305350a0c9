package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
)

// DefaultAPIBaseURL is the marketplace open API endpoint
const DefaultAPIBaseURL = "https://api.marketplace.example/router/rest"

// MarketplaceConfig holds credentials for the marketplace open API
type MarketplaceConfig struct {
	// Platform is recorded as the source platform of imported listings
	Platform string
	// AppKey is the application key issued by the marketplace
	AppKey string
	// AppSecret signs every request
	AppSecret string
	// AccessToken is the seller session authorizing listing reads
	AccessToken string
	// APIBaseURL is the open API endpoint
	APIBaseURL string
	// Timeout bounds each HTTP request
	Timeout time.Duration
}

// Errors for marketplace configuration
var (
	ErrMarketplaceConfigMissingAppKey      = errors.New("marketplace: app key is required")
	ErrMarketplaceConfigMissingAppSecret   = errors.New("marketplace: app secret is required")
	ErrMarketplaceConfigMissingAccessToken = errors.New("marketplace: access token is required")
)

// NewMarketplaceConfig builds the adapter configuration from application config
func NewMarketplaceConfig(cfg config.MarketplaceConfig) *MarketplaceConfig {
	return &MarketplaceConfig{
		Platform:    cfg.Platform,
		AppKey:      cfg.AppKey,
		AppSecret:   cfg.AppSecret,
		AccessToken: cfg.AccessToken,
		APIBaseURL:  cfg.APIBaseURL,
		Timeout:     cfg.Timeout,
	}
}

// Validate checks credentials and fills defaults
func (c *MarketplaceConfig) Validate() error {
	if c.AppKey == "" {
		return ErrMarketplaceConfigMissingAppKey
	}
	if c.AppSecret == "" {
		return ErrMarketplaceConfigMissingAppSecret
	}
	if c.AccessToken == "" {
		return ErrMarketplaceConfigMissingAccessToken
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Platform == "" {
		c.Platform = "marketplace"
	}
	return nil
}

// Sign returns the uppercase hex HMAC-SHA256 of the sorted key/value
// concatenation, keyed with the app secret. The "sign" parameter itself is skipped.
func (c *MarketplaceConfig) Sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(params[k])
	}

	h := hmac.New(sha256.New, []byte(c.AppSecret))
	h.Write([]byte(builder.String()))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}
