package importapp

import (
	"fmt"
	"net/url"
	"strings"
)

// URLGate accepts only https URLs on the supported marketplace domains
type URLGate struct {
	allowedDomains []string
}

// NewURLGate creates a URLGate for the given domains.
// A host matches a domain when it equals it or is one of its subdomains.
func NewURLGate(allowedDomains []string) *URLGate {
	domains := make([]string, 0, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			domains = append(domains, d)
		}
	}
	return &URLGate{allowedDomains: domains}
}

// Check parses raw and returns its canonical form: lowercase scheme and host,
// no fragment. Every rejection is an INVALID_URL ImportError.
func (g *URLGate) Check(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, newImportError(CodeInvalidURL, "url is required", nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, newImportError(CodeInvalidURL, "url is not well-formed", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, newImportError(CodeInvalidURL, "url must be absolute", nil)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return nil, newImportError(CodeInvalidURL, fmt.Sprintf("url scheme must be https, got %q", u.Scheme), nil)
	}
	if u.User != nil {
		return nil, newImportError(CodeInvalidURL, "url must not carry credentials", nil)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if !g.allows(host) {
		return nil, newImportError(CodeInvalidURL, fmt.Sprintf("unsupported marketplace domain %q", host), nil)
	}

	canonical := *u
	canonical.Scheme = "https"
	canonical.Host = strings.ToLower(u.Host)
	canonical.Fragment = ""
	canonical.RawFragment = ""
	return &canonical, nil
}

// AllowedDomains returns the configured domains
func (g *URLGate) AllowedDomains() []string {
	return append([]string(nil), g.allowedDomains...)
}

func (g *URLGate) allows(host string) bool {
	if host == "" {
		return false
	}
	for _, d := range g.allowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
