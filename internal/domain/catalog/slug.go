package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/storefront/backend/internal/domain/shared"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength is the maximum length of a slug
const MaxSlugLength = 100

// FallbackSlug is used when a name yields no slug characters
const FallbackSlug = "product"

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSeparators = regexp.MustCompile(`[\s-]+`)
)

// FoldDiacritics strips combining marks so "Crème Brûlée" becomes "Creme Brulee"
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Slugify derives a URL-safe slug from a display name.
// The result only contains [a-z0-9-], never starts or ends with a hyphen,
// is at most MaxSlugLength characters and is never empty.
func Slugify(name string) string {
	s := strings.ToLower(FoldDiacritics(name))
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	if s == "" {
		return FallbackSlug
	}
	return s
}

// SlugCandidate returns the n-th candidate for base: base itself for n <= 1,
// otherwise base-n, with base shortened so the result fits MaxSlugLength.
func SlugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxSlugLength {
		base = strings.TrimRight(base[:MaxSlugLength-len(suffix)], "-")
	}
	return base + suffix
}

// maxCandidateSuffix is the longest suffix SlugStem accounts for, "-999999"
const maxCandidateSuffix = 7

// SlugStem returns the prefix shared by base and every SlugCandidate(base, n)
// for n below one million. Near MaxSlugLength candidates shorten base, so
// looking up taken slugs by base alone would miss them.
func SlugStem(base string) string {
	limit := MaxSlugLength - maxCandidateSuffix
	if len(base) <= limit {
		return base
	}
	return strings.TrimRight(base[:limit], "-")
}

func validateSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	if len(slug) > MaxSlugLength {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot exceed 100 characters")
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.NewDomainError("INVALID_SLUG", "Slug can only contain lowercase letters, numbers, and hyphens")
		}
	}
	return nil
}
