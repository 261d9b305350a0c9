package importapp

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/catalog"
)

// SlugAllocator derives a free product slug from a listing name.
// It reads the taken slugs and picks the first free candidate; the unique
// index on products.slug decides races, see CatalogWriter.
type SlugAllocator struct {
	products catalog.ProductRepository
}

// NewSlugAllocator creates a SlugAllocator
func NewSlugAllocator(products catalog.ProductRepository) *SlugAllocator {
	return &SlugAllocator{products: products}
}

// Allocate returns the base slug of name when free, otherwise the first free base-N with N >= 2.
// Candidates listed in exclude are treated as taken.
func (a *SlugAllocator) Allocate(ctx context.Context, name string, exclude ...string) (string, error) {
	base := catalog.Slugify(name)
	stem := catalog.SlugStem(base)

	existing, err := a.products.FindSlugsWithPrefix(ctx, stem)
	if err != nil {
		return "", fmt.Errorf("failed to list slugs with prefix %q: %w", stem, err)
	}

	taken := make(map[string]struct{}, len(existing)+len(exclude))
	for _, s := range existing {
		taken[s] = struct{}{}
	}
	for _, s := range exclude {
		taken[s] = struct{}{}
	}

	// At most len(taken) candidates can be occupied, so this terminates.
	for n := 1; ; n++ {
		candidate := catalog.SlugCandidate(base, n)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}
