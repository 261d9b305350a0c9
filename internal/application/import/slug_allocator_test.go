package importapp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugAllocator_Allocate(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		exclude  []string
		input    string
		want     string
	}{
		{name: "free base", input: "Wireless Mouse", want: "wireless-mouse"},
		{name: "base taken", existing: []string{"wireless-mouse"}, input: "Wireless Mouse", want: "wireless-mouse-2"},
		{name: "base and -2 taken", existing: []string{"wireless-mouse", "wireless-mouse-2"}, input: "Wireless Mouse", want: "wireless-mouse-3"},
		{name: "gap is reused", existing: []string{"wireless-mouse", "wireless-mouse-3"}, input: "Wireless Mouse", want: "wireless-mouse-2"},
		{name: "longer slugs sharing the prefix do not block", existing: []string{"wireless-mouse-pad"}, input: "Wireless Mouse", want: "wireless-mouse"},
		{name: "excluded candidates", existing: []string{"wireless-mouse"}, exclude: []string{"wireless-mouse-2"}, input: "Wireless Mouse", want: "wireless-mouse-3"},
		{name: "punctuation and diacritics", input: "  Crème  Brûlée -- Torch! ", want: "creme-brulee-torch"},
		{name: "nothing sluggable", input: "!!!", want: "product"},
		{name: "fallback taken", existing: []string{"product"}, input: "???", want: "product-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			for _, s := range tt.existing {
				seedProduct(store, s, "")
			}

			got, err := NewSlugAllocator(store.Products()).Allocate(context.Background(), tt.input, tt.exclude...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlugAllocator_LongNamesStayWithinLimit(t *testing.T) {
	store := memory.NewStore()
	name := strings.Repeat("abc ", 60)
	base := catalog.Slugify(name)
	seedProduct(store, base, "")

	got, err := NewSlugAllocator(store.Products()).Allocate(context.Background(), name)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), catalog.MaxSlugLength)
	assert.True(t, strings.HasSuffix(got, "-2"))
}

func TestSlugAllocator_SeesShortenedCandidates(t *testing.T) {
	store := memory.NewStore()
	name := strings.TrimSpace(strings.Repeat("abcd ", 40))
	base := catalog.Slugify(name)
	for n := 1; n <= 6; n++ {
		seedProduct(store, catalog.SlugCandidate(base, n), "")
	}

	got, err := NewSlugAllocator(store.Products()).Allocate(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, catalog.SlugCandidate(base, 7), got)
}

func TestSlugAllocator_QueryError(t *testing.T) {
	store := memory.NewStore()
	cause := errors.New("connection reset")
	store.FailNext(memory.OpFindSlugs, cause)

	_, err := NewSlugAllocator(store.Products()).Allocate(context.Background(), "Wireless Mouse")
	assert.ErrorIs(t, err, cause)
}
