package importapp

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ResolveMode controls whether resolvers may create fallback records
type ResolveMode int

const (
	// ModeCommit allows creating the default category or vendor
	ModeCommit ResolveMode = iota
	// ModePreview never writes; a missing default is reported instead
	ModePreview
)

// CategoryStrategy names the step of the fallback chain that picked the category
type CategoryStrategy string

const (
	CategoryBySimilarity       CategoryStrategy = "similarity"
	CategoryByKeyword          CategoryStrategy = "keyword"
	CategoryDefault            CategoryStrategy = "default"
	CategoryDefaultCreated     CategoryStrategy = "default_created"
	CategoryFirstActive        CategoryStrategy = "first_active"
	CategoryWouldCreateDefault CategoryStrategy = "would_create_default"
)

// DefaultSimilarityThreshold is the minimum name similarity for a category match
const DefaultSimilarityThreshold = 0.5

// CategoryResolution is the outcome of resolving a listing's category.
// Category is nil only for CategoryWouldCreateDefault.
type CategoryResolution struct {
	Category *catalog.Category
	Strategy CategoryStrategy
	Score    float64
}

// Created reports whether the resolver inserted the default category
func (r *CategoryResolution) Created() bool {
	return r.Strategy == CategoryDefaultCreated
}

// WouldCreateDefault reports whether a committed import would create the default category
func (r *CategoryResolution) WouldCreateDefault() bool {
	return r.Strategy == CategoryWouldCreateDefault
}

// CategoryResolverConfig configures the category fallback chain
type CategoryResolverConfig struct {
	SimilarityThreshold float64
	// Keywords maps a category slug to the keywords that select it
	Keywords    map[string][]string
	DefaultSlug string
	DefaultName string
}

// CategoryResolver picks the category an imported listing is filed under.
// Order: name similarity, keywords, default category (find or create), first active category.
type CategoryResolver struct {
	categories catalog.CategoryRepository
	eventBus   shared.EventPublisher
	config     CategoryResolverConfig
	keywords   map[string][][]string
	logger     *zap.Logger
}

// NewCategoryResolver creates a CategoryResolver. eventBus may be nil.
func NewCategoryResolver(categories catalog.CategoryRepository, eventBus shared.EventPublisher, cfg CategoryResolverConfig, logger *zap.Logger) *CategoryResolver {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	keywords := make(map[string][][]string, len(cfg.Keywords))
	for slug, words := range cfg.Keywords {
		for _, w := range words {
			if tokens := tokenize(w); len(tokens) > 0 {
				keywords[slug] = append(keywords[slug], tokens)
			}
		}
	}

	return &CategoryResolver{
		categories: categories,
		eventBus:   eventBus,
		config:     cfg,
		keywords:   keywords,
		logger:     logger,
	}
}

// Resolve returns the category for a listing named name.
// It fails with NO_CATEGORY_AVAILABLE only after every fallback is exhausted.
func (r *CategoryResolver) Resolve(ctx context.Context, name string, mode ResolveMode) (*CategoryResolution, error) {
	active, listErr := r.categories.FindActive(ctx)
	if listErr != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.logger.Warn("failed to list active categories", zap.Error(listErr))
	}

	tokens := tokenize(name)
	if res := r.matchBySimilarity(tokens, active); res != nil {
		return res, nil
	}
	if res := r.matchByKeyword(tokens, active); res != nil {
		return res, nil
	}

	res, defaultErr := r.resolveDefault(ctx, mode)
	if res != nil {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.logger.Warn("default category unavailable, falling back to first active category",
		zap.String("slug", r.config.DefaultSlug),
		zap.Error(defaultErr),
	)

	if listErr != nil {
		active, listErr = r.categories.FindActive(ctx)
		if listErr != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if len(active) > 0 {
		first := active[0]
		return &CategoryResolution{Category: &first, Strategy: CategoryFirstActive}, nil
	}

	cause := defaultErr
	if cause == nil {
		cause = listErr
	}
	return nil, newImportError(CodeNoCategoryAvailable, "no category could be determined for the listing", cause)
}

func (r *CategoryResolver) matchBySimilarity(listingTokens []string, active []catalog.Category) *CategoryResolution {
	if len(listingTokens) == 0 {
		return nil
	}

	set := tokenSet(listingTokens)
	best := -1
	bestScore := 0.0
	for i := range active {
		score := similarity(tokenize(active[i].Name), set)
		if score < r.config.SimilarityThreshold {
			continue
		}
		if best < 0 || score > bestScore || (score == bestScore && moreSpecific(&active[i], &active[best])) {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return nil
	}

	category := active[best]
	return &CategoryResolution{Category: &category, Strategy: CategoryBySimilarity, Score: bestScore}
}

func (r *CategoryResolver) matchByKeyword(listingTokens []string, active []catalog.Category) *CategoryResolution {
	if len(listingTokens) == 0 || len(r.keywords) == 0 {
		return nil
	}

	set := tokenSet(listingTokens)
	for i := range active {
		for _, keyword := range r.keywords[active[i].Slug] {
			if containsAll(set, keyword) {
				category := active[i]
				return &CategoryResolution{Category: &category, Strategy: CategoryByKeyword}
			}
		}
	}
	return nil
}

// resolveDefault finds the default category, creating it in commit mode.
// A nil resolution means the next fallback should run; the error explains why.
func (r *CategoryResolver) resolveDefault(ctx context.Context, mode ResolveMode) (*CategoryResolution, error) {
	category, err := r.categories.FindBySlug(ctx, r.config.DefaultSlug)
	if err == nil {
		return &CategoryResolution{Category: category, Strategy: CategoryDefault}, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	if mode == ModePreview {
		return &CategoryResolution{Strategy: CategoryWouldCreateDefault}, nil
	}

	category, err = catalog.NewCategory(r.config.DefaultName, r.config.DefaultSlug)
	if err != nil {
		return nil, err
	}
	if err := r.categories.Create(ctx, category); err != nil {
		if !shared.IsAlreadyExists(err) {
			return nil, err
		}
		// Another import created it first.
		existing, findErr := r.categories.FindBySlug(ctx, r.config.DefaultSlug)
		if findErr != nil {
			return nil, findErr
		}
		return &CategoryResolution{Category: existing, Strategy: CategoryDefault}, nil
	}

	r.logger.Info("created default import category",
		zap.String("category_id", category.ID.String()),
		zap.String("slug", category.Slug),
	)
	if r.eventBus != nil {
		if err := shared.PublishAndClear(ctx, r.eventBus, category); err != nil {
			r.logger.Warn("failed to publish category events", zap.Error(err))
		}
	}
	return &CategoryResolution{Category: category, Strategy: CategoryDefaultCreated}, nil
}

// moreSpecific orders equally scored categories: shorter name first, then by name
func moreSpecific(a, b *catalog.Category) bool {
	la, lb := utf8.RuneCountInString(a.Name), utf8.RuneCountInString(b.Name)
	if la != lb {
		return la < lb
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Slug < b.Slug
}

// similarity is the share of the category's tokens found in the listing
func similarity(categoryTokens []string, listing map[string]struct{}) float64 {
	unique := tokenSet(categoryTokens)
	if len(unique) == 0 {
		return 0
	}
	hits := 0
	for t := range unique {
		if _, ok := listing[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(unique))
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "for": {}, "with": {}, "in": {}, "on": {},
	"de": {}, "des": {}, "du": {}, "la": {}, "le": {}, "les": {}, "et": {}, "en": {}, "pour": {},
}

// tokenize folds diacritics, lowercases, splits on anything that is not a
// letter or digit, drops stop words and reduces plurals
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(catalog.FoldDiacritics(s)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, stem(f))
	}
	return tokens
}

func stem(token string) string {
	switch {
	case len(token) > 4 && strings.HasSuffix(token, "ies"):
		return token[:len(token)-3] + "y"
	case len(token) > 3 && strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss"):
		return token[:len(token)-1]
	default:
		return token
	}
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func containsAll(set map[string]struct{}, tokens []string) bool {
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
