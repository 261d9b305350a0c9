// Package memory provides map-backed catalog repositories with the same
// uniqueness rules as the SQL schema. It backs the "memory" database driver
// and the import pipeline tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
)

// Op names a repository operation that can be made to fail
type Op string

const (
	OpFindCategoryBySlug Op = "categories.find_by_slug"
	OpFindActiveCategory Op = "categories.find_active"
	OpCreateCategory     Op = "categories.create"
	OpFindFirstVendor    Op = "vendors.find_first"
	OpFindVendorBySlug   Op = "vendors.find_by_slug"
	OpCreateVendor       Op = "vendors.create"
	OpFindProductByID    Op = "products.find_by_id"
	OpFindBySourceURL    Op = "products.find_by_source_url"
	OpFindSlugs          Op = "products.find_slugs"
	OpCreateProduct      Op = "products.create"
)

// Store holds categories, vendors and products
type Store struct {
	mu         sync.RWMutex
	categories []*catalog.Category
	vendors    []*partner.Vendor
	products   []*catalog.Product
	failures   map[Op][]error
	calls      map[Op]int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		failures: make(map[Op][]error),
		calls:    make(map[Op]int),
	}
}

// FailNext makes the next call of op return err.
// Repeated calls queue errors in order.
func (s *Store) FailNext(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

// Calls returns how many times op was invoked
func (s *Store) Calls(op Op) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// Categories returns the category repository view of the store
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// Vendors returns the vendor repository view of the store
func (s *Store) Vendors() *VendorRepository { return &VendorRepository{s: s} }

// Products returns the product repository view of the store
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// CategoryCount returns the number of stored categories
func (s *Store) CategoryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories)
}

// VendorCount returns the number of stored vendors
func (s *Store) VendorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vendors)
}

// ProductCount returns the number of stored products
func (s *Store) ProductCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// begin records the call and pops an injected failure. Caller holds the lock.
func (s *Store) begin(op Op) error {
	s.calls[op]++
	queued := s.failures[op]
	if len(queued) == 0 {
		return nil
	}
	s.failures[op] = queued[1:]
	return queued[0]
}

func (s *Store) lockedCall(op Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(op)
}

func checkCtx(ctx context.Context) error {
	return ctx.Err()
}

func conflict(constraint string) error {
	return fmt.Errorf("%w: unique constraint %q violated", shared.ErrAlreadyExists, constraint)
}

// CategoryRepository implements catalog.CategoryRepository on a Store
type CategoryRepository struct{ s *Store }

// FindByID finds a category by its ID
func (r *CategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.categories {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindBySlug finds a category by its slug
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if err := r.s.lockedCall(OpFindCategoryBySlug); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindActive returns active categories by sort order, then insertion order
func (r *CategoryRepository) FindActive(ctx context.Context) ([]catalog.Category, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if err := r.s.lockedCall(OpFindActiveCategory); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]catalog.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		if c.IsActive() {
			result = append(result, *c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SortOrder < result[j].SortOrder
	})
	return result, nil
}

// Create inserts a category, enforcing slug uniqueness
func (r *CategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin(OpCreateCategory); err != nil {
		return err
	}
	for _, c := range r.s.categories {
		if c.Slug == category.Slug {
			return conflict("uq_categories_slug")
		}
	}
	cp := *category
	cp.ClearDomainEvents()
	r.s.categories = append(r.s.categories, &cp)
	return nil
}

// VendorRepository implements partner.VendorRepository on a Store
type VendorRepository struct{ s *Store }

// FindByID finds a vendor by its ID
func (r *VendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Vendor, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.vendors {
		if v.ID == id {
			cp := *v
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindFirst returns the first vendor inserted
func (r *VendorRepository) FindFirst(ctx context.Context) (*partner.Vendor, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if err := r.s.lockedCall(OpFindFirstVendor); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if len(r.s.vendors) == 0 {
		return nil, shared.ErrNotFound
	}
	cp := *r.s.vendors[0]
	return &cp, nil
}

// FindBySlug finds a vendor by its slug
func (r *VendorRepository) FindBySlug(ctx context.Context, slug string) (*partner.Vendor, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if err := r.s.lockedCall(OpFindVendorBySlug); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.vendors {
		if v.Slug == slug {
			cp := *v
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

// Create inserts a vendor, enforcing slug uniqueness
func (r *VendorRepository) Create(ctx context.Context, vendor *partner.Vendor) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin(OpCreateVendor); err != nil {
		return err
	}
	for _, v := range r.s.vendors {
		if v.Slug == vendor.Slug {
			return conflict("uq_vendors_slug")
		}
	}
	cp := *vendor
	cp.ClearDomainEvents()
	r.s.vendors = append(r.s.vendors, &cp)
	return nil
}

// ProductRepository implements catalog.ProductRepository on a Store
type ProductRepository struct{ s *Store }

// FindByID finds a product by its ID
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if err := r.s.lockedCall(OpFindProductByID); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if p.ID == id {
			return copyProduct(p), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindBySourceURL finds the product imported from sourceURL
func (r *ProductRepository) FindBySourceURL(ctx context.Context, sourceURL string) (*catalog.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if err := r.s.lockedCall(OpFindBySourceURL); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if sourceURL != "" && p.SourceURL == sourceURL {
			return copyProduct(p), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindSlugsWithPrefix returns every product slug starting with prefix
func (r *ProductRepository) FindSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if err := r.s.lockedCall(OpFindSlugs); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	slugs := make([]string, 0)
	for _, p := range r.s.products {
		if strings.HasPrefix(p.Slug, prefix) {
			slugs = append(slugs, p.Slug)
		}
	}
	return slugs, nil
}

// Create inserts a product, enforcing slug and source URL uniqueness
func (r *ProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.begin(OpCreateProduct); err != nil {
		return err
	}
	for _, p := range r.s.products {
		if p.Slug == product.Slug {
			return conflict("uq_products_slug")
		}
		if product.SourceURL != "" && p.SourceURL == product.SourceURL {
			return conflict("uq_products_source_url")
		}
	}
	cp := copyProduct(product)
	cp.ClearDomainEvents()
	r.s.products = append(r.s.products, cp)
	return nil
}

// Put stores a product without any checks, for seeding records the
// constructors would reject
func (r *ProductRepository) Put(product *catalog.Product) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products = append(r.s.products, copyProduct(product))
}

func copyProduct(p *catalog.Product) *catalog.Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	return &cp
}

var (
	_ catalog.CategoryRepository = (*CategoryRepository)(nil)
	_ partner.VendorRepository   = (*VendorRepository)(nil)
	_ catalog.ProductRepository  = (*ProductRepository)(nil)
)
