package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	importapp "github.com/storefront/backend/internal/application/import"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ImportProductRequest is the body of POST /products/import
type ImportProductRequest struct {
	URL             string `json:"url" binding:"required,max=2048"`
	ImportDirectly  bool   `json:"importDirectly"`
	PublishDirectly bool   `json:"publishDirectly"`
}

// ToImportRequest converts the request body to the service request
func (r ImportProductRequest) ToImportRequest() importapp.ImportRequest {
	return importapp.ImportRequest{
		URL:             r.URL,
		ImportDirectly:  r.ImportDirectly,
		PublishDirectly: r.PublishDirectly,
	}
}

// ProductResponse is a persisted catalog product
type ProductResponse struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description,omitempty"`
	ShortDescription string           `json:"shortDescription,omitempty"`
	Price            decimal.Decimal  `json:"price"`
	ComparePrice     *decimal.Decimal `json:"comparePrice,omitempty"`
	Images           []string         `json:"images"`
	CategoryID       uuid.UUID        `json:"categoryId"`
	VendorID         uuid.UUID        `json:"vendorId"`
	SKU              string           `json:"sku,omitempty"`
	Quantity         int              `json:"quantity"`
	Status           string           `json:"status"`
	SourceURL        string           `json:"sourceUrl,omitempty"`
	SourcePlatform   string           `json:"sourcePlatform,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// ToProductResponse converts a domain product to its response form
func ToProductResponse(p *catalog.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price,
		ComparePrice:     p.ComparePrice,
		Images:           p.Images,
		CategoryID:       p.CategoryID,
		VendorID:         p.VendorID,
		SKU:              p.SKU,
		Quantity:         p.Quantity,
		Status:           string(p.Status),
		SourceURL:        p.SourceURL,
		SourcePlatform:   p.SourcePlatform,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ImportPreviewResponse describes what a committed import would do
type ImportPreviewResponse struct {
	Listing             *importapp.ValidatedListing `json:"listing"`
	SuggestedCategoryID *uuid.UUID                  `json:"suggestedCategoryId"`
	CategoryStrategy    string                      `json:"categoryStrategy,omitempty"`
	WouldCreateCategory bool                        `json:"wouldCreateCategory"`
	SuggestedVendorID   *uuid.UUID                  `json:"suggestedVendorId"`
	VendorStrategy      string                      `json:"vendorStrategy,omitempty"`
	WouldCreateVendor   bool                        `json:"wouldCreateVendor"`
	ProposedSlug        string                      `json:"proposedSlug"`
	ExistingProduct     *ProductResponse            `json:"existingProduct,omitempty"`
}

// ImportProductResponse is the data of a successful import response
type ImportProductResponse struct {
	Outcome string                   `json:"outcome"`
	Message string                   `json:"message"`
	Product *ProductResponse         `json:"product,omitempty"`
	Preview *ImportPreviewResponse   `json:"preview,omitempty"`
	Session *importapp.ImportSession `json:"session,omitempty"`
}

// ToImportProductResponse converts a service response to its response form
func ToImportProductResponse(resp *importapp.ImportResponse) ImportProductResponse {
	out := ImportProductResponse{
		Outcome: string(resp.Outcome),
		Message: resp.Message,
		Product: ToProductResponse(resp.Product),
		Session: resp.Session,
	}
	if p := resp.Preview; p != nil {
		out.Preview = &ImportPreviewResponse{
			Listing:             p.Listing,
			SuggestedCategoryID: p.SuggestedCategoryID,
			CategoryStrategy:    string(p.CategoryStrategy),
			WouldCreateCategory: p.WouldCreateCategory,
			SuggestedVendorID:   p.SuggestedVendorID,
			VendorStrategy:      string(p.VendorStrategy),
			WouldCreateVendor:   p.WouldCreateVendor,
			ProposedSlug:        p.ProposedSlug,
			ExistingProduct:     ToProductResponse(p.ExistingProduct),
		}
	}
	return out
}

// ToValidationDetails converts import field errors to response details
func ToValidationDetails(fields []importapp.FieldError) []ValidationDetail {
	if len(fields) == 0 {
		return nil
	}
	details := make([]ValidationDetail, len(fields))
	for i, f := range fields {
		details[i] = ValidationDetail{Field: f.Path, Message: f.Message}
	}
	return details
}
