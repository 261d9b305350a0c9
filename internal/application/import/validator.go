package importapp

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/integration"
)

// Listing field limits
const (
	MaxDescriptionLength      = 10000
	MaxShortDescriptionLength = 500
	MaxImages                 = 20
	MaxStockQuantity          = 1000000
	MaxSKULength              = 100
	MaxSourcePlatformLength   = 50
)

// MaxPrice is the highest price or compare-at price a listing may carry
var MaxPrice = decimal.NewFromInt(1000000)

// ValidatedListing is a marketplace listing that satisfies the catalog's field constraints
type ValidatedListing struct {
	Name             string           `json:"name" validate:"required,min=1,max=200"`
	Description      string           `json:"description" validate:"max=10000"`
	ShortDescription string           `json:"shortDescription" validate:"max=500"`
	Price            decimal.Decimal  `json:"price" validate:"-"`
	CompareAtPrice   *decimal.Decimal `json:"compareAtPrice,omitempty" validate:"-"`
	Images           []string         `json:"images" validate:"min=1,max=20,dive,required,abs_http_url"`
	StockQuantity    int              `json:"stockQuantity" validate:"min=0,max=1000000"`
	SKU              string           `json:"sku,omitempty" validate:"max=100"`
	SourceURL        string           `json:"sourceUrl" validate:"required,https_url"`
	SourcePlatform   string           `json:"sourcePlatform,omitempty" validate:"max=50"`
}

// ListingValidator runs the mandatory-field check and the schema validation
type ListingValidator struct {
	validate *validator.Validate
}

// NewListingValidator creates a ListingValidator
func NewListingValidator() *ListingValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("abs_http_url", func(fl validator.FieldLevel) bool {
		return isAbsoluteURL(fl.Field().String(), "http", "https")
	})
	_ = v.RegisterValidation("https_url", func(fl validator.FieldLevel) bool {
		return isAbsoluteURL(fl.Field().String(), "https")
	})
	return &ListingValidator{validate: v}
}

// CheckMandatory rejects a listing without a name, a positive price or at least one image.
// Images are counted after placeholder entries are dropped.
// The returned INCOMPLETE_LISTING error names every missing field.
func (lv *ListingValidator) CheckMandatory(listing *integration.ScrapedListing) error {
	errs := NewErrorCollection(0)
	if listing == nil {
		errs.AddRequired("name")
		errs.AddRequired("price")
		errs.AddRequired("images")
	} else {
		if strings.TrimSpace(listing.Name) == "" {
			errs.AddRequired("name")
		}
		if listing.Price == nil {
			errs.AddRequired("price")
		} else if !listing.Price.IsPositive() {
			errs.Add("price", "price must be a positive number")
		}
		if len(NormalizeImages(listing.Images)) == 0 {
			errs.Add("images", "at least one image is required")
		}
	}
	return errs.AsError(CodeIncompleteListing,
		"listing is missing required fields: "+strings.Join(errs.Paths(), ", "))
}

// Validate checks every field of listing and returns the ValidatedListing,
// or a VALIDATION_FAILED error carrying all violations at once
func (lv *ListingValidator) Validate(listing *integration.ScrapedListing) (*ValidatedListing, error) {
	if err := lv.CheckMandatory(listing); err != nil {
		return nil, err
	}

	validated := &ValidatedListing{
		Name:             strings.TrimSpace(listing.Name),
		Description:      strings.TrimSpace(listing.Description),
		ShortDescription: strings.TrimSpace(listing.ShortDescription),
		Price:            *listing.Price,
		CompareAtPrice:   listing.CompareAtPrice,
		Images:           append([]string(nil), listing.Images...),
		SKU:              strings.TrimSpace(listing.SKU),
		SourceURL:        strings.TrimSpace(listing.SourceURL),
		SourcePlatform:   strings.TrimSpace(listing.SourcePlatform),
	}
	if listing.StockQuantity != nil {
		validated.StockQuantity = *listing.StockQuantity
	}

	errs := NewErrorCollection(0)
	if err := lv.validate.Struct(validated); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, newImportError(CodeValidationFailed, "listing could not be validated", err)
		}
		for _, fe := range fieldErrs {
			errs.Add(fieldPath(fe), validationMessage(fe))
		}
	}

	if validated.Price.GreaterThan(MaxPrice) {
		errs.Add("price", "must be at most "+MaxPrice.String())
	} else if !hasPriceScale(validated.Price) {
		errs.Add("price", priceScaleMessage)
	}
	if cp := validated.CompareAtPrice; cp != nil {
		if cp.IsNegative() {
			errs.Add("compareAtPrice", "must be greater than or equal to 0")
		} else if cp.GreaterThan(MaxPrice) {
			errs.Add("compareAtPrice", "must be at most "+MaxPrice.String())
		} else if !hasPriceScale(*cp) {
			errs.Add("compareAtPrice", priceScaleMessage)
		}
	}

	if err := errs.AsError(CodeValidationFailed, fmt.Sprintf("listing has %d invalid field(s)", errs.TotalCount())); err != nil {
		return nil, err
	}
	validated.Images = NormalizeImages(validated.Images)
	return validated, nil
}

// fieldPath drops the struct name from the namespace: "ValidatedListing.images[2]" → "images[2]"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	collection := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if collection {
			return "must contain at least " + fe.Param() + " entries"
		}
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if collection {
			return "must contain at most " + fe.Param() + " entries"
		}
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "abs_http_url":
		return "must be an absolute http(s) URL"
	case "https_url":
		return "must be an absolute https URL"
	default:
		return "is invalid"
	}
}

func isAbsoluteURL(raw string, schemes ...string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return true
		}
	}
	return false
}

// PriceScale is the number of decimal places stored for prices
const PriceScale = 2

var priceScaleMessage = fmt.Sprintf("must have at most %d decimal places", PriceScale)

func hasPriceScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(PriceScale))
}
