package ecommerce

import (
	"strings"

	"github.com/shopspring/decimal"
)

// APIResponse is embedded in every open API response
type APIResponse struct {
	ErrorResponse *APIErrorResponse `json:"error_response,omitempty"`
}

// APIErrorResponse is the error envelope of the open API
type APIErrorResponse struct {
	Code      string `json:"code"`
	Msg       string `json:"msg"`
	SubCode   string `json:"sub_code,omitempty"`
	SubMsg    string `json:"sub_msg,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// IsSuccess returns true if the response carries no error
func (r *APIResponse) IsSuccess() bool {
	return r.ErrorResponse == nil
}

// Open API error codes with a dedicated meaning
const (
	errCodeInvalidSession   = "27"
	errCodeRateLimited      = "7"
	subCodeItemNotExist     = "isv.item-not-exist"
	subCodeSessionExpired   = "isv.session-expired"
	subCodePermissionDenied = "isv.permission-denied"
)

// ItemGetResponse is the response of the item.get method
type ItemGetResponse struct {
	APIResponse
	ItemGet *ItemGetPayload `json:"item_get_response,omitempty"`
}

// ItemGetPayload wraps the requested item
type ItemGetPayload struct {
	Item      *MarketplaceItem `json:"item,omitempty"`
	RequestID string           `json:"request_id"`
}

// MarketplaceItem is a listing as described by the open API
type MarketplaceItem struct {
	NumIid        int64     `json:"num_iid"`
	Title         string    `json:"title"`
	SubTitle      string    `json:"sub_title,omitempty"`
	Desc          string    `json:"desc,omitempty"`
	Price         string    `json:"price,omitempty"`
	OriginalPrice string    `json:"original_price,omitempty"`
	Num           *int      `json:"num,omitempty"`
	OuterID       string    `json:"outer_id,omitempty"`
	PicURL        string    `json:"pic_url,omitempty"`
	ItemImgs      *ItemImgs `json:"item_imgs,omitempty"`
	DetailURL     string    `json:"detail_url,omitempty"`
}

// ItemImgs wraps the listing image list
type ItemImgs struct {
	ItemImg []ItemImg `json:"item_img"`
}

// ItemImg is a listing image
type ItemImg struct {
	URL      string `json:"url"`
	Position int    `json:"position,omitempty"`
}

// ImageURLs returns the main picture followed by the gallery, without duplicates
func (i *MarketplaceItem) ImageURLs() []string {
	seen := make(map[string]bool)
	urls := make([]string, 0)
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	add(i.PicURL)
	if i.ItemImgs != nil {
		for _, img := range i.ItemImgs.ItemImg {
			add(img.URL)
		}
	}
	return urls
}

// parseOptionalDecimal returns nil for empty or malformed amounts
func parseOptionalDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
