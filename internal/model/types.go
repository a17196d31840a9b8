package model

import "github.com/shopspring/decimal"

// -----------------------------------------------------------------------------
// Catalog Types
// -----------------------------------------------------------------------------

// OfferProvider is the seller behind an offer.
type OfferProvider struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VehicleFit describes a vehicle the part is compatible with.
type VehicleFit struct {
	VehicleMake  string `json:"vehicle_make"`
	VehicleModel string `json:"vehicle_model"`
	YearFrom     int    `json:"year_from"`
	YearTo       int    `json:"year_to"`
}

// Image is a product picture.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Offer is one provider's price and stock for a product.
type Offer struct {
	ID          int64           `json:"id"`
	ProviderID  int64           `json:"provider_id"`
	PriceValue  decimal.Decimal `json:"price_value"`
	Currency    string          `json:"currency"`
	StockQty    int             `json:"stock_qty"`
	StockStatus string          `json:"stock_status"`
	Provider    *OfferProvider  `json:"provider,omitempty"`
}

// Product is one catalog entry as returned by the paged list endpoint.
type Product struct {
	ID          int64        `json:"id"`
	SKU         string       `json:"sku"`
	Name        string       `json:"name"`
	PartBrand   string       `json:"part_brand,omitempty"`
	Category    string       `json:"category,omitempty"`
	Offers      []Offer      `json:"offers"`
	VehicleFits []VehicleFit `json:"vehicleFits,omitempty"`
}

// OfferDetail is an offer as returned by the detail endpoint.
type OfferDetail struct {
	Offer
	DispatchETA *string `json:"dispatch_eta,omitempty"`
}

// ProductDetail is the full record for a single SKU.
type ProductDetail struct {
	ID          int64          `json:"id"`
	SKU         string         `json:"sku"`
	OEMCode     string         `json:"oem_code,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	PartBrand   string         `json:"part_brand,omitempty"`
	Category    string         `json:"category,omitempty"`
	WeightValue *float64       `json:"weight_value,omitempty"`
	WeightUnit  string         `json:"weight_unit,omitempty"`
	Specs       map[string]any `json:"specs,omitempty"`
	Offers      []OfferDetail  `json:"offers"`
	VehicleFits []VehicleFit   `json:"vehicleFits,omitempty"`
	Images      []Image        `json:"images,omitempty"`
}

// ListQuery selects a page of the catalog. Zero values are omitted from the request.
type ListQuery struct {
	Page  int
	Limit int
	Q     string
	Brand string
	Make  string
	Model string
	Year  int
}

// -----------------------------------------------------------------------------
// Stream Types
// -----------------------------------------------------------------------------

// ChangeKind is the kind of change an UpdateItem describes.
type ChangeKind string

const (
	ChangeOfferCreated ChangeKind = "offer_created"
	ChangeOfferUpdated ChangeKind = "offer_updated"
)

// UpdateItem is a merge delta for one offer. Absent fields never erase values.
type UpdateItem struct {
	SKU         string           `json:"sku"`
	ProviderID  int64            `json:"provider_id"`
	Change      ChangeKind       `json:"change"`
	PriceValue  *decimal.Decimal `json:"price_value,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	StockQty    *int             `json:"stock_qty,omitempty"`
	StockStatus *string          `json:"stock_status,omitempty"`
}

// IsCreation reports whether the item announces a new offer.
func (u UpdateItem) IsCreation() bool {
	return u.Change == ChangeOfferCreated
}
