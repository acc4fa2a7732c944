package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/oliverbray/shopsmart-backend/pkg/types"
)

// UpsertInput is a candidate product keyed by barcode.
type UpsertInput struct {
	Barcode         string   `json:"barcode" validate:"required"`
	Name            string   `json:"name"`
	Brand           string   `json:"brand"`
	ImageURL        string   `json:"image_url"`
	Category        string   `json:"category"`
	PotentialStores []string `json:"potential_stores"`
}

// ScanInput captures a decoded barcode plus the shopper's sighting details.
// Name and Brand act as fallbacks when the upstream catalog has no record.
type ScanInput struct {
	Barcode   string           `json:"barcode" validate:"required"`
	StoreName string           `json:"store_name" validate:"required"`
	Price     *decimal.Decimal `json:"price"`
	Location  string           `json:"location"`
	Name      string           `json:"name"`
	Brand     string           `json:"brand"`
}

// ScanResult reports what a scan ended up touching.
type ScanResult struct {
	Product       ProductDTO `json:"product"`
	ListID        int64      `json:"list_id"`
	PriceRecorded bool       `json:"price_recorded"`
}

// ProductDTO is the outward product shape.
type ProductDTO struct {
	ID              int64    `json:"id"`
	Barcode         string   `json:"barcode"`
	Name            string   `json:"name"`
	Brand           string   `json:"brand,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	Category        string   `json:"category"`
	PotentialStores []string `json:"potential_stores"`
}

func candidateFromResult(result types.ProductResult, stores []string, category string) UpsertInput {
	return UpsertInput{
		Barcode:         result.Barcode,
		Name:            result.Name,
		Brand:           result.Brand,
		ImageURL:        result.ImageURL,
		Category:        category,
		PotentialStores: stores,
	}
}
