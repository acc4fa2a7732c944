package planner

import (
	"github.com/shopspring/decimal"

	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
)

// manualBarcodePrefix marks products entered by hand rather than scanned, so
// synthetic codes can never collide with real EAN/UPC space.
const manualBarcodePrefix = "MANUAL-"

// ManualItemInput describes a hand-entered product for a store.
type ManualItemInput struct {
	Name     string           `json:"name" validate:"required"`
	Brand    string           `json:"brand"`
	Category string           `json:"category"`
	ImageURL string           `json:"image_url"`
	Price    *decimal.Decimal `json:"price"`
}

// SavedItemView is a curated item hydrated with product details and the most
// recent price seen at the store.
type SavedItemView struct {
	Saved     models.SavedItem `json:"saved"`
	Name      string           `json:"name"`
	Brand     string           `json:"brand,omitempty"`
	Category  string           `json:"category,omitempty"`
	ImageURL  string           `json:"image_url,omitempty"`
	LastPrice *decimal.Decimal `json:"last_price,omitempty"`
}
