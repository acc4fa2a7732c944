package lists

import (
	"github.com/shopspring/decimal"

	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
)

// DefaultListName and DefaultListStore describe the list created on first use.
const (
	DefaultListName  = "My First Shop"
	DefaultListStore = "General"
)

// UnknownProductName stands in when an item's barcode no longer resolves.
const UnknownProductName = "Unknown Product"

// defaultRecentLimit caps RecentCompleted when the caller passes no limit.
const defaultRecentLimit = 5

// CreateListInput names a new shopping list.
type CreateListInput struct {
	Name           string           `json:"name" validate:"required"`
	StoreName      string           `json:"store_name"`
	EstimatedTotal *decimal.Decimal `json:"estimated_total"`
}

// ItemView is a list item hydrated with product details for display.
type ItemView struct {
	Item        models.ShoppingListItem `json:"item"`
	ProductName string                  `json:"product_name"`
	Brand       string                  `json:"brand,omitempty"`
	Category    string                  `json:"category,omitempty"`
	ImageURL    string                  `json:"image_url,omitempty"`
}

// ListView is a list with its hydrated items.
type ListView struct {
	List  models.ShoppingList `json:"list"`
	Items []ItemView          `json:"items"`
}
