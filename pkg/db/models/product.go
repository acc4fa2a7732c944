package models

import (
	"github.com/oliverbray/shopsmart-backend/pkg/types"
)

// Product is one row of the personal catalog. Barcode is the natural key;
// the synthetic ID only breaks ties when duplicate rows are reconciled
// (highest ID is the canonical survivor).
type Product struct {
	ID              int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Barcode         string         `gorm:"column:barcode;not null;index:products_barcode_idx"`
	Name            string         `gorm:"column:name;not null"`
	Brand           string         `gorm:"column:brand;not null;default:''"`
	Image           string         `gorm:"column:image;not null;default:''"`
	Category        string         `gorm:"column:category;not null;default:'Other'"`
	PotentialStores types.StoreSet `gorm:"column:potential_stores;type:text;not null;default:'[]'"`
}

func (Product) TableName() string { return "products" }
