package models

import "time"

// SavedItem marks a product as curated for a store. Product deletion does not
// cascade here; orphans are filtered at read time.
type SavedItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Barcode   string    `gorm:"column:barcode;not null;uniqueIndex:saved_items_barcode_store_key,priority:1"`
	StoreName string    `gorm:"column:store_name;not null;index:saved_items_store_name_idx;uniqueIndex:saved_items_barcode_store_key,priority:2"`
	SavedAt   time.Time `gorm:"column:saved_at;not null"`
	Category  string    `gorm:"column:category;not null;default:''"`
}

func (SavedItem) TableName() string { return "saved_items" }
