package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceEntry is a single observed shelf price. The ledger is append-only:
// entries are inserted, never updated or overwritten.
type PriceEntry struct {
	ID       int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Barcode  string          `gorm:"column:barcode;not null;index:price_entries_barcode_idx;index:price_entries_barcode_store_idx,priority:1"`
	Store    string          `gorm:"column:store;not null;index:price_entries_store_idx;index:price_entries_barcode_store_idx,priority:2"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric;not null"`
	Date     time.Time       `gorm:"column:date;not null"`
	Location string          `gorm:"column:location;not null;default:''"`
}

func (PriceEntry) TableName() string { return "price_entries" }
