package models

// ShoppingListItem ties a catalog product to a list. The (list, barcode)
// unique index is what makes duplicate adds a no-op instead of a second row.
type ShoppingListItem struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ListID  int64  `gorm:"column:list_id;not null;index:shopping_list_items_list_id_idx;uniqueIndex:shopping_list_items_list_barcode_key,priority:1"`
	Barcode string `gorm:"column:barcode;not null;uniqueIndex:shopping_list_items_list_barcode_key,priority:2"`
	Qty     int    `gorm:"column:qty;not null;default:1"`
	Done    bool   `gorm:"column:done;not null;default:false"`
}

func (ShoppingListItem) TableName() string { return "shopping_list_items" }
