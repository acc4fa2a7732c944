package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShoppingList is a draft or completed shop. A list is active while
// CompletedAt is null; the engine treats the most recently created active
// list as current.
type ShoppingList struct {
	ID             int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string           `gorm:"column:name;not null;index:shopping_lists_name_idx"`
	StoreName      string           `gorm:"column:store_name;not null;default:'General';index:shopping_lists_store_name_idx"`
	CreatedAt      time.Time        `gorm:"column:created_at;not null;index:shopping_lists_created_at_idx"`
	CompletedAt    *time.Time       `gorm:"column:completed_at;index:shopping_lists_completed_at_idx"`
	EstimatedTotal *decimal.Decimal `gorm:"column:estimated_total;type:numeric"`
}

func (ShoppingList) TableName() string { return "shopping_lists" }

// Active reports whether the list has not yet been completed.
func (l ShoppingList) Active() bool { return l.CompletedAt == nil }
