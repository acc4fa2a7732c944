package models

import (
	"time"

	"github.com/oliverbray/shopsmart-backend/pkg/types"
)

// CachedSearchResult stores one external search response per
// (store, lowercased query) key. Repeat searches overwrite the row.
type CachedSearchResult struct {
	ID          int64                `gorm:"column:id;primaryKey;autoIncrement"`
	StoreName   string               `gorm:"column:store_name;not null;index:cached_search_results_store_name_idx;uniqueIndex:cached_search_results_store_query_key,priority:1"`
	SearchQuery string               `gorm:"column:search_query;not null;uniqueIndex:cached_search_results_store_query_key,priority:2"`
	Products    types.ProductResults `gorm:"column:products;type:text;not null;default:'[]'"`
	CachedAt    time.Time            `gorm:"column:cached_at;not null;index:cached_search_results_cached_at_idx"`
}

func (CachedSearchResult) TableName() string { return "cached_search_results" }

// Fresh reports whether the entry is younger than ttl at the given instant.
func (c CachedSearchResult) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CachedAt) < ttl
}
