package planner

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	"github.com/oliverbray/shopsmart-backend/pkg/types"
)

// Repository encapsulates saved item and search cache persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a planner repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveItem inserts a curated item and ignores duplicates, so curating twice
// keeps the original saved_at.
func (r *Repository) SaveItem(ctx context.Context, item *models.SavedItem) error {
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO saved_items (barcode, store_name, saved_at, category) VALUES (?, ?, ?, ?) ON CONFLICT (barcode, store_name) DO NOTHING`,
			item.Barcode, item.StoreName, item.SavedAt, item.Category).
		Error
}

// DeleteItem removes the curated entry for the pair if it exists.
func (r *Repository) DeleteItem(ctx context.Context, barcode, storeName string) error {
	return r.db.WithContext(ctx).
		Where("barcode = ? AND store_name = ?", barcode, storeName).
		Delete(&models.SavedItem{}).
		Error
}

// ItemsForStore returns a store's curated items, newest first.
func (r *Repository) ItemsForStore(ctx context.Context, storeName string) ([]models.SavedItem, error) {
	var items []models.SavedItem
	err := r.db.WithContext(ctx).
		Where("store_name = ?", storeName).
		Order("saved_at DESC").
		Order("id DESC").
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindCache returns the cached search row for a (store, query) key.
func (r *Repository) FindCache(ctx context.Context, storeName, query string) (*models.CachedSearchResult, error) {
	var row models.CachedSearchResult
	err := r.db.WithContext(ctx).
		Where("store_name = ? AND search_query = ?", storeName, query).
		First(&row).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertCache stores a search response, replacing any previous row for the
// key so the cache holds at most one entry per (store, query).
func (r *Repository) UpsertCache(ctx context.Context, storeName, query string, products types.ProductResults, cachedAt time.Time) error {
	value, err := products.Value()
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO cached_search_results (store_name, search_query, products, cached_at) VALUES (?, ?, ?, ?)
ON CONFLICT (store_name, search_query) DO UPDATE SET products = excluded.products, cached_at = excluded.cached_at`,
			storeName, query, value, cachedAt).
		Error
}
