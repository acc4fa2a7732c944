package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
)

// Repository encapsulates product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindLatestByBarcode returns the highest-id row for a barcode. The barcode
// index is deliberately non-unique, so the newest row is the canonical one.
func (r *Repository) FindLatestByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		Order("id DESC").
		First(&product).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByID loads a single product row.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Save persists the full row.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// All returns every product row ordered by id.
func (r *Repository) All(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the raw row count.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

// CountDistinctBarcodes returns the number of distinct barcodes.
func (r *Repository) CountDistinctBarcodes(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Distinct("barcode").
		Count(&count).
		Error
	return count, err
}

// Search returns rows whose name, brand or store set contains the query,
// case-insensitively. The potential_stores column is JSON text, so a plain
// substring match works on both drivers.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Product, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(potential_stores) LIKE ?", pattern, pattern, pattern).
		Order("id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteByIDs removes the given product rows.
func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&models.Product{}, ids).Error
}
