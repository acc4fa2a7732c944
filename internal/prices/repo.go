package prices

import (
	"context"

	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
)

// Repository encapsulates price ledger persistence. The ledger is append-only;
// there are no update or delete paths.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a price repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends an entry to the ledger.
func (r *Repository) Insert(ctx context.Context, entry *models.PriceEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Best returns the cheapest sighting for a barcode. Ties on price resolve to
// the earliest date.
func (r *Repository) Best(ctx context.Context, barcode string) (*models.PriceEntry, error) {
	var entry models.PriceEntry
	err := r.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		Order("price ASC, date ASC").
		First(&entry).
		Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// LatestAtStore returns the most recent sighting for a barcode at one store.
func (r *Repository) LatestAtStore(ctx context.Context, barcode, storeName string) (*models.PriceEntry, error) {
	var entry models.PriceEntry
	err := r.db.WithContext(ctx).
		Where("barcode = ? AND store = ?", barcode, storeName).
		Order("date DESC").
		First(&entry).
		Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// History returns every sighting for a barcode ordered cheapest first.
func (r *Repository) History(ctx context.Context, barcode string) ([]models.PriceEntry, error) {
	var entries []models.PriceEntry
	err := r.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		Order("price ASC").
		Find(&entries).
		Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
