package lists

import (
	"context"

	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
)

// Repository encapsulates shopping list persistence. Methods that take a tx
// run inside an enclosing transaction when one is supplied and fall back to
// the shared connection otherwise.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a list repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// CreateList inserts a new list row.
func (r *Repository) CreateList(ctx context.Context, tx *gorm.DB, list *models.ShoppingList) error {
	return r.conn(tx).WithContext(ctx).Create(list).Error
}

// FindList loads one list.
func (r *Repository) FindList(ctx context.Context, tx *gorm.DB, id int64) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if err := r.conn(tx).WithContext(ctx).First(&list, id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// SaveList persists the full list row.
func (r *Repository) SaveList(ctx context.Context, list *models.ShoppingList) error {
	return r.db.WithContext(ctx).Save(list).Error
}

// LatestActive returns the most recently created incomplete list.
func (r *Repository) LatestActive(ctx context.Context) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := r.db.WithContext(ctx).
		Where("completed_at IS NULL").
		Order("created_at DESC").
		Order("id DESC").
		First(&list).
		Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// RecentCompleted returns completed lists, newest completion first.
func (r *Repository) RecentCompleted(ctx context.Context, limit int) ([]models.ShoppingList, error) {
	var rows []models.ShoppingList
	err := r.db.WithContext(ctx).
		Where("completed_at IS NOT NULL").
		Order("completed_at DESC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AddItem inserts a list item and ignores duplicates, so two concurrent adds
// of one barcode cannot produce two rows.
func (r *Repository) AddItem(ctx context.Context, item *models.ShoppingListItem) error {
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO shopping_list_items (list_id, barcode, qty, done) VALUES (?, ?, ?, ?) ON CONFLICT (list_id, barcode) DO NOTHING`,
			item.ListID, item.Barcode, item.Qty, item.Done).
		Error
}

// InsertItems bulk-inserts item rows, typically inside a reuse transaction.
func (r *Repository) InsertItems(ctx context.Context, tx *gorm.DB, items []models.ShoppingListItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&items).Error
}

// ItemsForList returns a list's items ordered by insertion.
func (r *Repository) ItemsForList(ctx context.Context, tx *gorm.DB, listID int64) ([]models.ShoppingListItem, error) {
	var items []models.ShoppingListItem
	err := r.conn(tx).WithContext(ctx).
		Where("list_id = ?", listID).
		Order("id ASC").
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindItem loads one item row.
func (r *Repository) FindItem(ctx context.Context, id int64) (*models.ShoppingListItem, error) {
	var item models.ShoppingListItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveItem persists the full item row.
func (r *Repository) SaveItem(ctx context.Context, item *models.ShoppingListItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteItem removes one item row.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.ShoppingListItem{}, id).Error
}

// DeleteListItems removes every item on a list.
func (r *Repository) DeleteListItems(ctx context.Context, tx *gorm.DB, listID int64) error {
	return r.conn(tx).WithContext(ctx).
		Where("list_id = ?", listID).
		Delete(&models.ShoppingListItem{}).
		Error
}

// DeleteList removes the list row itself.
func (r *Repository) DeleteList(ctx context.Context, tx *gorm.DB, id int64) error {
	return r.conn(tx).WithContext(ctx).Delete(&models.ShoppingList{}, id).Error
}
