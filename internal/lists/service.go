package lists

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/pkg/db"
	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/events"
)

// listStore is the persistence surface the service needs. *Repository
// satisfies it; tests substitute fakes.
type listStore interface {
	CreateList(ctx context.Context, tx *gorm.DB, list *models.ShoppingList) error
	FindList(ctx context.Context, tx *gorm.DB, id int64) (*models.ShoppingList, error)
	SaveList(ctx context.Context, list *models.ShoppingList) error
	LatestActive(ctx context.Context) (*models.ShoppingList, error)
	RecentCompleted(ctx context.Context, limit int) ([]models.ShoppingList, error)
	AddItem(ctx context.Context, item *models.ShoppingListItem) error
	InsertItems(ctx context.Context, tx *gorm.DB, items []models.ShoppingListItem) error
	ItemsForList(ctx context.Context, tx *gorm.DB, listID int64) ([]models.ShoppingListItem, error)
	FindItem(ctx context.Context, id int64) (*models.ShoppingListItem, error)
	SaveItem(ctx context.Context, item *models.ShoppingListItem) error
	DeleteItem(ctx context.Context, id int64) error
	DeleteListItems(ctx context.Context, tx *gorm.DB, listID int64) error
	DeleteList(ctx context.Context, tx *gorm.DB, id int64) error
}

// Transactor scopes multi-row writes to one transaction. *db.Client
// satisfies it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductResolver hydrates item barcodes with product details.
type ProductResolver interface {
	FindLatestByBarcode(ctx context.Context, barcode string) (*models.Product, error)
}

// PriceSource supplies latest store prices for estimated totals.
type PriceSource interface {
	LatestAtStore(ctx context.Context, barcode, storeName string) (models.PriceEntry, error)
}

// ServiceParams groups dependencies for the list service.
type ServiceParams struct {
	Repo     *Repository
	DB       *db.Client
	Products ProductResolver
	Prices   PriceSource
	Bus      *events.Bus
}

// Service exposes the shopping list lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateListInput) (models.ShoppingList, error)
	AddItem(ctx context.Context, listID int64, barcode string, qty int) error
	ToggleItem(ctx context.Context, itemID int64) (models.ShoppingListItem, error)
	RemoveItem(ctx context.Context, itemID int64) error
	Complete(ctx context.Context, listID int64) error
	Reuse(ctx context.Context, listID int64) (*models.ShoppingList, error)
	Delete(ctx context.Context, listID int64) error
	ShareText(ctx context.Context, listID int64) (string, error)
	LatestActive(ctx context.Context) (ListView, error)
	RecentCompleted(ctx context.Context, limit int) ([]models.ShoppingList, error)
	GetOrCreateDefault(ctx context.Context) (models.ShoppingList, error)
	GenerateFromSelection(ctx context.Context, storeName string, barcodes []string) (models.ShoppingList, error)
}

type service struct {
	repo     listStore
	tx       Transactor
	products ProductResolver
	prices   PriceSource
	bus      *events.Bus
	now      func() time.Time
}

// NewService builds a list service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list repo is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product resolver is required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.DB,
		products: params.Products,
		prices:   params.Prices,
		bus:      params.Bus,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create opens a new active list.
func (s *service) Create(ctx context.Context, input CreateListInput) (models.ShoppingList, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.ShoppingList{}, pkgerrors.New(pkgerrors.CodeValidation, "list name is required")
	}
	storeName := strings.TrimSpace(input.StoreName)
	if storeName == "" {
		storeName = DefaultListStore
	}

	list := models.ShoppingList{
		Name:           name,
		StoreName:      storeName,
		CreatedAt:      s.now(),
		EstimatedTotal: input.EstimatedTotal,
	}
	if err := s.repo.CreateList(ctx, nil, &list); err != nil {
		return models.ShoppingList{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create list")
	}
	s.bus.Publish(events.CollectionLists, events.OpInsert)
	return list, nil
}

// AddItem puts a barcode on a list. Adding a barcode that is already present
// is a no-op, not an error and not a second row.
func (s *service) AddItem(ctx context.Context, listID int64, barcode string, qty int) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	if qty < 1 {
		qty = 1
	}
	if _, err := s.loadList(ctx, listID); err != nil {
		return err
	}

	item := models.ShoppingListItem{ListID: listID, Barcode: barcode, Qty: qty}
	if err := s.repo.AddItem(ctx, &item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add list item")
	}
	s.bus.Publish(events.CollectionListItems, events.OpInsert)
	return nil
}

// ToggleItem flips an item's done flag and returns the updated row.
func (s *service) ToggleItem(ctx context.Context, itemID int64) (models.ShoppingListItem, error) {
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ShoppingListItem{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "list item not found")
		}
		return models.ShoppingListItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load list item")
	}
	item.Done = !item.Done
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return models.ShoppingListItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update list item")
	}
	s.bus.Publish(events.CollectionListItems, events.OpUpdate)
	return *item, nil
}

// RemoveItem deletes one item row regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, itemID int64) error {
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove list item")
	}
	s.bus.Publish(events.CollectionListItems, events.OpDelete)
	return nil
}

// Complete stamps the list done. Completing an already completed list keeps
// the original timestamp.
func (s *service) Complete(ctx context.Context, listID int64) error {
	list, err := s.loadList(ctx, listID)
	if err != nil {
		return err
	}
	if !list.Active() {
		return nil
	}
	completedAt := s.now()
	list.CompletedAt = &completedAt
	if err := s.repo.SaveList(ctx, list); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete list")
	}
	s.bus.Publish(events.CollectionLists, events.OpUpdate)
	return nil
}

// Reuse clones a past list into a fresh active one: same name, store and
// estimated total, every item reset to not done. The clone is atomic. A
// vanished source list is a silent no-op.
func (s *service) Reuse(ctx context.Context, listID int64) (*models.ShoppingList, error) {
	var clone *models.ShoppingList
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		source, err := s.repo.FindList(ctx, tx, listID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		items, err := s.repo.ItemsForList(ctx, tx, source.ID)
		if err != nil {
			return err
		}

		fresh := models.ShoppingList{
			Name:           source.Name,
			StoreName:      source.StoreName,
			CreatedAt:      s.now(),
			EstimatedTotal: source.EstimatedTotal,
		}
		if err := s.repo.CreateList(ctx, tx, &fresh); err != nil {
			return err
		}

		copies := make([]models.ShoppingListItem, 0, len(items))
		for _, item := range items {
			copies = append(copies, models.ShoppingListItem{
				ListID:  fresh.ID,
				Barcode: item.Barcode,
				Qty:     item.Qty,
			})
		}
		if err := s.repo.InsertItems(ctx, tx, copies); err != nil {
			return err
		}
		clone = &fresh
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reuse list")
	}
	if clone != nil {
		s.bus.Publish(events.CollectionLists, events.OpInsert)
		s.bus.Publish(events.CollectionListItems, events.OpInsert)
	}
	return clone, nil
}

// Delete removes a list and its items in one transaction, so a reader never
// sees orphaned items.
func (s *service) Delete(ctx context.Context, listID int64) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.DeleteListItems(ctx, tx, listID); err != nil {
			return err
		}
		return s.repo.DeleteList(ctx, tx, listID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete list")
	}
	s.bus.Publish(events.CollectionLists, events.OpDelete)
	s.bus.Publish(events.CollectionListItems, events.OpDelete)
	return nil
}

// ShareText renders the plain-text block handed to the platform share sheet.
func (s *service) ShareText(ctx context.Context, listID int64) (string, error) {
	list, err := s.loadList(ctx, listID)
	if err != nil {
		return "", err
	}
	items, err := s.repo.ItemsForList(ctx, nil, list.ID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load list items")
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		product, err := s.products.FindLatestByBarcode(ctx, item.Barcode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				lines = append(lines, "Unknown item")
				continue
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		line := product.Name
		if item.Qty > 1 {
			line = fmt.Sprintf("%s (x%d)", product.Name, item.Qty)
		}
		lines = append(lines, line)
	}

	text := list.Name + "\n\n" + strings.Join(lines, "\n")
	if list.EstimatedTotal != nil && list.EstimatedTotal.IsPositive() {
		text += fmt.Sprintf("\n\nEstimated Total: £%s", list.EstimatedTotal.StringFixed(2))
	}
	return text, nil
}

// LatestActive returns the current list with hydrated items. Items whose
// product has vanished are kept with a placeholder name.
func (s *service) LatestActive(ctx context.Context) (ListView, error) {
	list, err := s.repo.LatestActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ListView{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no active list")
		}
		return ListView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active list")
	}
	return s.hydrate(ctx, *list)
}

// RecentCompleted returns the latest completed lists, most recent completion
// first. A non-positive limit falls back to the default.
func (s *service) RecentCompleted(ctx context.Context, limit int) ([]models.ShoppingList, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.repo.RecentCompleted(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed lists")
	}
	return rows, nil
}

// GetOrCreateDefault returns the current active list, creating the first-run
// default when none exists.
func (s *service) GetOrCreateDefault(ctx context.Context) (models.ShoppingList, error) {
	list, err := s.repo.LatestActive(ctx)
	if err == nil {
		return *list, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ShoppingList{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active list")
	}
	return s.Create(ctx, CreateListInput{Name: DefaultListName, StoreName: DefaultListStore})
}

// GenerateFromSelection builds a store-planning list from curated barcodes.
// The estimated total is a snapshot of the latest prices at that store and is
// not recomputed afterwards.
func (s *service) GenerateFromSelection(ctx context.Context, storeName string, barcodes []string) (models.ShoppingList, error) {
	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		return models.ShoppingList{}, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	deduped := dedupeBarcodes(barcodes)
	if len(deduped) == 0 {
		return models.ShoppingList{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one barcode is required")
	}

	total := decimal.Zero
	if s.prices != nil {
		for _, barcode := range deduped {
			entry, err := s.prices.LatestAtStore(ctx, barcode, storeName)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					continue
				}
				return models.ShoppingList{}, err
			}
			total = total.Add(entry.Price)
		}
	}

	list := models.ShoppingList{
		Name:      storeName + " Shop",
		StoreName: storeName,
		CreatedAt: s.now(),
	}
	if total.IsPositive() {
		list.EstimatedTotal = &total
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateList(ctx, tx, &list); err != nil {
			return err
		}
		items := make([]models.ShoppingListItem, 0, len(deduped))
		for _, barcode := range deduped {
			items = append(items, models.ShoppingListItem{ListID: list.ID, Barcode: barcode, Qty: 1})
		}
		return s.repo.InsertItems(ctx, tx, items)
	})
	if err != nil {
		return models.ShoppingList{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate list")
	}
	s.bus.Publish(events.CollectionLists, events.OpInsert)
	s.bus.Publish(events.CollectionListItems, events.OpInsert)
	return list, nil
}

func (s *service) loadList(ctx context.Context, listID int64) (*models.ShoppingList, error) {
	list, err := s.repo.FindList(ctx, nil, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "list not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load list")
	}
	return list, nil
}

func (s *service) hydrate(ctx context.Context, list models.ShoppingList) (ListView, error) {
	items, err := s.repo.ItemsForList(ctx, nil, list.ID)
	if err != nil {
		return ListView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load list items")
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		view := ItemView{Item: item, ProductName: UnknownProductName}
		product, err := s.products.FindLatestByBarcode(ctx, item.Barcode)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return ListView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product != nil {
			if product.Name != "" {
				view.ProductName = product.Name
			}
			view.Brand = product.Brand
			view.Category = product.Category
			view.ImageURL = product.Image
		}
		views = append(views, view)
	}
	return ListView{List: list, Items: views}, nil
}

func dedupeBarcodes(barcodes []string) []string {
	seen := make(map[string]bool, len(barcodes))
	out := make([]string, 0, len(barcodes))
	for _, barcode := range barcodes {
		trimmed := strings.TrimSpace(barcode)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}
