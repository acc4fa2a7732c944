package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/internal/classify"
	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/events"
	"github.com/oliverbray/shopsmart-backend/pkg/types"
)

// productStore is the persistence surface the service needs. *Repository
// satisfies it; tests substitute fakes.
type productStore interface {
	FindLatestByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	All(ctx context.Context) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	CountDistinctBarcodes(ctx context.Context) (int64, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// ProductLookup resolves barcodes against the external product catalog.
type ProductLookup interface {
	LookupByBarcode(ctx context.Context, barcode string) (types.ProductResult, bool, error)
}

// PriceRecorder appends a sighting to the price ledger.
type PriceRecorder interface {
	Record(ctx context.Context, barcode, storeName string, price decimal.Decimal, date time.Time, location string) error
}

// ListAppender puts a scanned product on the shopper's default list.
type ListAppender interface {
	GetOrCreateDefault(ctx context.Context) (models.ShoppingList, error)
	AddItem(ctx context.Context, listID int64, barcode string, qty int) error
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo   *Repository
	Lookup ProductLookup
	Prices PriceRecorder
	Lists  ListAppender
	Bus    *events.Bus
}

// Service exposes business rules for the product catalog.
type Service interface {
	Upsert(ctx context.Context, input UpsertInput) (models.Product, error)
	Get(ctx context.Context, barcode string) (models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	Deduplicate(ctx context.Context) (int, error)
	MaybeDeduplicate(ctx context.Context) error
	SaveScan(ctx context.Context, input ScanInput) (ScanResult, error)
}

type service struct {
	repo   productStore
	lookup ProductLookup
	prices PriceRecorder
	lists  ListAppender
	bus    *events.Bus
}

// NewService builds a catalog service with the required dependencies.
// Lookup, Prices and Lists are only needed by SaveScan and may be nil when the
// scanner flow is not exposed.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{
		repo:   params.Repo,
		lookup: params.Lookup,
		prices: params.Prices,
		lists:  params.Lists,
		bus:    params.Bus,
	}, nil
}

// Upsert inserts a candidate or merges it into the existing row for the
// barcode. Existing non-empty fields win; the store sets are unioned.
func (s *service) Upsert(ctx context.Context, input UpsertInput) (models.Product, error) {
	barcode := strings.TrimSpace(input.Barcode)
	if barcode == "" {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	existing, err := s.repo.FindLatestByBarcode(ctx, barcode)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if existing == nil {
		category := strings.TrimSpace(input.Category)
		if category == "" {
			category = classify.Category(input.Name, "")
		}
		product := models.Product{
			Barcode:         barcode,
			Name:            strings.TrimSpace(input.Name),
			Brand:           strings.TrimSpace(input.Brand),
			Image:           strings.TrimSpace(input.ImageURL),
			Category:        category,
			PotentialStores: types.NewStoreSet(input.PotentialStores...),
		}
		if err := s.repo.Create(ctx, &product); err != nil {
			return models.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		s.bus.Publish(events.CollectionProducts, events.OpInsert)
		return product, nil
	}

	merged := mergeProduct(*existing, input)
	if err := s.repo.Save(ctx, &merged); err != nil {
		return models.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	s.bus.Publish(events.CollectionProducts, events.OpUpdate)
	return merged, nil
}

// Get returns the canonical product for a barcode.
func (s *service) Get(ctx context.Context, barcode string) (models.Product, error) {
	trimmed := strings.TrimSpace(barcode)
	if trimmed == "" {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	product, err := s.repo.FindLatestByBarcode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Product{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return models.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return *product, nil
}

// List returns the deduplicated catalog view.
func (s *service) List(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.All(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return dedupedView(rows), nil
}

// Search filters the deduplicated view by case-insensitive substring over
// name, brand and the potential store set. The view is recomputed per call,
// never cached.
func (s *service) Search(ctx context.Context, query string) ([]models.Product, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return s.List(ctx)
	}
	rows, err := s.repo.Search(ctx, trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return dedupedView(rows), nil
}

// Deduplicate removes duplicate barcode rows, keeping the highest id per
// barcode with the union of all store sets. Running it twice is a no-op.
func (s *service) Deduplicate(ctx context.Context) (int, error) {
	rows, err := s.repo.All(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	keepers := dedupedView(rows)
	keepByID := make(map[int64]models.Product, len(keepers))
	for _, keeper := range keepers {
		keepByID[keeper.ID] = keeper
	}

	var doomed []int64
	for _, row := range rows {
		if _, keep := keepByID[row.ID]; !keep {
			doomed = append(doomed, row.ID)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	// Persist the unioned store sets on the keepers before dropping the rest.
	for _, row := range rows {
		keeper, ok := keepByID[row.ID]
		if !ok {
			continue
		}
		if len(keeper.PotentialStores) != len(row.PotentialStores) {
			k := keeper
			if err := s.repo.Save(ctx, &k); err != nil {
				return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
			}
		}
	}
	if err := s.repo.DeleteByIDs(ctx, doomed); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete duplicate products")
	}
	s.bus.Publish(events.CollectionProducts, events.OpDelete)
	return len(doomed), nil
}

// MaybeDeduplicate runs the consistency pass only when a cheap count check
// shows duplicate barcodes exist.
func (s *service) MaybeDeduplicate(ctx context.Context) error {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	distinct, err := s.repo.CountDistinctBarcodes(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count distinct barcodes")
	}
	if total == distinct {
		return nil
	}
	_, err = s.Deduplicate(ctx)
	return err
}

// SaveScan is the scanner flow: resolve the barcode, classify, upsert the
// product, record the sighting price and drop the item on the default list.
func (s *service) SaveScan(ctx context.Context, input ScanInput) (ScanResult, error) {
	if s.lookup == nil || s.lists == nil {
		return ScanResult{}, pkgerrors.New(pkgerrors.CodeInternal, "scan flow is not configured")
	}

	barcode := strings.TrimSpace(input.Barcode)
	if barcode == "" {
		return ScanResult{}, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	storeName := strings.TrimSpace(input.StoreName)
	if storeName == "" {
		return ScanResult{}, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}

	result, found, err := s.lookup.LookupByBarcode(ctx, barcode)
	if err != nil {
		return ScanResult{}, err
	}
	if !found {
		// No upstream record. Fall back to caller-supplied details so manual
		// entry after a failed scan still works.
		if strings.TrimSpace(input.Name) == "" {
			return ScanResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		result = types.ProductResult{
			Barcode: barcode,
			Name:    input.Name,
			Brand:   input.Brand,
		}
	}

	stores := classify.Stores(result.StoreHint, result.Brand)
	category := classify.Category(result.Name, result.CategoryHint)
	candidate := candidateFromResult(result, types.NewStoreSet(stores...).With(storeName), category)
	candidate.Barcode = barcode

	product, err := s.Upsert(ctx, candidate)
	if err != nil {
		return ScanResult{}, err
	}

	outcome := ScanResult{Product: ToDTO(product)}

	if input.Price != nil && s.prices != nil {
		if err := s.prices.Record(ctx, barcode, storeName, *input.Price, time.Now().UTC(), input.Location); err != nil {
			return ScanResult{}, err
		}
		outcome.PriceRecorded = true
	}

	list, err := s.lists.GetOrCreateDefault(ctx)
	if err != nil {
		return ScanResult{}, err
	}
	if err := s.lists.AddItem(ctx, list.ID, barcode, 1); err != nil {
		return ScanResult{}, err
	}
	outcome.ListID = list.ID

	return outcome, nil
}

// mergeProduct folds a candidate into an existing row. Only blank fields are
// filled; the store sets are unioned.
func mergeProduct(existing models.Product, input UpsertInput) models.Product {
	if existing.Name == "" {
		existing.Name = strings.TrimSpace(input.Name)
	}
	if existing.Brand == "" {
		existing.Brand = strings.TrimSpace(input.Brand)
	}
	if existing.Image == "" {
		existing.Image = strings.TrimSpace(input.ImageURL)
	}
	if existing.Category == "" || existing.Category == classify.CategoryOther {
		if category := strings.TrimSpace(input.Category); category != "" {
			existing.Category = category
		}
	}
	existing.PotentialStores = existing.PotentialStores.Union(types.NewStoreSet(input.PotentialStores...))
	return existing
}

// dedupedView keeps one product per barcode: the highest id wins and absorbs
// the union of every duplicate's store set. Input must be ordered by id.
func dedupedView(rows []models.Product) []models.Product {
	byBarcode := make(map[string]int, len(rows))
	view := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		idx, seen := byBarcode[row.Barcode]
		if !seen {
			byBarcode[row.Barcode] = len(view)
			view = append(view, row)
			continue
		}
		keeper := view[idx]
		merged := row
		if row.ID < keeper.ID {
			merged = keeper
		}
		merged.PotentialStores = keeper.PotentialStores.Union(row.PotentialStores)
		view[idx] = merged
	}
	return view
}

// ToDTO maps a product row to its outward shape.
func ToDTO(product models.Product) ProductDTO {
	return ProductDTO{
		ID:              product.ID,
		Barcode:         product.Barcode,
		Name:            product.Name,
		Brand:           product.Brand,
		ImageURL:        product.Image,
		Category:        product.Category,
		PotentialStores: product.PotentialStores.Sorted(),
	}
}
