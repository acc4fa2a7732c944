package planner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/internal/catalog"
	"github.com/oliverbray/shopsmart-backend/pkg/config"
	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/events"
	"github.com/oliverbray/shopsmart-backend/pkg/logger"
	"github.com/oliverbray/shopsmart-backend/pkg/metrics"
	"github.com/oliverbray/shopsmart-backend/pkg/redis"
	"github.com/oliverbray/shopsmart-backend/pkg/types"
)

// searchLockTTL bounds how long a crashed fetch can hold the single-flight
// lock for a cache key.
const searchLockTTL = 30 * time.Second

// savedStore is the persistence surface the service needs. *Repository
// satisfies it; tests substitute fakes.
type savedStore interface {
	SaveItem(ctx context.Context, item *models.SavedItem) error
	DeleteItem(ctx context.Context, barcode, storeName string) error
	ItemsForStore(ctx context.Context, storeName string) ([]models.SavedItem, error)
	FindCache(ctx context.Context, storeName, query string) (*models.CachedSearchResult, error)
	UpsertCache(ctx context.Context, storeName, query string, products types.ProductResults, cachedAt time.Time) error
}

// CatalogUpserter folds candidates into the product catalog.
type CatalogUpserter interface {
	Upsert(ctx context.Context, input catalog.UpsertInput) (models.Product, error)
}

// ProductResolver hydrates saved barcodes with product details.
type ProductResolver interface {
	FindLatestByBarcode(ctx context.Context, barcode string) (*models.Product, error)
}

// PriceSource supplies the latest store price for hydration.
type PriceSource interface {
	LatestAtStore(ctx context.Context, barcode, storeName string) (models.PriceEntry, error)
}

// PriceRecorder appends manual entry prices to the ledger.
type PriceRecorder interface {
	Record(ctx context.Context, barcode, storeName string, price decimal.Decimal, date time.Time, location string) error
}

// ExternalSearcher runs a store-scoped product search upstream.
type ExternalSearcher interface {
	Search(ctx context.Context, query, storeName string) ([]types.ProductResult, error)
}

// ServiceParams groups dependencies for the store planner service.
type ServiceParams struct {
	Repo     *Repository
	Catalog  CatalogUpserter
	Products ProductResolver
	Prices   PriceSource
	Recorder PriceRecorder
	Search   ExternalSearcher
	Redis    *redis.Client
	Metrics  *metrics.SearchMetrics
	Bus      *events.Bus
	Log      *logger.Logger
	Config   config.SearchConfig
}

// Service exposes per-store curation and cached external search.
type Service interface {
	SavedItems(ctx context.Context, storeName string) ([]SavedItemView, error)
	Curate(ctx context.Context, storeName string, candidate catalog.UpsertInput) (models.Product, error)
	Uncurate(ctx context.Context, storeName, barcode string) error
	AddManual(ctx context.Context, storeName string, input ManualItemInput) (models.Product, error)
	SearchExternal(ctx context.Context, storeName, query string) ([]types.ProductResult, error)
}

type service struct {
	repo     savedStore
	catalog  CatalogUpserter
	products ProductResolver
	prices   PriceSource
	recorder PriceRecorder
	search   ExternalSearcher
	flight   flightControl
	metrics  *metrics.SearchMetrics
	bus      *events.Bus
	log      *logger.Logger
	cacheTTL time.Duration
	minQuery int
	now      func() time.Time
}

// NewService builds a planner service. When no redis client is supplied the
// single-flight lock and generation counters fall back to in-process state.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planner repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog service is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product resolver is required")
	}
	if params.Search == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external searcher is required")
	}

	var flight flightControl = newLocalFlight()
	if params.Redis != nil {
		flight = &redisFlight{client: params.Redis}
	}

	cacheTTL := params.Config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	minQuery := params.Config.MinQueryLength
	if minQuery <= 0 {
		minQuery = 2
	}

	return &service{
		repo:     params.Repo,
		catalog:  params.Catalog,
		products: params.Products,
		prices:   params.Prices,
		recorder: params.Recorder,
		search:   params.Search,
		flight:   flight,
		metrics:  params.Metrics,
		bus:      params.Bus,
		log:      params.Log,
		cacheTTL: cacheTTL,
		minQuery: minQuery,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// SavedItems returns a store's curated items hydrated with product details
// and the latest price seen there. Items whose product no longer resolves are
// dropped from the view.
func (s *service) SavedItems(ctx context.Context, storeName string) ([]SavedItemView, error) {
	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	rows, err := s.repo.ItemsForStore(ctx, storeName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load saved items")
	}

	views := make([]SavedItemView, 0, len(rows))
	for _, row := range rows {
		product, err := s.products.FindLatestByBarcode(ctx, row.Barcode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		view := SavedItemView{
			Saved:    row,
			Name:     product.Name,
			Brand:    product.Brand,
			Category: product.Category,
			ImageURL: product.Image,
		}
		if s.prices != nil {
			entry, err := s.prices.LatestAtStore(ctx, row.Barcode, storeName)
			if err == nil {
				price := entry.Price
				view.LastPrice = &price
			} else if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, err
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Curate folds a candidate into the catalog and marks it saved for the store.
// Curating an already saved product keeps the original saved_at.
func (s *service) Curate(ctx context.Context, storeName string, candidate catalog.UpsertInput) (models.Product, error) {
	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}

	candidate.PotentialStores = append(candidate.PotentialStores, storeName)
	product, err := s.catalog.Upsert(ctx, candidate)
	if err != nil {
		return models.Product{}, err
	}

	item := models.SavedItem{
		Barcode:   product.Barcode,
		StoreName: storeName,
		SavedAt:   s.now(),
		Category:  product.Category,
	}
	if err := s.repo.SaveItem(ctx, &item); err != nil {
		return models.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save curated item")
	}
	s.bus.Publish(events.CollectionSavedItems, events.OpInsert)
	return product, nil
}

// Uncurate removes the saved entry only; the product and its price history
// stay in place.
func (s *service) Uncurate(ctx context.Context, storeName, barcode string) error {
	storeName = strings.TrimSpace(storeName)
	barcode = strings.TrimSpace(barcode)
	if storeName == "" || barcode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "store name and barcode are required")
	}
	if err := s.repo.DeleteItem(ctx, barcode, storeName); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove saved item")
	}
	s.bus.Publish(events.CollectionSavedItems, events.OpDelete)
	return nil
}

// AddManual creates a hand-entered product under a synthetic barcode, saves
// it for the store and optionally records its price.
func (s *service) AddManual(ctx context.Context, storeName string, input ManualItemInput) (models.Product, error) {
	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}

	barcode := manualBarcodePrefix + uuid.NewString()
	product, err := s.catalog.Upsert(ctx, catalog.UpsertInput{
		Barcode:         barcode,
		Name:            input.Name,
		Brand:           input.Brand,
		ImageURL:        input.ImageURL,
		Category:        input.Category,
		PotentialStores: []string{storeName},
	})
	if err != nil {
		return models.Product{}, err
	}

	item := models.SavedItem{
		Barcode:   product.Barcode,
		StoreName: storeName,
		SavedAt:   s.now(),
		Category:  product.Category,
	}
	if err := s.repo.SaveItem(ctx, &item); err != nil {
		return models.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save curated item")
	}
	s.bus.Publish(events.CollectionSavedItems, events.OpInsert)

	if input.Price != nil && input.Price.IsPositive() && s.recorder != nil {
		if err := s.recorder.Record(ctx, product.Barcode, storeName, *input.Price, s.now(), ""); err != nil {
			return models.Product{}, err
		}
	}
	return product, nil
}

// SearchExternal answers a store-scoped product search from the 24h cache
// when it can, and otherwise lets exactly one fetch per key go upstream.
// Upstream failure degrades to the stale cache entry and then to an empty
// result; the caller never sees the dependency error.
func (s *service) SearchExternal(ctx context.Context, storeName, query string) ([]types.ProductResult, error) {
	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	normalized := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(normalized)) < s.minQuery {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is too short")
	}

	now := s.now()
	cached, readErr := s.repo.FindCache(ctx, storeName, normalized)
	if readErr != nil && !errors.Is(readErr, gorm.ErrRecordNotFound) {
		s.warn(ctx, "search cache read failed", readErr)
		cached = nil
	} else if errors.Is(readErr, gorm.ErrRecordNotFound) {
		readErr = nil
	}

	if cached != nil && cached.Fresh(now, s.cacheTTL) {
		s.metrics.IncCacheHit()
		return cached.Products, nil
	}
	s.metrics.IncCacheMiss()

	acquired, err := s.flight.TryLock(ctx, storeName, normalized, searchLockTTL)
	if err != nil {
		// A broken coordinator must not break search; fetch anyway.
		s.warn(ctx, "search lock unavailable", err)
		acquired = true
	}
	if !acquired {
		if cached != nil {
			return cached.Products, nil
		}
		return []types.ProductResult{}, nil
	}
	defer func() {
		if err := s.flight.Unlock(ctx, storeName, normalized); err != nil {
			s.warn(ctx, "search lock release failed", err)
		}
	}()

	generation, genErr := s.flight.NextGeneration(ctx, storeName, normalized)
	if genErr != nil {
		s.warn(ctx, "search generation unavailable", genErr)
	}

	results, fetchErr := s.search.Search(ctx, normalized, storeName)
	if fetchErr != nil {
		s.metrics.IncExternalCall("error")
		if cached != nil {
			s.metrics.IncStaleFallback()
			s.warn(ctx, "external search failed, serving stale cache", fetchErr)
			return cached.Products, nil
		}
		s.warn(ctx, "external search failed with no cache to fall back on", multierr.Append(fetchErr, readErr))
		return []types.ProductResult{}, nil
	}
	s.metrics.IncExternalCall("success")

	if genErr == nil {
		current, err := s.flight.CurrentGeneration(ctx, storeName, normalized)
		if err == nil && current > generation {
			// A newer fetch for this key finished or is in flight; its result
			// owns the cache.
			return results, nil
		}
	}

	if err := s.repo.UpsertCache(ctx, storeName, normalized, results, now); err != nil {
		s.warn(ctx, "search cache write failed", err)
		return results, nil
	}
	s.bus.Publish(events.CollectionSearchResults, events.OpUpdate)
	return results, nil
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.log == nil {
		return
	}
	s.log.Error(ctx, msg, err)
}
