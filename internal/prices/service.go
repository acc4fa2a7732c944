package prices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/events"
)

// priceStore is the persistence surface the service needs. *Repository
// satisfies it; tests substitute fakes.
type priceStore interface {
	Insert(ctx context.Context, entry *models.PriceEntry) error
	Best(ctx context.Context, barcode string) (*models.PriceEntry, error)
	LatestAtStore(ctx context.Context, barcode, storeName string) (*models.PriceEntry, error)
	History(ctx context.Context, barcode string) ([]models.PriceEntry, error)
}

// ServiceParams groups dependencies for the price ledger service.
type ServiceParams struct {
	Repo *Repository
	Bus  *events.Bus
}

// Service exposes the append-only price ledger.
type Service interface {
	Record(ctx context.Context, barcode, storeName string, price decimal.Decimal, date time.Time, location string) error
	Best(ctx context.Context, barcode string) (models.PriceEntry, error)
	LatestAtStore(ctx context.Context, barcode, storeName string) (models.PriceEntry, error)
	History(ctx context.Context, barcode string) ([]models.PriceEntry, error)
}

type service struct {
	repo priceStore
	bus  *events.Bus
}

// NewService builds a price ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price repo is required")
	}
	return &service{repo: params.Repo, bus: params.Bus}, nil
}

// Record appends a sighting. Entries are never updated or deleted, so price
// history survives later corrections as separate rows.
func (s *service) Record(ctx context.Context, barcode, storeName string, price decimal.Decimal, date time.Time, location string) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	entry := models.PriceEntry{
		Barcode:  barcode,
		Store:    storeName,
		Price:    price,
		Date:     date,
		Location: strings.TrimSpace(location),
	}
	if err := s.repo.Insert(ctx, &entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record price")
	}
	s.bus.Publish(events.CollectionPrices, events.OpInsert)
	return nil
}

// Best returns the cheapest sighting across all stores, breaking price ties
// by the earliest date.
func (s *service) Best(ctx context.Context, barcode string) (models.PriceEntry, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return models.PriceEntry{}, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	entry, err := s.repo.Best(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PriceEntry{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no price recorded")
		}
		return models.PriceEntry{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load best price")
	}
	return *entry, nil
}

// LatestAtStore returns the most recent sighting for the pair.
func (s *service) LatestAtStore(ctx context.Context, barcode, storeName string) (models.PriceEntry, error) {
	barcode = strings.TrimSpace(barcode)
	storeName = strings.TrimSpace(storeName)
	if barcode == "" || storeName == "" {
		return models.PriceEntry{}, pkgerrors.New(pkgerrors.CodeValidation, "barcode and store name are required")
	}
	entry, err := s.repo.LatestAtStore(ctx, barcode, storeName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PriceEntry{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no price recorded at store")
		}
		return models.PriceEntry{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest price")
	}
	return *entry, nil
}

// History returns all sightings for a barcode, cheapest first.
func (s *service) History(ctx context.Context, barcode string) ([]models.PriceEntry, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	entries, err := s.repo.History(ctx, barcode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price history")
	}
	return entries, nil
}
