package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/oliverbray/shopsmart-backend/api/responses"
	"github.com/oliverbray/shopsmart-backend/api/validators"
	"github.com/oliverbray/shopsmart-backend/internal/prices"
	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/logger"
)

type recordPricePayload struct {
	Barcode   string          `json:"barcode" validate:"required"`
	StoreName string          `json:"store_name" validate:"required"`
	Price     decimal.Decimal `json:"price"`
	Date      *time.Time      `json:"date"`
	Location  string          `json:"location"`
}

type priceEntryDTO struct {
	ID       int64           `json:"id"`
	Barcode  string          `json:"barcode"`
	Store    string          `json:"store"`
	Price    decimal.Decimal `json:"price"`
	Date     time.Time       `json:"date"`
	Location string          `json:"location,omitempty"`
}

func toPriceDTO(entry models.PriceEntry) priceEntryDTO {
	return priceEntryDTO{
		ID:       entry.ID,
		Barcode:  entry.Barcode,
		Store:    entry.Store,
		Price:    entry.Price,
		Date:     entry.Date,
		Location: entry.Location,
	}
}

// PriceRecord appends a sighting to the ledger.
func PriceRecord(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}

		var payload recordPricePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		date := time.Time{}
		if payload.Date != nil {
			date = *payload.Date
		}
		if err := svc.Record(ctx, payload.Barcode, payload.StoreName, payload.Price, date, payload.Location); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "recorded"})
	}
}

// PriceHistory returns every sighting for a barcode, cheapest first.
func PriceHistory(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}

		entries, err := svc.History(ctx, chi.URLParam(r, "barcode"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]priceEntryDTO, 0, len(entries))
		for _, entry := range entries {
			out = append(out, toPriceDTO(entry))
		}
		responses.WriteSuccess(w, out)
	}
}

// PriceBest returns the cheapest sighting across all stores.
func PriceBest(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}

		entry, err := svc.Best(ctx, chi.URLParam(r, "barcode"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPriceDTO(entry))
	}
}

// PriceLatest returns the most recent sighting at one store.
func PriceLatest(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}

		storeName := validators.QueryString(r, "store")
		entry, err := svc.LatestAtStore(ctx, chi.URLParam(r, "barcode"), storeName)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPriceDTO(entry))
	}
}
