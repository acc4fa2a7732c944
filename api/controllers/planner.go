package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oliverbray/shopsmart-backend/api/responses"
	"github.com/oliverbray/shopsmart-backend/api/validators"
	"github.com/oliverbray/shopsmart-backend/internal/catalog"
	"github.com/oliverbray/shopsmart-backend/internal/planner"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/logger"
)

func storeName(r *http.Request) string {
	return chi.URLParam(r, "store")
}

// SavedItemsList returns a store's curated items with product and price
// details.
func SavedItemsList(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planner service unavailable"))
			return
		}

		views, err := svc.SavedItems(ctx, storeName(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

// SavedItemCurate folds a candidate into the catalog and saves it for the
// store.
func SavedItemCurate(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planner service unavailable"))
			return
		}

		var payload catalog.UpsertInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.Curate(ctx, storeName(r), payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.ToDTO(product))
	}
}

// SavedItemManual creates a hand-entered product and saves it for the store.
func SavedItemManual(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planner service unavailable"))
			return
		}

		var payload planner.ManualItemInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.AddManual(ctx, storeName(r), payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.ToDTO(product))
	}
}

// SavedItemUncurate removes the saved entry for a barcode at a store.
func SavedItemUncurate(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planner service unavailable"))
			return
		}

		if err := svc.Uncurate(ctx, storeName(r), chi.URLParam(r, "barcode")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// StoreSearch answers a store-scoped product search, cache first.
func StoreSearch(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planner service unavailable"))
			return
		}

		results, err := svc.SearchExternal(ctx, storeName(r), validators.QueryString(r, "q"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}
