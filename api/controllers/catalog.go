package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oliverbray/shopsmart-backend/api/responses"
	"github.com/oliverbray/shopsmart-backend/api/validators"
	"github.com/oliverbray/shopsmart-backend/internal/catalog"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/logger"
)

// CatalogList returns the deduplicated catalog, optionally filtered by the
// q parameter.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		query := validators.QueryString(r, "q")
		products, err := svc.Search(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]catalog.ProductDTO, 0, len(products))
		for _, product := range products {
			out = append(out, catalog.ToDTO(product))
		}
		responses.WriteSuccess(w, out)
	}
}

// CatalogGet returns the canonical product for a barcode.
func CatalogGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		product, err := svc.Get(ctx, chi.URLParam(r, "barcode"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.ToDTO(product))
	}
}

// CatalogUpsert inserts or merges a candidate product.
func CatalogUpsert(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload catalog.UpsertInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.Upsert(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.ToDTO(product))
	}
}

// CatalogDeduplicate runs the duplicate-row consistency pass.
func CatalogDeduplicate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		removed, err := svc.Deduplicate(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"removed": removed})
	}
}

// CatalogScan runs the scanner flow for a decoded barcode.
func CatalogScan(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload catalog.ScanInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		outcome, err := svc.SaveScan(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}
