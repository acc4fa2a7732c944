package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/oliverbray/shopsmart-backend/api/responses"
	"github.com/oliverbray/shopsmart-backend/api/validators"
	"github.com/oliverbray/shopsmart-backend/internal/lists"
	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/logger"
)

type addListItemPayload struct {
	Barcode string `json:"barcode" validate:"required"`
	Qty     int    `json:"qty"`
}

type generateListPayload struct {
	StoreName string   `json:"store_name" validate:"required"`
	Barcodes  []string `json:"barcodes" validate:"required,min=1"`
}

type shoppingListDTO struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	StoreName      string           `json:"store_name"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	EstimatedTotal *decimal.Decimal `json:"estimated_total,omitempty"`
}

func toListDTO(list models.ShoppingList) shoppingListDTO {
	return shoppingListDTO{
		ID:             list.ID,
		Name:           list.Name,
		StoreName:      list.StoreName,
		CreatedAt:      list.CreatedAt,
		CompletedAt:    list.CompletedAt,
		EstimatedTotal: list.EstimatedTotal,
	}
}

func listID(r *http.Request) (int64, error) {
	return validators.PathInt64(chi.URLParam(r, "listID"), "list id")
}

// ListCreate opens a new active list.
func ListCreate(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		var payload lists.CreateListInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.Create(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toListDTO(list))
	}
}

// ListLatestActive returns the current list with hydrated items.
func ListLatestActive(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		view, err := svc.LatestActive(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ListRecentCompleted returns the most recently completed lists.
func ListRecentCompleted(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		limit, err := validators.QueryInt(r, "limit", 0)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.RecentCompleted(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]shoppingListDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, toListDTO(row))
		}
		responses.WriteSuccess(w, out)
	}
}

// ListDefault returns the active list, creating the first-run default when
// none exists.
func ListDefault(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		list, err := svc.GetOrCreateDefault(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toListDTO(list))
	}
}

// ListGenerate builds a store-planning list from selected barcodes.
func ListGenerate(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		var payload generateListPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.GenerateFromSelection(ctx, payload.StoreName, payload.Barcodes)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toListDTO(list))
	}
}

// ListAddItem puts a barcode on a list.
func ListAddItem(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		id, err := listID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addListItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.AddItem(ctx, id, payload.Barcode, payload.Qty); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "added"})
	}
}

// ListToggleItem flips an item's done flag.
func ListToggleItem(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		itemID, err := validators.PathInt64(chi.URLParam(r, "itemID"), "item id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.ToggleItem(ctx, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ListRemoveItem deletes one item row.
func ListRemoveItem(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		itemID, err := validators.PathInt64(chi.URLParam(r, "itemID"), "item id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.RemoveItem(ctx, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// ListComplete stamps the list done.
func ListComplete(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		id, err := listID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Complete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "completed"})
	}
}

// ListReuse clones a past list into a fresh active one.
func ListReuse(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		id, err := listID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		clone, err := svc.Reuse(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if clone == nil {
			responses.WriteSuccess(w, map[string]string{"status": "source missing"})
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toListDTO(*clone))
	}
}

// ListDelete removes a list and its items.
func ListDelete(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		id, err := listID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListShareText renders the plain-text share block for a list.
func ListShareText(svc lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "list service unavailable"))
			return
		}

		id, err := listID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		text, err := svc.ShareText(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"text": text})
	}
}
