package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/oliverbray/shopsmart-backend/internal/catalog"
	"github.com/oliverbray/shopsmart-backend/internal/lists"
	"github.com/oliverbray/shopsmart-backend/internal/planner"
	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	"github.com/oliverbray/shopsmart-backend/pkg/logger"
	"github.com/oliverbray/shopsmart-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct {
	products []models.Product
}

func (s stubCatalogService) Upsert(ctx context.Context, input catalog.UpsertInput) (models.Product, error) {
	panic("unimplemented")
}

func (s stubCatalogService) Get(ctx context.Context, barcode string) (models.Product, error) {
	panic("unimplemented")
}

func (s stubCatalogService) List(ctx context.Context) ([]models.Product, error) {
	return s.products, nil
}

func (s stubCatalogService) Search(ctx context.Context, query string) ([]models.Product, error) {
	return s.products, nil
}

func (s stubCatalogService) Deduplicate(ctx context.Context) (int, error) {
	panic("unimplemented")
}

func (s stubCatalogService) MaybeDeduplicate(ctx context.Context) error {
	return nil
}

func (s stubCatalogService) SaveScan(ctx context.Context, input catalog.ScanInput) (catalog.ScanResult, error) {
	panic("unimplemented")
}

type stubPriceService struct {
	recorded int
}

func (s *stubPriceService) Record(ctx context.Context, barcode, storeName string, price decimal.Decimal, date time.Time, location string) error {
	s.recorded++
	return nil
}

func (s *stubPriceService) Best(ctx context.Context, barcode string) (models.PriceEntry, error) {
	panic("unimplemented")
}

func (s *stubPriceService) LatestAtStore(ctx context.Context, barcode, storeName string) (models.PriceEntry, error) {
	panic("unimplemented")
}

func (s *stubPriceService) History(ctx context.Context, barcode string) ([]models.PriceEntry, error) {
	return nil, nil
}

type stubListService struct{}

func (stubListService) Create(ctx context.Context, input lists.CreateListInput) (models.ShoppingList, error) {
	return models.ShoppingList{ID: 1, Name: input.Name}, nil
}

func (stubListService) AddItem(ctx context.Context, listID int64, barcode string, qty int) error {
	return nil
}

func (stubListService) ToggleItem(ctx context.Context, itemID int64) (models.ShoppingListItem, error) {
	panic("unimplemented")
}

func (stubListService) RemoveItem(ctx context.Context, itemID int64) error {
	panic("unimplemented")
}

func (stubListService) Complete(ctx context.Context, listID int64) error {
	panic("unimplemented")
}

func (stubListService) Reuse(ctx context.Context, listID int64) (*models.ShoppingList, error) {
	panic("unimplemented")
}

func (stubListService) Delete(ctx context.Context, listID int64) error {
	panic("unimplemented")
}

func (stubListService) ShareText(ctx context.Context, listID int64) (string, error) {
	panic("unimplemented")
}

func (stubListService) LatestActive(ctx context.Context) (lists.ListView, error) {
	return lists.ListView{}, nil
}

func (stubListService) RecentCompleted(ctx context.Context, limit int) ([]models.ShoppingList, error) {
	return nil, nil
}

func (stubListService) GetOrCreateDefault(ctx context.Context) (models.ShoppingList, error) {
	return models.ShoppingList{ID: 1, Name: lists.DefaultListName}, nil
}

func (stubListService) GenerateFromSelection(ctx context.Context, storeName string, barcodes []string) (models.ShoppingList, error) {
	panic("unimplemented")
}

type stubPlannerService struct{}

func (stubPlannerService) SavedItems(ctx context.Context, storeName string) ([]planner.SavedItemView, error) {
	return nil, nil
}

func (stubPlannerService) Curate(ctx context.Context, storeName string, candidate catalog.UpsertInput) (models.Product, error) {
	panic("unimplemented")
}

func (stubPlannerService) Uncurate(ctx context.Context, storeName, barcode string) error {
	panic("unimplemented")
}

func (stubPlannerService) AddManual(ctx context.Context, storeName string, input planner.ManualItemInput) (models.Product, error) {
	panic("unimplemented")
}

func (stubPlannerService) SearchExternal(ctx context.Context, storeName, query string) ([]types.ProductResult, error) {
	return []types.ProductResult{}, nil
}

func newTestRouter(priceSvc *stubPriceService) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Logger:   logg,
		DB:       stubPinger{},
		Registry: prometheus.NewRegistry(),
		Catalog: stubCatalogService{products: []models.Product{
			{ID: 1, Barcode: "5000112546415", Name: "Baked Beans"},
		}},
		Prices:  priceSvc,
		Lists:   stubListService{},
		Planner: stubPlannerService{},
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&stubPriceService{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestCatalogListReturnsEnvelope(t *testing.T) {
	router := newTestRouter(&stubPriceService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	rows, ok := body.Data.([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("expected one product, got %v", body.Data)
	}
}

func TestPriceRecordRejectsBadJSON(t *testing.T) {
	priceSvc := &stubPriceService{}
	router := newTestRouter(priceSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
	if priceSvc.recorded != 0 {
		t.Fatalf("expected no recording for invalid payload")
	}
}

func TestPriceRecordAcceptsGoodJSON(t *testing.T) {
	priceSvc := &stubPriceService{}
	router := newTestRouter(priceSvc)

	body := `{"barcode":"5000112546415","store_name":"Tesco","price":"1.40"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if priceSvc.recorded != 1 {
		t.Fatalf("expected one recorded price, got %d", priceSvc.recorded)
	}
}

func TestListAddItemRejectsBadListID(t *testing.T) {
	router := newTestRouter(&stubPriceService{})

	body := `{"barcode":"5000112546415","qty":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lists/abc/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad list id got %d", resp.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(&stubPriceService{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}
