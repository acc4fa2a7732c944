package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/internal/classify"
	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
	"github.com/oliverbray/shopsmart-backend/pkg/types"
)

type fakeProductStore struct {
	rows   []models.Product
	nextID int64
}

func (f *fakeProductStore) FindLatestByBarcode(_ context.Context, barcode string) (*models.Product, error) {
	var found *models.Product
	for i := range f.rows {
		if f.rows[i].Barcode == barcode {
			if found == nil || f.rows[i].ID > found.ID {
				found = &f.rows[i]
			}
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	row := *found
	return &row, nil
}

func (f *fakeProductStore) FindByID(_ context.Context, id int64) (*models.Product, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductStore) Create(_ context.Context, product *models.Product) error {
	f.nextID++
	product.ID = f.nextID
	f.rows = append(f.rows, *product)
	return nil
}

func (f *fakeProductStore) Save(_ context.Context, product *models.Product) error {
	for i := range f.rows {
		if f.rows[i].ID == product.ID {
			f.rows[i] = *product
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeProductStore) All(_ context.Context) ([]models.Product, error) {
	out := make([]models.Product, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeProductStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeProductStore) CountDistinctBarcodes(_ context.Context) (int64, error) {
	seen := map[string]bool{}
	for _, row := range f.rows {
		seen[row.Barcode] = true
	}
	return int64(len(seen)), nil
}

func (f *fakeProductStore) Search(_ context.Context, _ string) ([]models.Product, error) {
	return f.All(context.Background())
}

func (f *fakeProductStore) DeleteByIDs(_ context.Context, ids []int64) error {
	doomed := map[int64]bool{}
	for _, id := range ids {
		doomed[id] = true
	}
	kept := f.rows[:0]
	for _, row := range f.rows {
		if !doomed[row.ID] {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

type fakeLookup struct {
	result types.ProductResult
	found  bool
	err    error
}

func (f *fakeLookup) LookupByBarcode(context.Context, string) (types.ProductResult, bool, error) {
	return f.result, f.found, f.err
}

type fakePriceRecorder struct {
	records []string
}

func (f *fakePriceRecorder) Record(_ context.Context, barcode, storeName string, _ decimal.Decimal, _ time.Time, _ string) error {
	f.records = append(f.records, barcode+"@"+storeName)
	return nil
}

type fakeListAppender struct {
	list  models.ShoppingList
	items []string
}

func (f *fakeListAppender) GetOrCreateDefault(context.Context) (models.ShoppingList, error) {
	if f.list.ID == 0 {
		f.list = models.ShoppingList{ID: 1, Name: "My First Shop", StoreName: "General"}
	}
	return f.list, nil
}

func (f *fakeListAppender) AddItem(_ context.Context, listID int64, barcode string, _ int) error {
	f.items = append(f.items, barcode)
	return nil
}

func newTestService(t *testing.T, store *fakeProductStore) *service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: &Repository{}})
	require.NoError(t, err)
	typed := svc.(*service)
	typed.repo = store
	return typed
}

func TestUpsertCreatesAndClassifies(t *testing.T) {
	store := &fakeProductStore{}
	svc := newTestService(t, store)

	product, err := svc.Upsert(context.Background(), UpsertInput{
		Barcode:         "5000112546415",
		Name:            "Semi Skimmed Milk",
		PotentialStores: []string{"Tesco"},
	})
	require.NoError(t, err)
	assert.Equal(t, classify.CategoryDairyEggs, product.Category)
	assert.Equal(t, []string{"Tesco"}, product.PotentialStores.Sorted())
	assert.Len(t, store.rows, 1)
}

func TestUpsertMergePreservesExistingAndUnionsStores(t *testing.T) {
	store := &fakeProductStore{}
	svc := newTestService(t, store)

	first, err := svc.Upsert(context.Background(), UpsertInput{
		Barcode:         "123",
		Name:            "Baked Beans",
		Brand:           "Heinz",
		PotentialStores: []string{"Tesco"},
	})
	require.NoError(t, err)

	second, err := svc.Upsert(context.Background(), UpsertInput{
		Barcode:         "123",
		Name:            "Beans In Tomato Sauce",
		ImageURL:        "http://img",
		PotentialStores: []string{"Asda", "tesco"},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "upserts for one barcode converge on one row")
	assert.Equal(t, "Baked Beans", second.Name, "existing non-empty name wins")
	assert.Equal(t, "http://img", second.Image, "blank fields are filled")
	assert.Equal(t, []string{"Asda", "Tesco"}, second.PotentialStores.Sorted())
	assert.Len(t, store.rows, 1)
}

func TestUpsertRequiresBarcode(t *testing.T) {
	svc := newTestService(t, &fakeProductStore{})
	_, err := svc.Upsert(context.Background(), UpsertInput{Name: "No Code"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeduplicateKeepsHighestIDAndUnionsStores(t *testing.T) {
	store := &fakeProductStore{
		rows: []models.Product{
			{ID: 1, Barcode: "123", Name: "Beans", PotentialStores: types.NewStoreSet("Tesco")},
			{ID: 2, Barcode: "456", Name: "Bread"},
			{ID: 3, Barcode: "123", Name: "Beans", PotentialStores: types.NewStoreSet("Asda")},
		},
		nextID: 3,
	}
	svc := newTestService(t, store)

	removed, err := svc.Deduplicate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	survivor, err := store.FindLatestByBarcode(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, int64(3), survivor.ID)
	assert.Equal(t, []string{"Asda", "Tesco"}, survivor.PotentialStores.Sorted())

	removed, err = svc.Deduplicate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed, "second pass is a no-op")
}

func TestMaybeDeduplicateSkipsWhenCountsMatch(t *testing.T) {
	store := &fakeProductStore{
		rows: []models.Product{
			{ID: 1, Barcode: "123"},
			{ID: 2, Barcode: "456"},
		},
		nextID: 2,
	}
	svc := newTestService(t, store)
	require.NoError(t, svc.MaybeDeduplicate(context.Background()))
	assert.Len(t, store.rows, 2)
}

func TestListReturnsDedupedView(t *testing.T) {
	store := &fakeProductStore{
		rows: []models.Product{
			{ID: 1, Barcode: "123", PotentialStores: types.NewStoreSet("Lidl")},
			{ID: 2, Barcode: "123", PotentialStores: types.NewStoreSet("Aldi")},
		},
		nextID: 2,
	}
	svc := newTestService(t, store)

	view, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.Equal(t, int64(2), view[0].ID)
	assert.Equal(t, []string{"Aldi", "Lidl"}, view[0].PotentialStores.Sorted())
	assert.Len(t, store.rows, 2, "the view never mutates storage")
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(t, &fakeProductStore{})
	_, err := svc.Get(context.Background(), "999")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSaveScanFullFlow(t *testing.T) {
	store := &fakeProductStore{}
	svc := newTestService(t, store)
	svc.lookup = &fakeLookup{
		found: true,
		result: types.ProductResult{
			Barcode:      "5000112546415",
			Name:         "Baked Beans",
			Brand:        "Heinz",
			CategoryHint: "canned",
			StoreHint:    "Tesco",
		},
	}
	prices := &fakePriceRecorder{}
	lists := &fakeListAppender{}
	svc.prices = prices
	svc.lists = lists

	price := decimal.RequireFromString("1.40")
	outcome, err := svc.SaveScan(context.Background(), ScanInput{
		Barcode:   "5000112546415",
		StoreName: "Tesco",
		Price:     &price,
	})
	require.NoError(t, err)

	assert.Equal(t, "Baked Beans", outcome.Product.Name)
	assert.Contains(t, outcome.Product.PotentialStores, "Tesco")
	assert.True(t, outcome.PriceRecorded)
	assert.Equal(t, []string{"5000112546415@Tesco"}, prices.records)
	assert.Equal(t, []string{"5000112546415"}, lists.items)
	assert.Equal(t, lists.list.ID, outcome.ListID)
}

func TestSaveScanUnknownBarcodeWithoutFallbackName(t *testing.T) {
	svc := newTestService(t, &fakeProductStore{})
	svc.lookup = &fakeLookup{found: false}
	svc.lists = &fakeListAppender{}

	_, err := svc.SaveScan(context.Background(), ScanInput{Barcode: "000", StoreName: "Tesco"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSaveScanManualFallbackUsesProvidedName(t *testing.T) {
	store := &fakeProductStore{}
	svc := newTestService(t, store)
	svc.lookup = &fakeLookup{found: false}
	svc.lists = &fakeListAppender{}

	outcome, err := svc.SaveScan(context.Background(), ScanInput{
		Barcode:   "000",
		StoreName: "Aldi",
		Name:      "Corner Shop Cola",
	})
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop Cola", outcome.Product.Name)
	assert.Equal(t, classify.CategoryDrinks, outcome.Product.Category)
}
