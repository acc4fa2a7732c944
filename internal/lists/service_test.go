package lists

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oliverbray/shopsmart-backend/pkg/db/models"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
)

type fakeListStore struct {
	lists      []models.ShoppingList
	items      []models.ShoppingListItem
	nextListID int64
	nextItemID int64
}

func (f *fakeListStore) CreateList(_ context.Context, _ *gorm.DB, list *models.ShoppingList) error {
	f.nextListID++
	list.ID = f.nextListID
	f.lists = append(f.lists, *list)
	return nil
}

func (f *fakeListStore) FindList(_ context.Context, _ *gorm.DB, id int64) (*models.ShoppingList, error) {
	for i := range f.lists {
		if f.lists[i].ID == id {
			row := f.lists[i]
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeListStore) SaveList(_ context.Context, list *models.ShoppingList) error {
	for i := range f.lists {
		if f.lists[i].ID == list.ID {
			f.lists[i] = *list
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeListStore) LatestActive(_ context.Context) (*models.ShoppingList, error) {
	var latest *models.ShoppingList
	for i := range f.lists {
		row := f.lists[i]
		if !row.Active() {
			continue
		}
		if latest == nil || row.CreatedAt.After(latest.CreatedAt) || (row.CreatedAt.Equal(latest.CreatedAt) && row.ID > latest.ID) {
			list := row
			latest = &list
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeListStore) RecentCompleted(_ context.Context, limit int) ([]models.ShoppingList, error) {
	var completed []models.ShoppingList
	for _, row := range f.lists {
		if !row.Active() {
			completed = append(completed, row)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].CompletedAt.After(*completed[j].CompletedAt)
	})
	if len(completed) > limit {
		completed = completed[:limit]
	}
	return completed, nil
}

func (f *fakeListStore) AddItem(_ context.Context, item *models.ShoppingListItem) error {
	for _, existing := range f.items {
		if existing.ListID == item.ListID && existing.Barcode == item.Barcode {
			return nil
		}
	}
	f.nextItemID++
	item.ID = f.nextItemID
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeListStore) InsertItems(_ context.Context, _ *gorm.DB, items []models.ShoppingListItem) error {
	for _, item := range items {
		f.nextItemID++
		item.ID = f.nextItemID
		f.items = append(f.items, item)
	}
	return nil
}

func (f *fakeListStore) ItemsForList(_ context.Context, _ *gorm.DB, listID int64) ([]models.ShoppingListItem, error) {
	var out []models.ShoppingListItem
	for _, item := range f.items {
		if item.ListID == listID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeListStore) FindItem(_ context.Context, id int64) (*models.ShoppingListItem, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			row := f.items[i]
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeListStore) SaveItem(_ context.Context, item *models.ShoppingListItem) error {
	for i := range f.items {
		if f.items[i].ID == item.ID {
			f.items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeListStore) DeleteItem(_ context.Context, id int64) error {
	kept := f.items[:0]
	for _, item := range f.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeListStore) DeleteListItems(_ context.Context, _ *gorm.DB, listID int64) error {
	kept := f.items[:0]
	for _, item := range f.items {
		if item.ListID != listID {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeListStore) DeleteList(_ context.Context, _ *gorm.DB, id int64) error {
	kept := f.lists[:0]
	for _, list := range f.lists {
		if list.ID != id {
			kept = append(kept, list)
		}
	}
	f.lists = kept
	return nil
}

type fakeTransactor struct{}

func (fakeTransactor) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeProductResolver struct {
	products map[string]models.Product
}

func (f *fakeProductResolver) FindLatestByBarcode(_ context.Context, barcode string) (*models.Product, error) {
	if product, ok := f.products[barcode]; ok {
		return &product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakePriceSource struct {
	entries map[string]models.PriceEntry // key barcode+"@"+store
}

func (f *fakePriceSource) LatestAtStore(_ context.Context, barcode, storeName string) (models.PriceEntry, error) {
	if entry, ok := f.entries[barcode+"@"+storeName]; ok {
		return entry, nil
	}
	return models.PriceEntry{}, pkgerrors.New(pkgerrors.CodeNotFound, "no price recorded at store")
}

func newTestService(store *fakeListStore) *service {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	return &service{
		repo:     store,
		tx:       fakeTransactor{},
		products: &fakeProductResolver{products: map[string]models.Product{}},
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		},
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := newTestService(&fakeListStore{})
	_, err := svc.Create(context.Background(), CreateListInput{Name: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateDefaultsStoreName(t *testing.T) {
	svc := newTestService(&fakeListStore{})
	list, err := svc.Create(context.Background(), CreateListInput{Name: "Weekly Shop"})
	require.NoError(t, err)
	assert.Equal(t, DefaultListStore, list.StoreName)
	assert.True(t, list.Active())
}

func TestAddItemDuplicateIsNoOp(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	list, err := svc.Create(context.Background(), CreateListInput{Name: "Weekly Shop"})
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(context.Background(), list.ID, "123", 1))
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "123", 4))

	items, err := store.ItemsForList(context.Background(), nil, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Qty, "the duplicate add changes nothing")
}

func TestAddItemUnknownListIsNotFound(t *testing.T) {
	svc := newTestService(&fakeListStore{})
	err := svc.AddItem(context.Background(), 99, "123", 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestToggleItemFlipsDone(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	list, _ := svc.Create(context.Background(), CreateListInput{Name: "Weekly Shop"})
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "123", 1))

	item, err := svc.ToggleItem(context.Background(), store.items[0].ID)
	require.NoError(t, err)
	assert.True(t, item.Done)

	item, err = svc.ToggleItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.False(t, item.Done)
}

func TestCompleteIsIdempotent(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	list, _ := svc.Create(context.Background(), CreateListInput{Name: "Weekly Shop"})

	require.NoError(t, svc.Complete(context.Background(), list.ID))
	first := *store.lists[0].CompletedAt

	require.NoError(t, svc.Complete(context.Background(), list.ID))
	assert.Equal(t, first, *store.lists[0].CompletedAt, "second completion keeps the timestamp")
}

func TestReuseClonesItemsWithDoneReset(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	total := decimal.RequireFromString("12.40")
	list, _ := svc.Create(context.Background(), CreateListInput{Name: "Big Shop", StoreName: "Tesco", EstimatedTotal: &total})
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "123", 2))
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "456", 1))
	_, err := svc.ToggleItem(context.Background(), store.items[0].ID)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(context.Background(), list.ID))

	clone, err := svc.Reuse(context.Background(), list.ID)
	require.NoError(t, err)
	require.NotNil(t, clone)
	assert.NotEqual(t, list.ID, clone.ID)
	assert.Equal(t, "Big Shop", clone.Name)
	assert.Equal(t, "Tesco", clone.StoreName)
	require.NotNil(t, clone.EstimatedTotal)
	assert.True(t, clone.EstimatedTotal.Equal(total))
	assert.True(t, clone.Active())

	items, _ := store.ItemsForList(context.Background(), nil, clone.ID)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.False(t, item.Done, "clones start unchecked")
	}
	assert.Equal(t, 2, items[0].Qty, "quantities carry over")
}

func TestReuseVanishedSourceIsSilentNoOp(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)

	clone, err := svc.Reuse(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, clone)
	assert.Empty(t, store.lists)
}

func TestDeleteRemovesListAndItems(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	list, _ := svc.Create(context.Background(), CreateListInput{Name: "Weekly Shop"})
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "123", 1))
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "456", 1))

	require.NoError(t, svc.Delete(context.Background(), list.ID))
	assert.Empty(t, store.lists)
	assert.Empty(t, store.items)
}

func TestShareTextFormat(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	svc.products = &fakeProductResolver{products: map[string]models.Product{
		"123": {Barcode: "123", Name: "Baked Beans"},
		"456": {Barcode: "456", Name: "Wholemeal Bread"},
	}}

	total := decimal.RequireFromString("3.75")
	list, _ := svc.Create(context.Background(), CreateListInput{Name: "Weekly Shop", EstimatedTotal: &total})
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "123", 2))
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "456", 1))
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "789", 1))

	text, err := svc.ShareText(context.Background(), list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Weekly Shop\n\nBaked Beans (x2)\nWholemeal Bread\nUnknown item\n\nEstimated Total: £3.75", text)
}

func TestShareTextOmitsTotalWhenUnset(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	svc.products = &fakeProductResolver{products: map[string]models.Product{
		"123": {Barcode: "123", Name: "Baked Beans"},
	}}
	list, _ := svc.Create(context.Background(), CreateListInput{Name: "Quick Run"})
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "123", 1))

	text, err := svc.ShareText(context.Background(), list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quick Run\n\nBaked Beans", text)
}

func TestLatestActiveHydratesWithPlaceholders(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	svc.products = &fakeProductResolver{products: map[string]models.Product{
		"123": {Barcode: "123", Name: "Baked Beans", Category: "Pantry"},
	}}
	list, _ := svc.Create(context.Background(), CreateListInput{Name: "Weekly Shop"})
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "123", 1))
	require.NoError(t, svc.AddItem(context.Background(), list.ID, "999", 1))

	view, err := svc.LatestActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, list.ID, view.List.ID)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Baked Beans", view.Items[0].ProductName)
	assert.Equal(t, UnknownProductName, view.Items[1].ProductName)
}

func TestLatestActiveNoneIsNotFound(t *testing.T) {
	svc := newTestService(&fakeListStore{})
	_, err := svc.LatestActive(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRecentCompletedDefaultsLimit(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	for i := 0; i < 8; i++ {
		list, err := svc.Create(context.Background(), CreateListInput{Name: "Shop"})
		require.NoError(t, err)
		require.NoError(t, svc.Complete(context.Background(), list.ID))
	}

	rows, err := svc.RecentCompleted(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, defaultRecentLimit)
	assert.True(t, rows[0].CompletedAt.After(*rows[len(rows)-1].CompletedAt), "newest completion first")
}

func TestGetOrCreateDefaultCreatesFirstRunList(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)

	list, err := svc.GetOrCreateDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultListName, list.Name)
	assert.Equal(t, DefaultListStore, list.StoreName)

	again, err := svc.GetOrCreateDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, list.ID, again.ID, "second call reuses the active list")
}

func TestGenerateFromSelectionSnapshotsTotal(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	svc.prices = &fakePriceSource{entries: map[string]models.PriceEntry{
		"123@Tesco": {Barcode: "123", Store: "Tesco", Price: decimal.RequireFromString("1.40")},
		"456@Tesco": {Barcode: "456", Store: "Tesco", Price: decimal.RequireFromString("2.10")},
	}}

	list, err := svc.GenerateFromSelection(context.Background(), "Tesco", []string{"123", "456", "789", "123"})
	require.NoError(t, err)
	assert.Equal(t, "Tesco Shop", list.Name)
	assert.Equal(t, "Tesco", list.StoreName)
	require.NotNil(t, list.EstimatedTotal)
	assert.True(t, list.EstimatedTotal.Equal(decimal.RequireFromString("3.50")), "unpriced barcodes are skipped")

	items, _ := store.ItemsForList(context.Background(), nil, list.ID)
	assert.Len(t, items, 3, "duplicate selections collapse")
}

func TestGenerateFromSelectionRequiresBarcodes(t *testing.T) {
	svc := newTestService(&fakeListStore{})
	_, err := svc.GenerateFromSelection(context.Background(), "Tesco", nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListLifecycleCreateToggleCompleteReuse(t *testing.T) {
	store := &fakeListStore{}
	svc := newTestService(store)
	ctx := context.Background()

	list, err := svc.Create(ctx, CreateListInput{Name: "Sunday Roast"})
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(ctx, list.ID, "5000112546415", 2))

	_, err = svc.ToggleItem(ctx, store.items[0].ID)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, list.ID))

	clone, err := svc.Reuse(ctx, list.ID)
	require.NoError(t, err)
	require.NotNil(t, clone)
	assert.Equal(t, "Sunday Roast", clone.Name)

	items, err := store.ItemsForList(ctx, nil, clone.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "5000112546415", items[0].Barcode)
	assert.Equal(t, 2, items[0].Qty)
	assert.False(t, items[0].Done)
}
