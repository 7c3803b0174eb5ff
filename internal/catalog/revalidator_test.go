package catalog

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type fakeStore struct {
	items map[string]models.MenuItem
	calls atomic.Int32
	err   error
}

func (f *fakeStore) GetItem(ctx context.Context, tenantID, itemID string) (*models.MenuItem, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[tenantID+"/"+itemID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func newStore() *fakeStore {
	return &fakeStore{items: map[string]models.MenuItem{
		"t1/burger": {
			ID: "burger", TenantID: "t1", Name: "Burger", Price: 1000, Available: true,
			Options:  []models.PriceChoice{{Name: "cheese", PriceDelta: 150}},
			Variants: []models.PriceChoice{{Name: "double", PriceDelta: 500}},
		},
		"t1/soup":  {ID: "soup", TenantID: "t1", Name: "Soup", Price: 650, Available: true},
		"t1/gone":  {ID: "gone", TenantID: "t1", Name: "Gone", Price: 100, Available: false},
		"t2/steak": {ID: "steak", TenantID: "t2", Name: "Steak", Price: 5000, Available: true},
	}}
}

func kindCode(t *testing.T, err error) (apperr.Kind, string) {
	t.Helper()
	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	return e.Kind, e.Code
}

func TestRevalidateIgnoresClaimedPrice(t *testing.T) {
	r := NewRevalidator(newStore(), 4)

	for _, claimed := range []int64{1, 0, 999999} {
		res, err := r.Revalidate(context.Background(), "t1", []models.CartLine{
			{CatalogItemID: "burger", ClaimedName: "Free burger", ClaimedUnitPrice: claimed, Quantity: 2},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Subtotal != 2000 {
			t.Fatalf("claimed=%d: subtotal = %d, want 2000", claimed, res.Subtotal)
		}
		if res.Lines[0].Name != "Burger" || res.Lines[0].UnitPrice != 1000 {
			t.Fatalf("line not rebuilt from catalog: %+v", res.Lines[0])
		}
	}
}

func TestRevalidateOptionAndVariantDeltas(t *testing.T) {
	r := NewRevalidator(newStore(), 4)

	res, err := r.Revalidate(context.Background(), "t1", []models.CartLine{
		{CatalogItemID: "burger", Quantity: 3, SelectedOption: "cheese", SelectedVariant: "double"},
		{CatalogItemID: "soup", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Lines[0].UnitPrice != 1650 || res.Lines[0].LineTotal != 4950 {
		t.Fatalf("burger line = %+v", res.Lines[0])
	}
	if res.Subtotal != 5600 {
		t.Fatalf("subtotal = %d, want 5600", res.Subtotal)
	}

	_, err = r.Revalidate(context.Background(), "t1", []models.CartLine{
		{CatalogItemID: "burger", Quantity: 1, SelectedOption: "truffle"},
	})
	if k, _ := kindCode(t, err); k != apperr.KindInvalidInput {
		t.Fatalf("kind = %s, want InvalidInput", k)
	}
}

func TestRevalidateRejections(t *testing.T) {
	tooMany := make([]models.CartLine, MaxLines+1)
	for i := range tooMany {
		tooMany[i] = models.CartLine{CatalogItemID: "soup", Quantity: 1}
	}

	tests := []struct {
		name     string
		tenant   string
		cart     []models.CartLine
		wantKind apperr.Kind
		wantCode string
		lookups  bool
	}{
		{"empty cart", "t1", nil, apperr.KindInvalidInput, apperr.CodeEmptyCart, false},
		{"too many lines", "t1", tooMany, apperr.KindInvalidInput, apperr.CodeTooManyLines, false},
		{"too many lines with a missing id", "t1", append(tooMany, models.CartLine{Quantity: 1}), apperr.KindInvalidInput, apperr.CodeTooManyLines, false},
		{"missing item id", "t1", []models.CartLine{{CatalogItemID: " ", Quantity: 1}}, apperr.KindInvalidInput, apperr.CodeInvalidInput, false},
		{"zero quantity", "t1", []models.CartLine{{CatalogItemID: "soup", Quantity: 0}}, apperr.KindInvalidInput, apperr.CodeInvalidQuantity, false},
		{"quantity over limit", "t1", []models.CartLine{{CatalogItemID: "soup", Quantity: 101}}, apperr.KindInvalidInput, apperr.CodeInvalidQuantity, false},
		{"unknown item", "t1", []models.CartLine{{CatalogItemID: "nope", Quantity: 1}}, apperr.KindItemNotFound, apperr.CodeItemNotFound, true},
		{"unavailable item", "t1", []models.CartLine{{CatalogItemID: "gone", Quantity: 1}}, apperr.KindItemNotFound, apperr.CodeItemNotFound, true},
		{"other tenant's item", "t1", []models.CartLine{{CatalogItemID: "steak", Quantity: 1}}, apperr.KindItemNotFound, apperr.CodeItemNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore()
			r := NewRevalidator(store, 4)
			_, err := r.Revalidate(context.Background(), tt.tenant, tt.cart)
			kind, code := kindCode(t, err)
			if kind != tt.wantKind || code != tt.wantCode {
				t.Fatalf("got (%s,%s), want (%s,%s)", kind, code, tt.wantKind, tt.wantCode)
			}
			if !tt.lookups && store.calls.Load() != 0 {
				t.Fatalf("catalog was queried %d times before cheap validation failed", store.calls.Load())
			}
		})
	}
}

func TestRevalidateStoreFailureIsNotClassified(t *testing.T) {
	store := newStore()
	store.err = errors.New("connection refused")
	r := NewRevalidator(store, 4)

	_, err := r.Revalidate(context.Background(), "t1", []models.CartLine{{CatalogItemID: "soup", Quantity: 1}})
	if err == nil || apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("expected unclassified error, got %v", err)
	}
}

func TestRevalidateIsIdempotent(t *testing.T) {
	r := NewRevalidator(newStore(), 2)
	cart := []models.CartLine{
		{CatalogItemID: "soup", Quantity: 2},
		{CatalogItemID: "burger", Quantity: 1, SelectedOption: "cheese"},
		{CatalogItemID: "soup", Quantity: 5, ClaimedUnitPrice: 3},
	}

	first, err := r.Revalidate(context.Background(), "t1", cart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Revalidate(context.Background(), "t1", cart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("revalidation not idempotent:\n%+v\n%+v", first, second)
	}
}
