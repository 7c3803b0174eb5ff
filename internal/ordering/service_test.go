package ordering

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/coupon"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/fulfillment"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type menu map[string]models.MenuItem

func (m menu) GetItem(ctx context.Context, tenantID, itemID string) (*models.MenuItem, error) {
	item, ok := m[itemID]
	if !ok || item.TenantID != tenantID {
		return nil, nil
	}
	return &item, nil
}

type couponStore struct {
	coupons    map[string]models.Coupon
	increments int
}

func (s *couponStore) GetByCode(ctx context.Context, tenantID, code string) (*models.Coupon, error) {
	c, ok := s.coupons[code]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	return &c, nil
}

func (s *couponStore) IncrementUsage(ctx context.Context, couponID string) error {
	s.increments++
	return nil
}

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	seq    int
	err    error
}

func (m *memOrders) Create(ctx context.Context, tenantID string, lines []models.TrustedLine, p models.PricingBreakdown, meta models.OrderMetadata) (models.OrderReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.OrderReceipt{}, m.err
	}
	m.seq++
	o := &models.Order{
		ID:          fmt.Sprintf("order-%d", m.seq),
		TenantID:    tenantID,
		OrderNumber: fmt.Sprintf("ORD-%06d", m.seq),
		Status:      models.OrderStatusPending,
		Pricing:     p,
		Metadata:    meta,
	}
	for i, l := range lines {
		o.Items = append(o.Items, models.OrderItem{OrderID: o.ID, Position: i + 1, TrustedLine: l})
	}
	m.orders[o.ID] = o
	return models.OrderReceipt{OrderID: o.ID, OrderNumber: o.OrderNumber, Total: p.Total}, nil
}

func (m *memOrders) GetOrder(ctx context.Context, tenantID, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

type recordedEffects struct {
	events []models.OrderPlacedEvent
	err    error
	then   func(ev models.OrderPlacedEvent)
}

func (r *recordedEffects) OrderPlaced(ctx context.Context, ev models.OrderPlacedEvent) error {
	r.events = append(r.events, ev)
	if r.then != nil {
		r.then(ev)
	}
	return r.err
}

var tenant = models.Tenant{
	ID:     "t1",
	Slug:   "chez-test",
	Active: true,
	Tax: models.TaxConfig{
		EnableTax:           true,
		TaxRate:             decimal.NewFromInt(18),
		EnableServiceCharge: true,
		ServiceRate:         decimal.NewFromInt(10),
	},
}

type fixture struct {
	svc     *Service
	coupons *couponStore
	orders  *memOrders
	effects *recordedEffects
}

func newFixture() *fixture {
	items := menu{
		"A":     {ID: "A", TenantID: "t1", Name: "Item A", Price: 1000, Available: true},
		"B":     {ID: "B", TenantID: "t1", Name: "Item B", Price: 5000, Available: true},
		"other": {ID: "other", TenantID: "t2", Name: "Other", Price: 10, Available: true},
	}
	maxDiscount := int64(500)
	minOrder := int64(5000)
	maxUses := 10
	cs := &couponStore{coupons: map[string]models.Coupon{
		"SAVE10":   {ID: "c-save10", TenantID: "t1", Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: 10, MaxDiscountAmount: &maxDiscount, IsActive: true},
		"BIGORDER": {ID: "c-big", TenantID: "t1", Code: "BIGORDER", DiscountType: models.DiscountFixed, DiscountValue: 1000, MinOrderAmount: &minOrder, IsActive: true},
		"USEDUP":   {ID: "c-used", TenantID: "t1", Code: "USEDUP", DiscountType: models.DiscountFixed, DiscountValue: 100, MaxUses: &maxUses, CurrentUses: 10, IsActive: true},
	}}
	orders := &memOrders{orders: map[string]*models.Order{}}
	effects := &recordedEffects{}

	return &fixture{
		svc:     NewService(catalog.NewRevalidator(items, 4), coupon.NewService(cs), orders, orders, effects),
		coupons: cs,
		orders:  orders,
		effects: effects,
	}
}

func dineIn(lines ...models.CartLine) models.SubmitOrderRequest {
	return models.SubmitOrderRequest{Items: lines, ServiceType: models.ServiceDineIn, TableNumber: "12"}
}

func TestSubmitRepricesFromCatalog(t *testing.T) {
	for _, claimed := range []int64{1, 1000, 99999} {
		f := newFixture()
		receipt, err := f.svc.Submit(context.Background(), tenant,
			dineIn(models.CartLine{CatalogItemID: "A", ClaimedName: "Item A", ClaimedUnitPrice: claimed, Quantity: 2}))
		if err != nil {
			t.Fatalf("claimed=%d: unexpected error: %v", claimed, err)
		}
		if receipt.Total != 2560 {
			t.Fatalf("claimed=%d: total = %d, want 2560", claimed, receipt.Total)
		}

		stored := f.orders.orders[receipt.OrderID]
		want := models.PricingBreakdown{Subtotal: 2000, TaxAmount: 360, ServiceChargeAmount: 200, Total: 2560}
		if stored.Pricing != want {
			t.Fatalf("stored pricing = %+v, want %+v", stored.Pricing, want)
		}
		if stored.Items[0].UnitPrice != 1000 {
			t.Fatalf("stored unit price = %d", stored.Items[0].UnitPrice)
		}
		if len(f.effects.events) != 1 || f.effects.events[0].OrderID != receipt.OrderID {
			t.Fatalf("side effects not scheduled once: %+v", f.effects.events)
		}
	}
}

func TestSubmitWithCoupon(t *testing.T) {
	t.Run("percentage capped", func(t *testing.T) {
		f := newFixture()
		req := dineIn(models.CartLine{CatalogItemID: "B", Quantity: 2})
		req.CouponCode = " save10"

		receipt, err := f.svc.Submit(context.Background(), tenant, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stored := f.orders.orders[receipt.OrderID]
		if stored.Pricing.DiscountAmount != 500 {
			t.Fatalf("discount = %d, want 500", stored.Pricing.DiscountAmount)
		}
		// 10000 + 1800 + 1000 - 500
		if receipt.Total != 12300 {
			t.Fatalf("total = %d, want 12300", receipt.Total)
		}
		if stored.Metadata.CouponID != "c-save10" || f.coupons.increments != 1 {
			t.Fatalf("coupon not recorded: meta=%+v increments=%d", stored.Metadata, f.coupons.increments)
		}
	})

	rejections := []struct {
		code   string
		cart   models.CartLine
		reason string
	}{
		{"BIGORDER", models.CartLine{CatalogItemID: "A", Quantity: 3}, coupon.ReasonBelowMinimum},
		{"USEDUP", models.CartLine{CatalogItemID: "B", Quantity: 1}, coupon.ReasonUsageExhausted},
		{"GHOST", models.CartLine{CatalogItemID: "B", Quantity: 1}, coupon.ReasonNotFound},
	}
	for _, tt := range rejections {
		t.Run(tt.code, func(t *testing.T) {
			f := newFixture()
			req := dineIn(tt.cart)
			req.CouponCode = tt.code

			_, err := f.svc.Submit(context.Background(), tenant, req)
			e, ok := apperr.As(err)
			if !ok || e.Kind != apperr.KindCouponInvalid || e.Fields["coupon_code"] != tt.reason {
				t.Fatalf("got %v, want CouponInvalid/%s", err, tt.reason)
			}
			if len(f.orders.orders) != 0 || len(f.effects.events) != 0 || f.coupons.increments != 0 {
				t.Fatal("rejected submission must not persist or schedule anything")
			}

			req.CouponCode = ""
			if _, err := f.svc.Submit(context.Background(), tenant, req); err != nil {
				t.Fatalf("resubmission without coupon failed: %v", err)
			}
		})
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name      string
		req       models.SubmitOrderRequest
		wantKind  apperr.Kind
		wantField string
	}{
		{"empty cart", dineIn(), apperr.KindInvalidInput, "items"},
		{"delivery without address", models.SubmitOrderRequest{
			Items: []models.CartLine{{CatalogItemID: "A", Quantity: 1}}, ServiceType: models.ServiceDelivery,
		}, apperr.KindInvalidInput, "delivery_address"},
		{"room service without room", models.SubmitOrderRequest{
			Items: []models.CartLine{{CatalogItemID: "A", Quantity: 1}}, ServiceType: models.ServiceRoomService,
		}, apperr.KindInvalidInput, "room_number"},
		{"unknown service type", models.SubmitOrderRequest{
			Items: []models.CartLine{{CatalogItemID: "A", Quantity: 1}}, ServiceType: "drone",
		}, apperr.KindInvalidInput, "service_type"},
		{"item from another tenant", dineIn(models.CartLine{CatalogItemID: "other", Quantity: 1}), apperr.KindItemNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Submit(context.Background(), tenant, tt.req)
			e, ok := apperr.As(err)
			if !ok || e.Kind != tt.wantKind {
				t.Fatalf("got %v, want kind %s", err, tt.wantKind)
			}
			if tt.wantField != "" {
				if _, ok := e.Fields[tt.wantField]; !ok {
					t.Fatalf("fields %v missing %q", e.Fields, tt.wantField)
				}
			}
			if len(f.orders.orders) != 0 {
				t.Fatal("nothing may be persisted")
			}
		})
	}
}

func TestSubmitPersistenceFailure(t *testing.T) {
	f := newFixture()
	f.orders.err = errors.New("connection reset")

	req := dineIn(models.CartLine{CatalogItemID: "B", Quantity: 1})
	req.CouponCode = "SAVE10"
	_, err := f.svc.Submit(context.Background(), tenant, req)

	if apperr.KindOf(err) != apperr.KindOrderPersistence {
		t.Fatalf("kind = %s, want OrderPersistenceError", apperr.KindOf(err))
	}
	if f.coupons.increments != 0 || len(f.effects.events) != 0 {
		t.Fatal("post-commit work ran for an order that was not stored")
	}
}

func TestSubmitSchedulingFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture()
	f.effects.err = errors.New("broker unreachable")

	receipt, err := f.svc.Submit(context.Background(), tenant, dineIn(models.CartLine{CatalogItemID: "A", Quantity: 1}))
	if err != nil || receipt.OrderID == "" {
		t.Fatalf("receipt=%+v err=%v", receipt, err)
	}
}

type failingDestocker struct{}

func (failingDestocker) DestockOrder(ctx context.Context, orderID, tenantID string) ([]models.StockMovement, error) {
	return nil, errors.New("forced depletion failure")
}

type premiumBilling struct{}

func (premiumBilling) GetTenantBilling(ctx context.Context, tenantID string) (models.TenantBillingState, error) {
	return models.TenantBillingState{SubscriptionPlan: "premium", SubscriptionStatus: "active"}, nil
}

type noAlerts struct{}

func (noAlerts) CheckAndNotifyLowStock(ctx context.Context, tenantID string) (int, error) {
	return 0, nil
}

func TestDestockFailureLeavesOrderUntouched(t *testing.T) {
	f := newFixture()
	fulfiller := fulfillment.NewFulfiller(premiumBilling{}, failingDestocker{}, noAlerts{})
	f.effects.then = func(ev models.OrderPlacedEvent) {
		fulfiller.Process(context.Background(), ev)
	}

	receipt, err := f.svc.Submit(context.Background(), tenant, dineIn(models.CartLine{CatalogItemID: "A", Quantity: 2}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, err := f.svc.GetOrder(context.Background(), tenant.ID, receipt.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != models.OrderStatusPending || order.Pricing.Total != 2560 {
		t.Fatalf("order changed after failed depletion: %+v", order)
	}
}

func TestPreviewCoupon(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.PreviewCoupon(context.Background(), tenant, models.CouponPreviewRequest{
		Items:      []models.CartLine{{CatalogItemID: "B", Quantity: 2}},
		CouponCode: "SAVE10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Valid || resp.DiscountAmount != 500 || resp.Pricing.Total != 12300 {
		t.Fatalf("unexpected preview %+v", resp)
	}

	resp, err = f.svc.PreviewCoupon(context.Background(), tenant, models.CouponPreviewRequest{
		Items:      []models.CartLine{{CatalogItemID: "A", Quantity: 1}},
		CouponCode: "BIGORDER",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Valid || resp.Reason != coupon.ReasonBelowMinimum || resp.Pricing.DiscountAmount != 0 {
		t.Fatalf("unexpected preview %+v", resp)
	}
	if len(f.orders.orders) != 0 || f.coupons.increments != 0 {
		t.Fatal("preview must not persist anything")
	}
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GetOrder(context.Background(), "t1", "missing")
	if apperr.KindOf(err) != apperr.KindOrderNotFound {
		t.Fatalf("kind = %s, want OrderNotFound", apperr.KindOf(err))
	}
}
