package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type fakeStock []models.IngredientStock

func (f fakeStock) ListStock(ctx context.Context, tenantID string) ([]models.IngredientStock, error) {
	return f, nil
}

type memCooldown struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (c *memCooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

func (c *memCooldown) Release(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, key)
	return nil
}

type recordingDispatcher struct {
	digests [][]models.LowStockItem
	err     error
}

func (d *recordingDispatcher) SendLowStockDigest(ctx context.Context, tenantID string, items []models.LowStockItem) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	d.digests = append(d.digests, items)
	return true, nil
}

func ingredient(id string, current, minAlert int64) models.IngredientStock {
	return models.IngredientStock{
		IngredientID:  id,
		Name:          id,
		CurrentStock:  decimal.NewFromInt(current),
		MinStockAlert: decimal.NewFromInt(minAlert),
		Unit:          "pcs",
	}
}

func TestClassify(t *testing.T) {
	items := Classify([]models.IngredientStock{
		ingredient("flour", 50, 10),
		ingredient("eggs", 10, 10),
		ingredient("milk", 0, 5),
		ingredient("butter", -2, 5),
		ingredient("salt", 3, 0),
	})

	want := map[string]string{
		"eggs":   models.AlertLowStock,
		"milk":   models.AlertOutOfStock,
		"butter": models.AlertOutOfStock,
	}
	if len(items) != len(want) {
		t.Fatalf("classified %d items, want %d: %+v", len(items), len(want), items)
	}
	for _, it := range items {
		if want[it.IngredientID] != it.Level {
			t.Fatalf("%s level = %q, want %q", it.IngredientID, it.Level, want[it.IngredientID])
		}
	}
	if items[0].Level != models.AlertOutOfStock {
		t.Fatalf("out of stock entries must come first")
	}
}

func TestCheckAndNotifyLowStock(t *testing.T) {
	stock := fakeStock{ingredient("eggs", 2, 10), ingredient("milk", 0, 5), ingredient("flour", 40, 10)}

	t.Run("one digest then cool-down", func(t *testing.T) {
		cd := &memCooldown{held: map[string]bool{}}
		disp := &recordingDispatcher{}
		n := NewNotifier(stock, cd, disp, time.Hour)

		sent, err := n.CheckAndNotifyLowStock(context.Background(), "t1")
		if err != nil || sent != 2 {
			t.Fatalf("first run: sent=%d err=%v", sent, err)
		}
		sent, err = n.CheckAndNotifyLowStock(context.Background(), "t1")
		if err != nil || sent != 0 {
			t.Fatalf("second run: sent=%d err=%v", sent, err)
		}
		if len(disp.digests) != 1 {
			t.Fatalf("digests = %d, want 1", len(disp.digests))
		}
	})

	t.Run("nothing low sends nothing", func(t *testing.T) {
		disp := &recordingDispatcher{}
		n := NewNotifier(fakeStock{ingredient("flour", 40, 10)}, &memCooldown{held: map[string]bool{}}, disp, time.Hour)

		sent, err := n.CheckAndNotifyLowStock(context.Background(), "t1")
		if err != nil || sent != 0 || len(disp.digests) != 0 {
			t.Fatalf("sent=%d err=%v digests=%d", sent, err, len(disp.digests))
		}
	})

	t.Run("dispatch failure releases cool-down", func(t *testing.T) {
		cd := &memCooldown{held: map[string]bool{}}
		disp := &recordingDispatcher{err: errors.New("503")}
		n := NewNotifier(stock, cd, disp, time.Hour)

		_, err := n.CheckAndNotifyLowStock(context.Background(), "t1")
		if apperr.KindOf(err) != apperr.KindNotification {
			t.Fatalf("kind = %s, want NotificationFailure", apperr.KindOf(err))
		}
		if len(cd.held) != 0 {
			t.Fatalf("cool-down keys still held: %v", cd.held)
		}

		disp.err = nil
		sent, err := n.CheckAndNotifyLowStock(context.Background(), "t1")
		if err != nil || sent != 2 {
			t.Fatalf("retry: sent=%d err=%v", sent, err)
		}
	})

	t.Run("cool-down store failure still alerts", func(t *testing.T) {
		disp := &recordingDispatcher{}
		n := NewNotifier(stock, &memCooldown{err: errors.New("redis down")}, disp, time.Hour)

		sent, err := n.CheckAndNotifyLowStock(context.Background(), "t1")
		if err != nil || sent != 2 {
			t.Fatalf("sent=%d err=%v", sent, err)
		}
	})
}
