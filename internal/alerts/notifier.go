// Package alerts sends low-stock digests to restaurant owners.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/metrics"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type StockReader interface {
	ListStock(ctx context.Context, tenantID string) ([]models.IngredientStock, error)
}

// Cooldown is a per-key lock with expiry. Acquire reports false while the
// key is still held from an earlier call.
type Cooldown interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Dispatcher interface {
	SendLowStockDigest(ctx context.Context, tenantID string, items []models.LowStockItem) (bool, error)
}

var errNotDelivered = errors.New("dispatcher did not accept the digest")

type Notifier struct {
	stock      StockReader
	cooldown   Cooldown
	dispatcher Dispatcher
	window     time.Duration
}

func NewNotifier(stock StockReader, cooldown Cooldown, dispatcher Dispatcher, window time.Duration) *Notifier {
	return &Notifier{stock: stock, cooldown: cooldown, dispatcher: dispatcher, window: window}
}

// Classify partitions stock into out-of-stock and low-stock entries. Healthy
// ingredients are left out.
func Classify(stock []models.IngredientStock) []models.LowStockItem {
	var out, low []models.LowStockItem
	for _, s := range stock {
		item := models.LowStockItem{
			IngredientID:  s.IngredientID,
			Name:          s.Name,
			CurrentStock:  s.CurrentStock,
			MinStockAlert: s.MinStockAlert,
			Unit:          s.Unit,
		}
		switch {
		case !s.CurrentStock.IsPositive():
			item.Level = models.AlertOutOfStock
			out = append(out, item)
		case s.CurrentStock.LessThanOrEqual(s.MinStockAlert):
			item.Level = models.AlertLowStock
			low = append(low, item)
		}
	}
	return append(out, low...)
}

func cooldownKey(tenantID, ingredientID string) string {
	return fmt.Sprintf("lowstock:%s:%s", tenantID, ingredientID)
}

// CheckAndNotifyLowStock re-reads the tenant's stock and sends at most one
// digest. Ingredients notified within the cool-down window are skipped.
// It returns the number of ingredients included in the digest.
func (n *Notifier) CheckAndNotifyLowStock(ctx context.Context, tenantID string) (int, error) {
	logger := log.WithField("tenant_id", tenantID)

	stock, err := n.stock.ListStock(ctx, tenantID)
	if err != nil {
		return 0, n.fail(fmt.Errorf("failed to list stock: %w", err))
	}

	var digest []models.LowStockItem
	var held []string
	for _, item := range Classify(stock) {
		key := cooldownKey(tenantID, item.IngredientID)
		ok, err := n.cooldown.Acquire(ctx, key, n.window)
		if err != nil {
			// cool-down store down: alert anyway
			logger.WithFields(log.Fields{
				"ingredient_id": item.IngredientID,
				"error":         err,
			}).Warn("cool-down check failed")
			ok = true
		} else if ok {
			held = append(held, key)
		}
		if ok {
			digest = append(digest, item)
		}
	}

	if len(digest) == 0 {
		return 0, nil
	}

	delivered, err := n.dispatcher.SendLowStockDigest(ctx, tenantID, digest)
	if err == nil && !delivered {
		err = errNotDelivered
	}
	if err != nil {
		for _, key := range held {
			if rerr := n.cooldown.Release(ctx, key); rerr != nil {
				logger.WithField("error", rerr).Warn("failed to release cool-down")
			}
		}
		return 0, n.fail(err)
	}

	metrics.LowStockDigests.WithLabelValues("sent").Inc()
	logger.WithField("ingredients", len(digest)).Info("low stock digest sent")

	return len(digest), nil
}

func (n *Notifier) fail(err error) error {
	metrics.LowStockDigests.WithLabelValues("failed").Inc()
	return apperr.Wrap(apperr.KindNotification, apperr.CodeNotification, "low stock notification failed", err)
}
