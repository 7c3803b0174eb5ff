// Package fulfillment runs the post-commit consequences of a placed order:
// plan gate, inventory depletion, then low-stock alerts.
package fulfillment

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/plan"
)

type BillingReader interface {
	GetTenantBilling(ctx context.Context, tenantID string) (models.TenantBillingState, error)
}

type Destocker interface {
	DestockOrder(ctx context.Context, orderID, tenantID string) ([]models.StockMovement, error)
}

type LowStockChecker interface {
	CheckAndNotifyLowStock(ctx context.Context, tenantID string) (int, error)
}

// Outcome summarizes one Process call.
type Outcome struct {
	InventoryTracked bool
	Destocked        bool
	Movements        int
	AlertsChecked    bool
	AlertsSent       int
}

type Fulfiller struct {
	billing   BillingReader
	destocker Destocker
	alerts    LowStockChecker
	now       func() time.Time
}

func NewFulfiller(billing BillingReader, destocker Destocker, alerts LowStockChecker) *Fulfiller {
	return &Fulfiller{billing: billing, destocker: destocker, alerts: alerts, now: time.Now}
}

// Process never returns an error. Every failure is logged; the order it
// belongs to is already confirmed.
func (f *Fulfiller) Process(ctx context.Context, ev models.OrderPlacedEvent) Outcome {
	var out Outcome
	logger := log.WithFields(log.Fields{
		"order_id":  ev.OrderID,
		"tenant_id": ev.TenantID,
	})

	billing, err := f.billing.GetTenantBilling(ctx, ev.TenantID)
	if err != nil {
		logger.WithField("error", err).Error("failed to load tenant billing, skipping fulfillment")
		return out
	}

	now := f.now()
	if !plan.Allows(billing, plan.FeatureInventoryTracking, now) {
		logger.WithField("plan", billing.SubscriptionPlan).Debug("inventory tracking not in plan")
		return out
	}
	out.InventoryTracked = true

	movements, err := f.destocker.DestockOrder(ctx, ev.OrderID, ev.TenantID)
	out.Movements = len(movements)
	if err != nil {
		logger.WithFields(log.Fields{
			"error":     err,
			"movements": len(movements),
		}).Error("inventory depletion failed")
		return out
	}
	out.Destocked = true

	if !plan.Allows(billing, plan.FeatureStockAlerts, now) {
		return out
	}
	out.AlertsChecked = true

	sent, err := f.alerts.CheckAndNotifyLowStock(ctx, ev.TenantID)
	if err != nil {
		logger.WithField("error", err).Error("low stock notification failed")
		return out
	}
	out.AlertsSent = sent

	return out
}
