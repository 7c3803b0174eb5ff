// Package inventory deducts ingredient stock for placed orders.
package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/metrics"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

// Store is the recipe and ingredient side of the database.
type Store interface {
	GetOrderLines(ctx context.Context, tenantID, orderID string) ([]models.OrderItem, error)
	GetRecipe(ctx context.Context, tenantID, itemID string) ([]models.RecipeLine, error)
	// DecrementWithMovement applies m.Quantity as one relative update and
	// stores m atomically with it, filling PreviousStock and NewStock.
	// Either both land or neither does.
	DecrementWithMovement(ctx context.Context, m models.StockMovement) (models.StockMovement, error)
}

type Depleter struct {
	store Store
	now   func() time.Time
}

func NewDepleter(store Store) *Depleter {
	return &Depleter{store: store, now: time.Now}
}

// DestockOrder decrements every ingredient used by the order and writes one
// movement per ingredient. Ingredients are processed in id order.
func (d *Depleter) DestockOrder(ctx context.Context, orderID, tenantID string) ([]models.StockMovement, error) {
	logger := log.WithFields(log.Fields{"order_id": orderID, "tenant_id": tenantID})

	lines, err := d.store.GetOrderLines(ctx, tenantID, orderID)
	if err != nil {
		return nil, d.fail(fmt.Errorf("failed to load order lines: %w", err))
	}
	if len(lines) == 0 {
		return nil, d.fail(fmt.Errorf("order %s has no lines", orderID))
	}

	usage, err := d.usage(ctx, tenantID, lines)
	if err != nil {
		return nil, d.fail(err)
	}

	ids := make([]string, 0, len(usage))
	for id := range usage {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	movements := make([]models.StockMovement, 0, len(ids))
	for _, id := range ids {
		m, err := d.store.DecrementWithMovement(ctx, models.StockMovement{
			ID:           uuid.New().String(),
			TenantID:     tenantID,
			IngredientID: id,
			MovementType: models.MovementOrderDestock,
			Quantity:     usage[id].Neg(),
			OrderID:      orderID,
			CreatedAt:    d.now().UTC(),
		})
		if err != nil {
			return movements, d.fail(fmt.Errorf("failed to destock ingredient %s: %w", id, err))
		}

		metrics.StockMovements.Inc()
		movements = append(movements, m)
	}

	metrics.DestockRuns.WithLabelValues("ok").Inc()
	logger.WithField("ingredients", len(movements)).Info("order destocked")

	return movements, nil
}

// usage sums recipe quantities times ordered quantity per ingredient.
func (d *Depleter) usage(ctx context.Context, tenantID string, lines []models.OrderItem) (map[string]decimal.Decimal, error) {
	recipes := make(map[string][]models.RecipeLine)
	usage := make(map[string]decimal.Decimal)

	for _, line := range lines {
		recipe, ok := recipes[line.CatalogItemID]
		if !ok {
			var err error
			recipe, err = d.store.GetRecipe(ctx, tenantID, line.CatalogItemID)
			if err != nil {
				return nil, fmt.Errorf("failed to load recipe for %s: %w", line.CatalogItemID, err)
			}
			recipes[line.CatalogItemID] = recipe
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		for _, r := range recipe {
			if !r.QtyPerUnit.IsPositive() {
				continue
			}
			usage[r.IngredientID] = usage[r.IngredientID].Add(r.QtyPerUnit.Mul(qty))
		}
	}

	return usage, nil
}

func (d *Depleter) fail(err error) error {
	metrics.DestockRuns.WithLabelValues("failed").Inc()
	return apperr.Wrap(apperr.KindDestockFailure, apperr.CodeDestock, "inventory depletion failed", err)
}
