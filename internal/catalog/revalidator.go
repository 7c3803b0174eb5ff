// Package catalog re-prices untrusted cart lines from the tenant's catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

const (
	MaxLines           = 50
	MaxQuantityPerLine = 100
)

// Store returns nil, nil when the item does not exist for the tenant.
type Store interface {
	GetItem(ctx context.Context, tenantID, itemID string) (*models.MenuItem, error)
}

type Result struct {
	Lines    []models.TrustedLine
	Subtotal int64
}

type Revalidator struct {
	store         Store
	maxConcurrent int
}

func NewRevalidator(store Store, maxConcurrent int) *Revalidator {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Revalidator{store: store, maxConcurrent: maxConcurrent}
}

// Revalidate checks every line against the catalog and rebuilds it with
// catalog prices. Claimed names and prices on the cart are never read.
func (r *Revalidator) Revalidate(ctx context.Context, tenantID string, cart []models.CartLine) (Result, error) {
	if err := validateShape(cart); err != nil {
		return Result{}, err
	}

	lines := make([]models.TrustedLine, len(cart))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)

	for idx := range cart {
		g.Go(func() error {
			line, err := r.trustLine(ctx, tenantID, idx, cart[idx])
			if err != nil {
				return err
			}
			lines[idx] = line
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var subtotal int64
	for _, l := range lines {
		subtotal += l.LineTotal
	}

	return Result{Lines: lines, Subtotal: subtotal}, nil
}

func validateShape(cart []models.CartLine) error {
	if len(cart) == 0 {
		return apperr.Invalid(apperr.CodeEmptyCart, "items", "cart is empty")
	}
	if len(cart) > MaxLines {
		return apperr.Invalid(apperr.CodeTooManyLines, "items",
			fmt.Sprintf("a cart may contain at most %d lines", MaxLines))
	}

	for i, line := range cart {
		if strings.TrimSpace(line.CatalogItemID) == "" {
			return apperr.Invalid(apperr.CodeInvalidInput, fmt.Sprintf("items[%d].catalog_item_id", i),
				"catalog item id is required")
		}
		if line.Quantity < 1 || line.Quantity > MaxQuantityPerLine {
			return apperr.Invalid(apperr.CodeInvalidQuantity, fmt.Sprintf("items[%d].quantity", i),
				fmt.Sprintf("quantity must be between 1 and %d", MaxQuantityPerLine))
		}
	}
	return nil
}

func (r *Revalidator) trustLine(ctx context.Context, tenantID string, idx int, line models.CartLine) (models.TrustedLine, error) {
	item, err := r.store.GetItem(ctx, tenantID, line.CatalogItemID)
	if err != nil {
		return models.TrustedLine{}, fmt.Errorf("failed to load catalog item %s: %w", line.CatalogItemID, err)
	}
	if item == nil || !item.Available {
		e := apperr.New(apperr.KindItemNotFound, apperr.CodeItemNotFound,
			fmt.Sprintf("item %s is not available", line.CatalogItemID))
		e.Fields = map[string]string{fmt.Sprintf("items[%d].catalog_item_id", idx): line.CatalogItemID}
		return models.TrustedLine{}, e
	}

	unitPrice := item.Price
	if line.SelectedOption != "" {
		opt, ok := models.Choice(item.Options, line.SelectedOption)
		if !ok {
			return models.TrustedLine{}, apperr.Invalid(apperr.CodeInvalidInput,
				fmt.Sprintf("items[%d].selected_option", idx), "unknown option "+line.SelectedOption)
		}
		unitPrice += opt.PriceDelta
	}
	if line.SelectedVariant != "" {
		v, ok := models.Choice(item.Variants, line.SelectedVariant)
		if !ok {
			return models.TrustedLine{}, apperr.Invalid(apperr.CodeInvalidInput,
				fmt.Sprintf("items[%d].selected_variant", idx), "unknown variant "+line.SelectedVariant)
		}
		unitPrice += v.PriceDelta
	}

	return models.TrustedLine{
		CatalogItemID:   item.ID,
		Name:            item.Name,
		UnitPrice:       unitPrice,
		Quantity:        line.Quantity,
		LineTotal:       unitPrice * int64(line.Quantity),
		SelectedOption:  line.SelectedOption,
		SelectedVariant: line.SelectedVariant,
	}, nil
}
