package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const MovementOrderDestock = "order_destock"

type IngredientStock struct {
	IngredientID  string          `json:"ingredient_id"`
	TenantID      string          `json:"tenant_id"`
	Name          string          `json:"name"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStockAlert decimal.Decimal `json:"min_stock_alert"`
	Unit          string          `json:"unit"`
}

// RecipeLine maps one unit of a menu item to an ingredient quantity.
type RecipeLine struct {
	IngredientID string          `json:"ingredient_id"`
	QtyPerUnit   decimal.Decimal `json:"qty_per_unit"`
}

type StockMovement struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	IngredientID  string          `json:"ingredient_id"`
	MovementType  string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	OrderID       string          `json:"order_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Stock alert levels
const (
	AlertOutOfStock = "out_of_stock"
	AlertLowStock   = "low_stock"
)

// LowStockItem is one entry of a low-stock digest.
type LowStockItem struct {
	IngredientID  string          `json:"ingredient_id"`
	Name          string          `json:"name"`
	Level         string          `json:"level"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStockAlert decimal.Decimal `json:"min_stock_alert"`
	Unit          string          `json:"unit"`
}
