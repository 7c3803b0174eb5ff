package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

var ErrIngredientNotFound = errors.New("ingredient not found")

type IngredientRepository struct {
	db *sql.DB
}

func NewIngredientRepository(database *PostgresDB) *IngredientRepository {
	return &IngredientRepository{db: database.Conn}
}

func (r *IngredientRepository) GetRecipe(ctx context.Context, tenantID, itemID string) ([]models.RecipeLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ri.ingredient_id, ri.qty_per_unit
		FROM recipe_items ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.menu_item_id = $1 AND i.tenant_id = $2
	`, itemID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}
	defer rows.Close()

	var recipe []models.RecipeLine
	for rows.Next() {
		var l models.RecipeLine
		if err := rows.Scan(&l.IngredientID, &l.QtyPerUnit); err != nil {
			return nil, fmt.Errorf("failed to scan recipe line: %w", err)
		}
		recipe = append(recipe, l)
	}

	return recipe, rows.Err()
}

// DecrementWithMovement applies m.Quantity to the ingredient's stock with a
// relative update and records m in the same transaction. It returns m with
// PreviousStock and NewStock taken from the update. Stock may go negative.
func (r *IngredientRepository) DecrementWithMovement(ctx context.Context, m models.StockMovement) (models.StockMovement, error) {
	err := execTX(ctx, r.db, func(tx *sql.Tx) error {
		var stock decimal.Decimal
		err := tx.QueryRowContext(ctx, `
			UPDATE ingredients
			SET current_stock = current_stock + $1, updated_at = NOW()
			WHERE id = $2 AND tenant_id = $3
			RETURNING current_stock
		`, m.Quantity, m.IngredientID, m.TenantID).Scan(&stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrIngredientNotFound, m.IngredientID)
			}
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		m.NewStock = stock
		m.PreviousStock = stock.Sub(m.Quantity)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_movements (
				id, tenant_id, ingredient_id, movement_type,
				quantity, previous_stock, new_stock, order_id, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, $9)
		`, m.ID, m.TenantID, m.IngredientID, m.MovementType,
			m.Quantity, m.PreviousStock, m.NewStock, m.OrderID, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert stock movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.StockMovement{}, err
	}

	return m, nil
}

func (r *IngredientRepository) ListStock(ctx context.Context, tenantID string) ([]models.IngredientStock, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, current_stock, min_stock_alert, unit
		FROM ingredients
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	var stock []models.IngredientStock
	for rows.Next() {
		var s models.IngredientStock
		if err := rows.Scan(&s.IngredientID, &s.TenantID, &s.Name, &s.CurrentStock, &s.MinStockAlert, &s.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		stock = append(stock, s)
	}

	return stock, rows.Err()
}

// InventoryStore gives the depletion worker order lines and ingredient
// stock from one value.
type InventoryStore struct {
	*OrderRepository
	*IngredientRepository
}
