package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(database *PostgresDB) *CatalogRepository {
	return &CatalogRepository{db: database.Conn}
}

// GetItem returns a tenant's menu item, or nil if it does not exist.
func (r *CatalogRepository) GetItem(ctx context.Context, tenantID, itemID string) (*models.MenuItem, error) {
	query := `
		SELECT id, tenant_id, name, price, available, options, variants
		FROM menu_items
		WHERE id = $1 AND tenant_id = $2
	`

	var item models.MenuItem
	var options, variants []byte
	err := r.db.QueryRowContext(ctx, query, itemID, tenantID).
		Scan(&item.ID, &item.TenantID, &item.Name, &item.Price, &item.Available, &options, &variants)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}

	if err := decodeChoices(options, &item.Options); err != nil {
		return nil, fmt.Errorf("menu item %s options: %w", itemID, err)
	}
	if err := decodeChoices(variants, &item.Variants); err != nil {
		return nil, fmt.Errorf("menu item %s variants: %w", itemID, err)
	}

	return &item, nil
}

func decodeChoices(raw []byte, dest *[]models.PriceChoice) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
