package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

var ErrTenantNotFound = errors.New("tenant not found")

type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(database *PostgresDB) *TenantRepository {
	return &TenantRepository{db: database.Conn}
}

// GetBySlug returns nil, nil for an unknown slug. Inactive tenants are
// returned with Active=false.
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, currency, active,
			enable_tax, tax_rate, enable_service_charge, service_rate
		FROM tenants
		WHERE slug = $1
	`, slug).Scan(
		&t.ID, &t.Slug, &t.Name, &t.Currency, &t.Active,
		&t.Tax.EnableTax, &t.Tax.TaxRate, &t.Tax.EnableServiceCharge, &t.Tax.ServiceRate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &t, nil
}

func (r *TenantRepository) GetTenantBilling(ctx context.Context, tenantID string) (models.TenantBillingState, error) {
	var b models.TenantBillingState
	var trialEndsAt sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT subscription_plan, subscription_status, trial_ends_at
		FROM tenants
		WHERE id = $1
	`, tenantID).Scan(&b.SubscriptionPlan, &b.SubscriptionStatus, &trialEndsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
		}
		return b, fmt.Errorf("failed to get tenant billing: %w", err)
	}

	if trialEndsAt.Valid {
		b.TrialEndsAt = &trialEndsAt.Time
	}
	return b, nil
}
