package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/coupon"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type CouponRepository struct {
	db *sql.DB
}

func NewCouponRepository(database *PostgresDB) *CouponRepository {
	return &CouponRepository{db: database.Conn}
}

// GetByCode expects a normalized code. Codes are unique per tenant.
func (r *CouponRepository) GetByCode(ctx context.Context, tenantID, code string) (*models.Coupon, error) {
	query := `
		SELECT id, tenant_id, code, discount_type, discount_value,
			min_order_amount, max_discount_amount, valid_from, valid_until,
			max_uses, current_uses, is_active
		FROM coupons
		WHERE tenant_id = $1 AND code = $2
	`

	var c models.Coupon
	var minOrder, maxDiscount sql.NullInt64
	var validFrom, validUntil sql.NullTime
	var maxUses sql.NullInt32

	err := r.db.QueryRowContext(ctx, query, tenantID, code).Scan(
		&c.ID, &c.TenantID, &c.Code, &c.DiscountType, &c.DiscountValue,
		&minOrder, &maxDiscount, &validFrom, &validUntil,
		&maxUses, &c.CurrentUses, &c.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	if minOrder.Valid {
		c.MinOrderAmount = &minOrder.Int64
	}
	if maxDiscount.Valid {
		c.MaxDiscountAmount = &maxDiscount.Int64
	}
	if validFrom.Valid {
		c.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		c.ValidUntil = &validUntil.Time
	}
	if maxUses.Valid {
		n := int(maxUses.Int32)
		c.MaxUses = &n
	}

	return &c, nil
}

// IncrementUsage adds one redemption in a single statement. It never pushes
// current_uses past max_uses; when the limit is already reached it returns
// coupon.ErrUsageLimitReached.
func (r *CouponRepository) IncrementUsage(ctx context.Context, couponID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET current_uses = current_uses + 1
		WHERE id = $1 AND (max_uses IS NULL OR current_uses < max_uses)
	`, couponID)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return coupon.ErrUsageLimitReached
	}

	return nil
}
