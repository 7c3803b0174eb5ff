package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

const orderNumberAttempts = 3

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(database *PostgresDB) *OrderRepository {
	return &OrderRepository{db: database.Conn}
}

func formatOrderNumber(n int64) string {
	return fmt.Sprintf("ORD-%06d", n)
}

// Create inserts the order header and its lines in one transaction. The
// order number comes from a per-tenant counter; a collision with an existing
// number moves the counter past the taken numbers and retries.
func (r *OrderRepository) Create(ctx context.Context, tenantID string, lines []models.TrustedLine, p models.PricingBreakdown, meta models.OrderMetadata) (models.OrderReceipt, error) {
	var receipt models.OrderReceipt
	err := retryOnCollision(orderNumberAttempts,
		func() error {
			var err error
			receipt, err = r.create(ctx, tenantID, lines, p, meta)
			return err
		},
		func(attempt int) error {
			log.WithFields(log.Fields{
				"tenant_id": tenantID,
				"attempt":   attempt,
			}).Warn("order number collision, resyncing counter")
			return r.resyncCounter(ctx, tenantID)
		},
	)
	if err != nil {
		return models.OrderReceipt{}, err
	}

	return receipt, nil
}

// retryOnCollision calls create until it succeeds, fails with anything other
// than a unique violation, or attempts run out. resync runs between attempts.
func retryOnCollision(attempts int, create func() error, resync func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := create()
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}

		lastErr = err
		if attempt == attempts {
			break
		}
		if err := resync(attempt); err != nil {
			return fmt.Errorf("failed to resync order counter: %w", err)
		}
	}

	return fmt.Errorf("failed to allocate order number: %w", lastErr)
}

// resyncCounter raises the tenant's counter to the highest order number
// already stored. It commits on its own so the next attempt starts past it.
func (r *OrderRepository) resyncCounter(ctx context.Context, tenantID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_counters (tenant_id, last_number)
		SELECT $1::text, COALESCE(MAX(CAST(SUBSTRING(order_number FROM 5) AS BIGINT)), 0)
		FROM orders
		WHERE tenant_id = $1::text AND order_number ~ '^ORD-[0-9]+$'
		ON CONFLICT (tenant_id) DO UPDATE
		SET last_number = GREATEST(order_counters.last_number, EXCLUDED.last_number)
	`, tenantID)
	return err
}

func (r *OrderRepository) create(ctx context.Context, tenantID string, lines []models.TrustedLine, p models.PricingBreakdown, meta models.OrderMetadata) (models.OrderReceipt, error) {
	orderID := uuid.NewString()
	var number string

	err := execTX(ctx, r.db, func(tx *sql.Tx) error {
		var seq int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO order_counters (tenant_id, last_number)
			VALUES ($1, 1)
			ON CONFLICT (tenant_id) DO UPDATE SET last_number = order_counters.last_number + 1
			RETURNING last_number
		`, tenantID).Scan(&seq)
		if err != nil {
			return fmt.Errorf("failed to reserve order number: %w", err)
		}
		number = formatOrderNumber(seq)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (
				id, tenant_id, order_number, status,
				subtotal, tax_amount, service_charge_amount, discount_amount, total,
				service_type, table_number, room_number, delivery_address,
				customer_name, customer_phone, notes, coupon_id
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''),
				NULLIF($14, ''), NULLIF($15, ''), NULLIF($16, ''), NULLIF($17, ''))
		`,
			orderID, tenantID, number, models.OrderStatusPending,
			p.Subtotal, p.TaxAmount, p.ServiceChargeAmount, p.DiscountAmount, p.Total,
			meta.ServiceType, meta.TableNumber, meta.RoomNumber, meta.DeliveryAddress,
			meta.CustomerName, meta.CustomerPhone, meta.Notes, meta.CouponID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		itemQuery := `
			INSERT INTO order_items (
				id, order_id, position, catalog_item_id, name,
				unit_price, quantity, line_total, selected_option, selected_variant
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''))
		`
		for i, l := range lines {
			_, err := tx.ExecContext(ctx, itemQuery,
				uuid.NewString(), orderID, i+1, l.CatalogItemID, l.Name,
				l.UnitPrice, l.Quantity, l.LineTotal, l.SelectedOption, l.SelectedVariant,
			)
			if err != nil {
				return fmt.Errorf("failed to insert order item %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.OrderReceipt{}, err
	}

	return models.OrderReceipt{OrderID: orderID, OrderNumber: number, Total: p.Total}, nil
}

// GetOrder returns a single order with its lines, or nil if it does not
// belong to the tenant.
func (r *OrderRepository) GetOrder(ctx context.Context, tenantID, orderID string) (*models.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, nil
	}

	var o models.Order
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, order_number, status,
			subtotal, tax_amount, service_charge_amount, discount_amount, total,
			service_type, COALESCE(table_number, ''), COALESCE(room_number, ''),
			COALESCE(delivery_address, ''), COALESCE(customer_name, ''),
			COALESCE(customer_phone, ''), COALESCE(notes, ''), COALESCE(coupon_id, ''),
			created_at
		FROM orders
		WHERE id = $1 AND tenant_id = $2
	`, orderID, tenantID).Scan(
		&o.ID, &o.TenantID, &o.OrderNumber, &o.Status,
		&o.Pricing.Subtotal, &o.Pricing.TaxAmount, &o.Pricing.ServiceChargeAmount,
		&o.Pricing.DiscountAmount, &o.Pricing.Total,
		&o.Metadata.ServiceType, &o.Metadata.TableNumber, &o.Metadata.RoomNumber,
		&o.Metadata.DeliveryAddress, &o.Metadata.CustomerName,
		&o.Metadata.CustomerPhone, &o.Metadata.Notes, &o.Metadata.CouponID,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	o.CreatedAt = createdAt

	o.Items, err = r.GetOrderLines(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// GetOrderLines returns the stored lines of an order in position order.
func (r *OrderRepository) GetOrderLines(ctx context.Context, tenantID, orderID string) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.order_id, i.position, i.catalog_item_id, i.name,
			i.unit_price, i.quantity, i.line_total,
			COALESCE(i.selected_option, ''), COALESCE(i.selected_variant, '')
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE i.order_id = $1 AND o.tenant_id = $2
		ORDER BY i.position
	`, orderID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		err := rows.Scan(&it.ID, &it.OrderID, &it.Position, &it.CatalogItemID, &it.Name,
			&it.UnitPrice, &it.Quantity, &it.LineTotal, &it.SelectedOption, &it.SelectedVariant)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}
