package models

import "time"

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon amounts are in minor units; percentage DiscountValue is 0..100.
type Coupon struct {
	ID                string     `json:"id"`
	TenantID          string     `json:"tenant_id"`
	Code              string     `json:"code"`
	DiscountType      string     `json:"discount_type"`
	DiscountValue     int64      `json:"discount_value"`
	MinOrderAmount    *int64     `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *int64     `json:"max_discount_amount,omitempty"`
	ValidFrom         *time.Time `json:"valid_from,omitempty"`
	ValidUntil        *time.Time `json:"valid_until,omitempty"`
	MaxUses           *int       `json:"max_uses,omitempty"`
	CurrentUses       int        `json:"current_uses"`
	IsActive          bool       `json:"is_active"`
}
