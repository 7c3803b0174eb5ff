package models

import (
	"time"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Service types
const (
	ServiceDineIn      = "dine_in"
	ServiceTakeaway    = "takeaway"
	ServiceDelivery    = "delivery"
	ServiceRoomService = "room_service"
)

// CartLine is a client-submitted line. Claimed fields are display-only.
type CartLine struct {
	CatalogItemID    string `json:"catalog_item_id"`
	ClaimedName      string `json:"name"`
	ClaimedUnitPrice int64  `json:"unit_price"`
	Quantity         int    `json:"quantity"`
	SelectedOption   string `json:"selected_option,omitempty"`
	SelectedVariant  string `json:"selected_variant,omitempty"`
}

// TrustedLine is a cart line repriced from the catalog.
type TrustedLine struct {
	CatalogItemID   string `json:"catalog_item_id"`
	Name            string `json:"name"`
	UnitPrice       int64  `json:"unit_price"`
	Quantity        int    `json:"quantity"`
	LineTotal       int64  `json:"line_total"`
	SelectedOption  string `json:"selected_option,omitempty"`
	SelectedVariant string `json:"selected_variant,omitempty"`
}

// PricingBreakdown amounts are in minor currency units.
type PricingBreakdown struct {
	Subtotal            int64 `json:"subtotal"`
	TaxAmount           int64 `json:"tax_amount"`
	ServiceChargeAmount int64 `json:"service_charge_amount"`
	DiscountAmount      int64 `json:"discount_amount"`
	Total               int64 `json:"total"`
}

// OrderMetadata is the guest-provided context persisted with the order header.
type OrderMetadata struct {
	ServiceType     string `json:"service_type"`
	TableNumber     string `json:"table_number,omitempty"`
	RoomNumber      string `json:"room_number,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CouponID        string `json:"coupon_id,omitempty"`
}

type Order struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	OrderNumber string           `json:"order_number"`
	Status      string           `json:"status"`
	Items       []OrderItem      `json:"items"`
	Pricing     PricingBreakdown `json:"pricing"`
	Metadata    OrderMetadata    `json:"metadata"`
	CreatedAt   time.Time        `json:"created_at"`
}

type OrderItem struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Position int    `json:"position"`
	TrustedLine
}

// OrderReceipt is what the writer returns once the order is durable.
type OrderReceipt struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Total       int64  `json:"total"`
}

type SubmitOrderRequest struct {
	Items           []CartLine `json:"items"`
	Notes           string     `json:"notes"`
	TableNumber     string     `json:"table_number"`
	CustomerName    string     `json:"customer_name"`
	CustomerPhone   string     `json:"customer_phone"`
	ServiceType     string     `json:"service_type" binding:"required,oneof=dine_in takeaway delivery room_service"`
	RoomNumber      string     `json:"room_number"`
	DeliveryAddress string     `json:"delivery_address"`
	CouponCode      string     `json:"coupon_code"`
}

type CouponPreviewRequest struct {
	Items      []CartLine `json:"items"`
	CouponCode string     `json:"coupon_code" binding:"required"`
}

type CouponPreviewResponse struct {
	Valid          bool             `json:"valid"`
	Reason         string           `json:"reason,omitempty"`
	Message        string           `json:"message,omitempty"`
	CouponID       string           `json:"coupon_id,omitempty"`
	DiscountAmount int64            `json:"discount_amount"`
	Pricing        PricingBreakdown `json:"pricing"`
}
