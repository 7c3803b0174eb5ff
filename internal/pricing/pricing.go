// Package pricing turns a trusted subtotal into a full price breakdown.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Compute prices an order. Tax and service charge are computed on the
// pre-discount subtotal; each derived field is rounded half-up to a whole
// minor unit on its own.
func Compute(subtotal int64, cfg models.TaxConfig, discount int64) models.PricingBreakdown {
	if subtotal < 0 {
		subtotal = 0
	}
	if discount < 0 {
		discount = 0
	}

	var tax, service int64
	if cfg.EnableTax {
		tax = PercentOf(subtotal, cfg.TaxRate)
	}
	if cfg.EnableServiceCharge {
		service = PercentOf(subtotal, cfg.ServiceRate)
	}

	total := subtotal + tax + service - discount
	if total < 0 {
		total = 0
	}

	return models.PricingBreakdown{
		Subtotal:            subtotal,
		TaxAmount:           tax,
		ServiceChargeAmount: service,
		DiscountAmount:      discount,
		Total:               total,
	}
}

// PercentOf returns amount * rate / 100 rounded half away from zero.
func PercentOf(amount int64, rate decimal.Decimal) int64 {
	if rate.Sign() <= 0 || amount == 0 {
		return 0
	}
	return decimal.NewFromInt(amount).Mul(rate).Div(hundred).Round(0).IntPart()
}
