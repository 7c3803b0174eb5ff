package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

func taxConfig(tax, service string) models.TaxConfig {
	cfg := models.TaxConfig{}
	if tax != "" {
		cfg.EnableTax = true
		cfg.TaxRate = decimal.RequireFromString(tax)
	}
	if service != "" {
		cfg.EnableServiceCharge = true
		cfg.ServiceRate = decimal.RequireFromString(service)
	}
	return cfg
}

func TestCompute(t *testing.T) {
	t.Run("tax and service on subtotal", func(t *testing.T) {
		got := Compute(2000, taxConfig("18", "10"), 0)
		want := models.PricingBreakdown{Subtotal: 2000, TaxAmount: 360, ServiceChargeAmount: 200, Total: 2560}
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("disabled rates ignored", func(t *testing.T) {
		cfg := taxConfig("18", "10")
		cfg.EnableTax = false
		cfg.EnableServiceCharge = false
		got := Compute(2000, cfg, 0)
		if got.TaxAmount != 0 || got.ServiceChargeAmount != 0 || got.Total != 2000 {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("discount does not reduce taxable base", func(t *testing.T) {
		got := Compute(10000, taxConfig("10", ""), 500)
		if got.TaxAmount != 1000 {
			t.Fatalf("tax = %d, want 1000", got.TaxAmount)
		}
		if got.Total != 10500 {
			t.Fatalf("total = %d, want 10500", got.Total)
		}
	})

	t.Run("rounds half up per field", func(t *testing.T) {
		// 105 * 5.5% = 5.775 -> 6 ; 105 * 10% = 10.5 -> 11
		got := Compute(105, taxConfig("5.5", "10"), 0)
		if got.TaxAmount != 6 || got.ServiceChargeAmount != 11 {
			t.Fatalf("got tax=%d service=%d", got.TaxAmount, got.ServiceChargeAmount)
		}
		if got.Total != 122 {
			t.Fatalf("total = %d, want 122", got.Total)
		}
	})

	t.Run("total never negative", func(t *testing.T) {
		got := Compute(1000, taxConfig("", ""), 5000)
		if got.Total != 0 {
			t.Fatalf("total = %d, want 0", got.Total)
		}
	})
}

func TestComputeTotalsAddUp(t *testing.T) {
	cfgs := []models.TaxConfig{
		taxConfig("", ""),
		taxConfig("18", ""),
		taxConfig("", "12.5"),
		taxConfig("7.75", "10"),
	}
	for _, cfg := range cfgs {
		for subtotal := int64(0); subtotal <= 5000; subtotal += 137 {
			for _, discount := range []int64{0, 1, subtotal / 2, subtotal, subtotal * 3} {
				got := Compute(subtotal, cfg, discount)
				if got.Total < 0 {
					t.Fatalf("negative total for subtotal=%d discount=%d: %+v", subtotal, discount, got)
				}
				raw := got.Subtotal + got.TaxAmount + got.ServiceChargeAmount - got.DiscountAmount
				if raw >= 0 && got.Total != raw {
					t.Fatalf("total %d != %d for %+v", got.Total, raw, got)
				}
			}
		}
	}
}
