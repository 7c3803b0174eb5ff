package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxConfig rates are percentages, e.g. 18 for 18%.
type TaxConfig struct {
	EnableTax           bool            `json:"enable_tax"`
	TaxRate             decimal.Decimal `json:"tax_rate"`
	EnableServiceCharge bool            `json:"enable_service_charge"`
	ServiceRate         decimal.Decimal `json:"service_rate"`
}

type Tenant struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	Currency string    `json:"currency"`
	Active   bool      `json:"active"`
	Tax      TaxConfig `json:"tax"`
}

type TenantBillingState struct {
	SubscriptionPlan   string     `json:"subscription_plan"`
	SubscriptionStatus string     `json:"subscription_status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
}
