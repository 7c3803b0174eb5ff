// Package plan resolves a tenant's effective subscription tier and answers
// capability questions against a static table.
package plan

import (
	"strings"
	"time"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type Plan string

const (
	Essentiel Plan = "essentiel"
	Pro       Plan = "pro"
	Premium   Plan = "premium"
)

// Richest is the tier an active trial unlocks.
const Richest = Premium

// Subscription statuses
const (
	StatusTrial    = "trial"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

type Feature string

const (
	FeatureOnlineOrdering    Feature = "onlineOrdering"
	FeatureCoupons           Feature = "coupons"
	FeatureInventoryTracking Feature = "inventoryTracking"
	FeatureStockAlerts       Feature = "stockAlerts"
	FeatureRoomService       Feature = "roomService"
	FeatureAnalytics         Feature = "analytics"
)

var capabilities = map[Plan]map[Feature]bool{
	Essentiel: {
		FeatureOnlineOrdering: true,
		FeatureCoupons:        true,
	},
	Pro: {
		FeatureOnlineOrdering:    true,
		FeatureCoupons:           true,
		FeatureInventoryTracking: true,
		FeatureRoomService:       true,
	},
	Premium: {
		FeatureOnlineOrdering:    true,
		FeatureCoupons:           true,
		FeatureInventoryTracking: true,
		FeatureStockAlerts:       true,
		FeatureRoomService:       true,
		FeatureAnalytics:         true,
	},
}

// Parse maps a stored plan name to a Plan. Unknown names resolve to Essentiel.
func Parse(name string) Plan {
	p := Plan(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := capabilities[p]; ok {
		return p
	}
	return Essentiel
}

// Effective returns the tier whose capabilities apply at now. A trial that
// has not ended unlocks Richest regardless of the nominal plan.
func Effective(nominal, status string, trialEndsAt *time.Time, now time.Time) Plan {
	if status == StatusTrial && trialEndsAt != nil && trialEndsAt.After(now) {
		return Richest
	}
	return Parse(nominal)
}

// CanAccess is a pure lookup and safe to call before scheduling any work.
func CanAccess(feature Feature, nominal, status string, trialEndsAt *time.Time, now time.Time) bool {
	return capabilities[Effective(nominal, status, trialEndsAt, now)][feature]
}

// Allows is CanAccess over a billing record.
func Allows(b models.TenantBillingState, feature Feature, now time.Time) bool {
	return CanAccess(feature, b.SubscriptionPlan, b.SubscriptionStatus, b.TrialEndsAt, now)
}
