// Package coupon decides whether a promotional code applies to a cart and
// records its redemption once an order is stored.
package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/pricing"
)

// Rejection reasons
const (
	ReasonNotFound       = "not_found"
	ReasonInactive       = "inactive"
	ReasonNotYetValid    = "not_yet_valid"
	ReasonExpired        = "expired"
	ReasonUsageExhausted = "usage_exhausted"
	ReasonBelowMinimum   = "below_minimum"
)

var reasonMessages = map[string]string{
	ReasonNotFound:       "This coupon code does not exist",
	ReasonInactive:       "This coupon is no longer active",
	ReasonNotYetValid:    "This coupon is not valid yet",
	ReasonExpired:        "This coupon has expired",
	ReasonUsageExhausted: "This coupon has reached its usage limit",
	ReasonBelowMinimum:   "Your order does not reach the minimum amount for this coupon",
}

// ErrUsageLimitReached is returned by a store when the conditional increment
// matched no row because the coupon is already at max_uses.
var ErrUsageLimitReached = errors.New("coupon usage limit reached")

type Store interface {
	// GetByCode returns nil, nil when no coupon matches.
	GetByCode(ctx context.Context, tenantID, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, couponID string) error
}

type Result struct {
	Valid          bool
	Reason         string
	Message        string
	CouponID       string
	DiscountAmount int64
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Normalize trims and uppercases a code as entered by a guest.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks applicability against the trusted subtotal. A rejected
// coupon is a valid Result with Valid=false; only store failures return an error.
func (s *Service) Validate(ctx context.Context, tenantID, code string, subtotal int64) (Result, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return rejected(ReasonNotFound), nil
	}

	c, err := s.store.GetByCode(ctx, tenantID, normalized)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load coupon: %w", err)
	}
	if c == nil {
		return rejected(ReasonNotFound), nil
	}

	if reason := s.check(c, subtotal); reason != "" {
		r := rejected(reason)
		r.CouponID = c.ID
		return r, nil
	}

	return Result{
		Valid:          true,
		CouponID:       c.ID,
		DiscountAmount: Discount(c, subtotal),
	}, nil
}

func (s *Service) check(c *models.Coupon, subtotal int64) string {
	now := s.now()

	switch {
	case !c.IsActive:
		return ReasonInactive
	case c.ValidFrom != nil && now.Before(*c.ValidFrom):
		return ReasonNotYetValid
	case c.ValidUntil != nil && now.After(*c.ValidUntil):
		return ReasonExpired
	case c.MaxUses != nil && c.CurrentUses >= *c.MaxUses:
		return ReasonUsageExhausted
	case c.MinOrderAmount != nil && subtotal < *c.MinOrderAmount:
		return ReasonBelowMinimum
	}
	return ""
}

// Discount computes the amount a valid coupon takes off subtotal. The result
// is always within [0, subtotal].
func Discount(c *models.Coupon, subtotal int64) int64 {
	if subtotal <= 0 || c.DiscountValue <= 0 {
		return 0
	}

	var d int64
	switch c.DiscountType {
	case models.DiscountFixed:
		d = c.DiscountValue
	case models.DiscountPercentage:
		pct := min(c.DiscountValue, 100)
		d = pricing.PercentOf(subtotal, decimal.NewFromInt(pct))
		if c.MaxDiscountAmount != nil && *c.MaxDiscountAmount >= 0 && d > *c.MaxDiscountAmount {
			d = *c.MaxDiscountAmount
		}
	default:
		return 0
	}

	return min(d, subtotal)
}

// IncrementUsage records one redemption. It is called after the order is
// durable and never fails the caller: errors are logged and dropped.
func (s *Service) IncrementUsage(ctx context.Context, couponID string) {
	if couponID == "" {
		return
	}

	err := s.store.IncrementUsage(ctx, couponID)
	switch {
	case errors.Is(err, ErrUsageLimitReached):
		log.WithField("coupon_id", couponID).Warn("coupon redeemed past its usage limit")
	case err != nil:
		log.WithFields(log.Fields{
			"coupon_id": couponID,
			"error":     err,
		}).Error("failed to increment coupon usage")
	}
}

// AsError turns a rejected Result into a CouponInvalid error.
func AsError(r Result) error {
	e := apperr.New(apperr.KindCouponInvalid, apperr.CodeCouponInvalid, r.Message)
	e.Fields = map[string]string{"coupon_code": r.Reason}
	return e
}

func rejected(reason string) Result {
	return Result{Reason: reason, Message: reasonMessages[reason]}
}
