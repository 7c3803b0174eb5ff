// Package ordering turns an untrusted cart into a stored, correctly priced
// order and hands it to post-commit fulfillment.
package ordering

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/coupon"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/metrics"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/pricing"
)

const maxNotesLength = 500

type Revalidator interface {
	Revalidate(ctx context.Context, tenantID string, cart []models.CartLine) (catalog.Result, error)
}

type Coupons interface {
	Validate(ctx context.Context, tenantID, code string, subtotal int64) (coupon.Result, error)
	IncrementUsage(ctx context.Context, couponID string)
}

// Writer persists an order header and its lines as one unit.
type Writer interface {
	Create(ctx context.Context, tenantID string, lines []models.TrustedLine, pricing models.PricingBreakdown, meta models.OrderMetadata) (models.OrderReceipt, error)
}

type Reader interface {
	// GetOrder returns nil, nil when the order does not exist for the tenant.
	GetOrder(ctx context.Context, tenantID, orderID string) (*models.Order, error)
}

// SideEffects receives orders that are already durable. Implementations
// must not block on fulfillment work.
type SideEffects interface {
	OrderPlaced(ctx context.Context, ev models.OrderPlacedEvent) error
}

type Service struct {
	catalog     Revalidator
	coupons     Coupons
	writer      Writer
	reader      Reader
	sideEffects SideEffects
	now         func() time.Time
}

func NewService(rv Revalidator, coupons Coupons, writer Writer, reader Reader, se SideEffects) *Service {
	return &Service{
		catalog:     rv,
		coupons:     coupons,
		writer:      writer,
		reader:      reader,
		sideEffects: se,
		now:         time.Now,
	}
}

// Submit runs the pipeline up to the durable write and returns the receipt.
// Everything after the write is best effort and never changes the result.
func (s *Service) Submit(ctx context.Context, tenant models.Tenant, req models.SubmitOrderRequest) (models.OrderReceipt, error) {
	receipt, err := s.submit(ctx, tenant, req)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues(string(apperr.KindOf(err))).Inc()
		return models.OrderReceipt{}, err
	}

	metrics.OrdersTotal.WithLabelValues("created").Inc()
	metrics.OrderTotalMinor.Observe(float64(receipt.Total))
	return receipt, nil
}

func (s *Service) submit(ctx context.Context, tenant models.Tenant, req models.SubmitOrderRequest) (models.OrderReceipt, error) {
	meta, err := metadataFrom(req)
	if err != nil {
		return models.OrderReceipt{}, err
	}

	trusted, err := s.catalog.Revalidate(ctx, tenant.ID, req.Items)
	if err != nil {
		return models.OrderReceipt{}, err
	}

	var discount int64
	if strings.TrimSpace(req.CouponCode) != "" {
		res, err := s.coupons.Validate(ctx, tenant.ID, req.CouponCode, trusted.Subtotal)
		if err != nil {
			return models.OrderReceipt{}, err
		}
		if !res.Valid {
			metrics.CouponRejections.WithLabelValues(res.Reason).Inc()
			return models.OrderReceipt{}, coupon.AsError(res)
		}
		discount = res.DiscountAmount
		meta.CouponID = res.CouponID
	}

	breakdown := pricing.Compute(trusted.Subtotal, tenant.Tax, discount)

	receipt, err := s.writer.Create(ctx, tenant.ID, trusted.Lines, breakdown, meta)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return models.OrderReceipt{}, err
		}
		return models.OrderReceipt{}, apperr.Wrap(apperr.KindOrderPersistence, apperr.CodePersistence,
			"the order could not be saved, please try again", err)
	}

	logger := log.WithFields(log.Fields{
		"order_id":     receipt.OrderID,
		"order_number": receipt.OrderNumber,
		"tenant_id":    tenant.ID,
		"total":        receipt.Total,
	})
	logger.Info("order created")

	// the response no longer depends on the caller's context
	after := context.WithoutCancel(ctx)

	if meta.CouponID != "" {
		s.coupons.IncrementUsage(after, meta.CouponID)
	}

	ev := models.OrderPlacedEvent{
		OrderID:     receipt.OrderID,
		TenantID:    tenant.ID,
		OrderNumber: receipt.OrderNumber,
		Total:       receipt.Total,
		PlacedAt:    s.now().UTC(),
	}
	if err := s.sideEffects.OrderPlaced(after, ev); err != nil {
		logger.WithField("error", err).Error("failed to schedule fulfillment")
	}

	return receipt, nil
}

// PreviewCoupon prices the cart with the coupon applied without storing
// anything. A rejected coupon is reported in the response, not as an error.
func (s *Service) PreviewCoupon(ctx context.Context, tenant models.Tenant, req models.CouponPreviewRequest) (models.CouponPreviewResponse, error) {
	trusted, err := s.catalog.Revalidate(ctx, tenant.ID, req.Items)
	if err != nil {
		return models.CouponPreviewResponse{}, err
	}

	res, err := s.coupons.Validate(ctx, tenant.ID, req.CouponCode, trusted.Subtotal)
	if err != nil {
		return models.CouponPreviewResponse{}, err
	}

	resp := models.CouponPreviewResponse{
		Valid:          res.Valid,
		Reason:         res.Reason,
		Message:        res.Message,
		DiscountAmount: res.DiscountAmount,
		Pricing:        pricing.Compute(trusted.Subtotal, tenant.Tax, res.DiscountAmount),
	}
	if res.Valid {
		resp.CouponID = res.CouponID
	}
	return resp, nil
}

func (s *Service) GetOrder(ctx context.Context, tenantID, orderID string) (*models.Order, error) {
	order, err := s.reader.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperr.New(apperr.KindOrderNotFound, apperr.CodeOrderNotFound, "order not found")
	}
	return order, nil
}

// metadataFrom checks the fields each service type requires before any lookup.
func metadataFrom(req models.SubmitOrderRequest) (models.OrderMetadata, error) {
	meta := models.OrderMetadata{
		ServiceType:     req.ServiceType,
		TableNumber:     strings.TrimSpace(req.TableNumber),
		RoomNumber:      strings.TrimSpace(req.RoomNumber),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		Notes:           strings.TrimSpace(req.Notes),
	}

	switch meta.ServiceType {
	case models.ServiceDineIn, models.ServiceTakeaway:
	case models.ServiceDelivery:
		if meta.DeliveryAddress == "" {
			return meta, apperr.Invalid(apperr.CodeInvalidInput, "delivery_address", "a delivery address is required for delivery orders")
		}
	case models.ServiceRoomService:
		if meta.RoomNumber == "" {
			return meta, apperr.Invalid(apperr.CodeInvalidInput, "room_number", "a room number is required for room service orders")
		}
	default:
		return meta, apperr.Invalid(apperr.CodeInvalidInput, "service_type", "unknown service type")
	}

	if len([]rune(meta.Notes)) > maxNotesLength {
		return meta, apperr.Invalid(apperr.CodeInvalidInput, "notes", "notes are too long")
	}

	return meta, nil
}
