package handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/middleware"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type OrderService interface {
	Submit(ctx context.Context, tenant models.Tenant, req models.SubmitOrderRequest) (models.OrderReceipt, error)
	PreviewCoupon(ctx context.Context, tenant models.Tenant, req models.CouponPreviewRequest) (models.CouponPreviewResponse, error)
	GetOrder(ctx context.Context, tenantID, orderID string) (*models.Order, error)
}

type OrderHandler struct {
	service OrderService
}

var jsonNamesOnce sync.Once

func NewOrderHandler(service OrderService) *OrderHandler {
	jsonNamesOnce.Do(useJSONFieldNames)
	return &OrderHandler{service: service}
}

// useJSONFieldNames makes validation errors report json field names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// SubmitOrder handles POST /t/:tenant/orders
func (h *OrderHandler) SubmitOrder(c *gin.Context) {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		middleware.RespondError(c, errors.New("tenant not resolved"))
		return
	}

	var req models.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, bindError(err))
		return
	}

	receipt, err := h.service.Submit(c.Request.Context(), tenant, req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// PreviewCoupon handles POST /t/:tenant/coupons/validate
func (h *OrderHandler) PreviewCoupon(c *gin.Context) {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		middleware.RespondError(c, errors.New("tenant not resolved"))
		return
	}

	var req models.CouponPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, bindError(err))
		return
	}

	resp, err := h.service.PreviewCoupon(c.Request.Context(), tenant, req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetOrder handles GET /t/:tenant/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		middleware.RespondError(c, errors.New("tenant not resolved"))
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), tenant.ID, c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// bindError maps binding failures to InvalidInput with per-field details.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindInvalidInput, apperr.CodeInvalidInput, "malformed request body", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}

	e := apperr.New(apperr.KindInvalidInput, apperr.CodeInvalidInput, "some fields are missing or invalid")
	e.Fields = fields
	return e
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
