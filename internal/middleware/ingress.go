package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/metrics"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

const tenantKey = "tenant"

type RateLimiter interface {
	Allow(ctx context.Context, identity string) (bool, error)
}

type TenantResolver interface {
	// GetBySlug returns nil, nil for an unknown slug.
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// Ingress rate limits per tenant and client, then resolves the :tenant
// path parameter. Nothing downstream runs for a rejected request.
func Ingress(limiter RateLimiter, tenants TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("tenant")
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, slug+":"+c.ClientIP())
		if err != nil {
			log.WithField("error", err).Warn("rate limiter unavailable, allowing request")
			allowed = true
		}
		if !allowed {
			metrics.IngressRejections.WithLabelValues("rate_limited").Inc()
			RespondError(c, apperr.New(apperr.KindRateLimited, apperr.CodeRateLimited,
				"too many requests, please slow down"))
			return
		}

		tenant, err := tenants.GetBySlug(ctx, slug)
		if err != nil {
			RespondError(c, err)
			return
		}
		if tenant == nil || !tenant.Active {
			metrics.IngressRejections.WithLabelValues("tenant_not_found").Inc()
			RespondError(c, apperr.New(apperr.KindTenantNotFound, apperr.CodeTenantNotFound,
				"this restaurant could not be found"))
			return
		}

		c.Set(tenantKey, *tenant)
		c.Next()
	}
}

// TenantFrom returns the tenant resolved by Ingress.
func TenantFrom(c *gin.Context) (models.Tenant, bool) {
	v, ok := c.Get(tenantKey)
	if !ok {
		return models.Tenant{}, false
	}
	t, ok := v.(models.Tenant)
	return t, ok
}
