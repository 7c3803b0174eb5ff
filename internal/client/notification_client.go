package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/patterns"
)

const circuitName = "notification"

// Resolver returns the current base URL of the notification service.
type Resolver func() string

// StaticURL always resolves to url.
func StaticURL(url string) Resolver {
	return func() string { return url }
}

type LowStockDigest struct {
	TenantID string                `json:"tenant_id"`
	Items    []models.LowStockItem `json:"items"`
	SentAt   time.Time             `json:"sent_at"`
}

type NotificationClient struct {
	http    *resty.Client
	circuit *patterns.CircuitBreakerWrapper
	resolve Resolver
}

func NewNotificationClient(resolve Resolver, service string) *NotificationClient {
	return &NotificationClient{
		http: resty.New().
			SetTimeout(5 * time.Second).
			SetRetryCount(0),
		circuit: patterns.NewCircuitBreaker(circuitName, service),
		resolve: resolve,
	}
}

// SendLowStockDigest posts one digest for the tenant. It reports true when
// the notification service accepted it.
func (c *NotificationClient) SendLowStockDigest(ctx context.Context, tenantID string, items []models.LowStockItem) (bool, error) {
	digest := LowStockDigest{TenantID: tenantID, Items: items, SentAt: time.Now().UTC()}

	_, err := c.circuit.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(digest).
			Post(c.resolve() + "/notifications/low-stock")
		if err != nil {
			return nil, fmt.Errorf("failed to call notification service: %w", err)
		}

		switch resp.StatusCode() {
		case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
			return nil, nil
		default:
			return nil, fmt.Errorf("notification service returned status %d: %s", resp.StatusCode(), resp.String())
		}
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
