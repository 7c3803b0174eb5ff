package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

const OrderPlacedQueue = "order.placed"

// Broker is the part of messaging.RabbitMQ the publisher needs.
type Broker interface {
	DeclareQueue(name string) error
	Publish(ctx context.Context, queue string, message []byte) error
}

// Fallback runs fulfillment in-process when the broker rejects a message.
type Fallback interface {
	OrderPlaced(ctx context.Context, ev models.OrderPlacedEvent) error
}

type OrderPublisher struct {
	mq       Broker
	fallback Fallback
}

func NewOrderPublisher(mq Broker, fallback Fallback) (*OrderPublisher, error) {
	if err := mq.DeclareQueue(OrderPlacedQueue); err != nil {
		return nil, err
	}

	return &OrderPublisher{mq: mq, fallback: fallback}, nil
}

// OrderPlaced publishes an order.placed event. If publishing fails and a
// fallback is configured, the event is handed to it instead.
func (p *OrderPublisher) OrderPlaced(ctx context.Context, ev models.OrderPlacedEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.mq.Publish(ctx, OrderPlacedQueue, data)
	if err == nil {
		log.WithField("order_id", ev.OrderID).Debug("order.placed published")
		return nil
	}
	if p.fallback == nil {
		return err
	}

	log.WithFields(log.Fields{
		"order_id": ev.OrderID,
		"error":    err,
	}).Warn("publish failed, running fulfillment in-process")

	return p.fallback.OrderPlaced(ctx, ev)
}
