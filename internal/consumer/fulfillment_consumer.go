package consumer

import (
	"context"
	"encoding/json"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/fulfillment"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type FulfillmentConsumer struct {
	processor fulfillment.Processor
	workers   int
}

func NewFulfillmentConsumer(processor fulfillment.Processor, workers int) *FulfillmentConsumer {
	if workers <= 0 {
		workers = 1
	}
	return &FulfillmentConsumer{processor: processor, workers: workers}
}

// Run handles order.placed deliveries until ctx is done or the channel
// closes. It returns after in-flight messages finish.
func (c *FulfillmentConsumer) Run(ctx context.Context, messages <-chan amqp.Delivery) {
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-messages:
					if !ok {
						return
					}
					c.handle(ctx, msg)
				}
			}
		}()
	}
	wg.Wait()
}

func (c *FulfillmentConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	var event models.OrderPlacedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.OrderID == "" || event.TenantID == "" {
		log.WithField("error", err).Error("dropping malformed order.placed message")
		msg.Nack(false, false) // don't requeue bad messages
		return
	}

	// fulfillment is best effort, a failed run is logged and not retried
	out := c.processor.Process(context.WithoutCancel(ctx), event)

	if err := msg.Ack(false); err != nil {
		log.WithFields(log.Fields{"order_id": event.OrderID, "error": err}).Error("failed to ack message")
		return
	}

	log.WithFields(log.Fields{
		"order_id":  event.OrderID,
		"tenant_id": event.TenantID,
		"destocked": out.Destocked,
		"movements": out.Movements,
		"alerts":    out.AlertsSent,
	}).Info("order.placed processed")
}
