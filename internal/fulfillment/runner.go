package fulfillment

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/patterns"
)

var ErrRunnerClosed = errors.New("fulfillment runner closed")

type Processor interface {
	Process(ctx context.Context, ev models.OrderPlacedEvent) Outcome
}

// Runner executes fulfillment in background goroutines, detached from the
// request that placed the order. A bulkhead bounds how many run at once.
type Runner struct {
	processor Processor
	bulkhead  *patterns.Bulkhead
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRunner(processor Processor, concurrency int, service string) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		processor: processor,
		bulkhead:  patterns.NewBulkhead(concurrency, 30*time.Second, "fulfillment", service),
		timeout:   time.Minute,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OrderPlaced schedules fulfillment and returns immediately.
func (r *Runner) OrderPlaced(_ context.Context, ev models.OrderPlacedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		err := r.bulkhead.Execute(func() error {
			ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
			defer cancel()
			r.processor.Process(ctx, ev)
			return nil
		})
		if err != nil {
			log.WithFields(log.Fields{
				"order_id":  ev.OrderID,
				"tenant_id": ev.TenantID,
				"error":     err,
			}).Error("fulfillment dropped")
		}
	}()

	return nil
}

// Close stops accepting work and waits for running tasks until ctx is done,
// then cancels whatever is still in flight.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
