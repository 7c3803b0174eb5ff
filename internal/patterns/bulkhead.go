package patterns

import (
	"fmt"
	"time"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/metrics"
)

// Bulkhead caps how many tasks of one kind run at the same time.
type Bulkhead struct {
	semaphore chan struct{}
	wait      time.Duration
	name      string
	service   string
}

// NewBulkhead creates a bulkhead of the given size. A task waits at most
// wait for a free slot before it is rejected.
func NewBulkhead(size int, wait time.Duration, name, service string) *Bulkhead {
	if size <= 0 {
		size = 1
	}
	return &Bulkhead{
		semaphore: make(chan struct{}, size),
		wait:      wait,
		name:      name,
		service:   service,
	}
}

// Execute runs fn within the bulkhead's limits.
func (b *Bulkhead) Execute(fn func() error) error {
	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	select {
	case b.semaphore <- struct{}{}:
		metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Inc()

		defer func() {
			<-b.semaphore
			metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Dec()
		}()

		return fn()

	case <-timer.C:
		metrics.BulkheadRejectedRequests.WithLabelValues(b.service, b.name).Inc()
		return fmt.Errorf("bulkhead %s: timeout acquiring slot", b.name)
	}
}

func (b *Bulkhead) Name() string {
	return b.name
}
