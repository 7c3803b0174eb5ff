package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

type fakeBroker struct {
	declared  []string
	published map[string][][]byte
	err       error
}

func (b *fakeBroker) DeclareQueue(name string) error {
	b.declared = append(b.declared, name)
	return nil
}

func (b *fakeBroker) Publish(ctx context.Context, queue string, message []byte) error {
	if b.err != nil {
		return b.err
	}
	if b.published == nil {
		b.published = map[string][][]byte{}
	}
	b.published[queue] = append(b.published[queue], message)
	return nil
}

type fakeFallback struct {
	events []models.OrderPlacedEvent
}

func (f *fakeFallback) OrderPlaced(ctx context.Context, ev models.OrderPlacedEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func TestOrderPlacedPublishes(t *testing.T) {
	b := &fakeBroker{}
	fb := &fakeFallback{}
	p, err := NewOrderPublisher(b, fb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.declared) != 1 || b.declared[0] != OrderPlacedQueue {
		t.Fatalf("declared %v", b.declared)
	}

	ev := models.OrderPlacedEvent{OrderID: "o1", TenantID: "t1", OrderNumber: "ORD-000001", Total: 2560}
	if err := p.OrderPlaced(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := b.published[OrderPlacedQueue]
	if len(msgs) != 1 {
		t.Fatalf("published %d messages", len(msgs))
	}
	var decoded models.OrderPlacedEvent
	if err := json.Unmarshal(msgs[0], &decoded); err != nil || decoded.OrderID != "o1" || decoded.Total != 2560 {
		t.Fatalf("decoded %+v err=%v", decoded, err)
	}
	if len(fb.events) != 0 {
		t.Fatal("fallback used although publish succeeded")
	}
}

func TestOrderPlacedFallsBack(t *testing.T) {
	b := &fakeBroker{err: errors.New("channel closed")}
	fb := &fakeFallback{}
	p, _ := NewOrderPublisher(b, fb)

	if err := p.OrderPlaced(context.Background(), models.OrderPlacedEvent{OrderID: "o2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fb.events) != 1 || fb.events[0].OrderID != "o2" {
		t.Fatalf("fallback events %+v", fb.events)
	}

	noFallback, _ := NewOrderPublisher(b, nil)
	if err := noFallback.OrderPlaced(context.Background(), models.OrderPlacedEvent{OrderID: "o3"}); err == nil {
		t.Fatal("expected publish error without fallback")
	}
}
