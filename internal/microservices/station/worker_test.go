package station

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"burger-bar/internal/bus"
	"burger-bar/internal/common/logger"
	"burger-bar/internal/domain"
)

type capturePub struct {
	mu     sync.Mutex
	topic  string
	body   []byte
	failed error
}

func (p *capturePub) Publish(_ context.Context, topic string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed != nil {
		return p.failed
	}
	p.topic = topic
	p.body = append([]byte(nil), body...)
	return nil
}

func newTestWorker(st domain.Station, pub bus.Publisher) *Worker {
	return NewWorker(Config{
		Station:  st,
		MinDelay: time.Millisecond,
		MaxDelay: time.Millisecond,
	}, pub, logger.New("test"))
}

func TestHandleDispatchPublishesCompletion(t *testing.T) {
	pub := &capturePub{}
	w := newTestWorker(domain.StationKitchen, pub)

	body, _ := json.Marshal(domain.DispatchMessage{
		OrderID: "abc12345", CustomerName: "Ann", Items: []string{"Cheeseburger"},
	})
	before := time.Now().UTC().Unix()
	res := w.HandleDispatch(context.Background(), bus.Delivery{Topic: domain.TopicKitchenOrders, Body: body})
	if res != bus.Ack {
		t.Fatalf("result = %v, want Ack", res)
	}
	if pub.topic != domain.TopicKitchenCompleted {
		t.Errorf("completion topic = %s, want %s", pub.topic, domain.TopicKitchenCompleted)
	}
	var msg domain.CompletionMessage
	if err := json.Unmarshal(pub.body, &msg); err != nil {
		t.Fatalf("completion payload: %v", err)
	}
	if msg.OrderID != "abc12345" {
		t.Errorf("order id = %s", msg.OrderID)
	}
	if msg.CompletedAt < before {
		t.Errorf("completed_at = %d, before test start %d", msg.CompletedAt, before)
	}
}

func TestHandleDispatchDropsMalformed(t *testing.T) {
	pub := &capturePub{}
	w := newTestWorker(domain.StationBar, pub)

	for _, body := range [][]byte{[]byte("{broken"), []byte(`{"items":["IPA"]}`)} {
		if res := w.HandleDispatch(context.Background(), bus.Delivery{Body: body}); res != bus.Drop {
			t.Errorf("result for %q = %v, want Drop", body, res)
		}
	}
	if pub.topic != "" {
		t.Error("nothing should be published for dropped deliveries")
	}
}

func TestHandleDispatchDropsOnPublishFailure(t *testing.T) {
	pub := &capturePub{failed: errors.New("broker gone")}
	w := newTestWorker(domain.StationBar, pub)

	body, _ := json.Marshal(domain.DispatchMessage{OrderID: "abc12345", Items: []string{"IPA"}})
	if res := w.HandleDispatch(context.Background(), bus.Delivery{Body: body}); res != bus.Drop {
		t.Errorf("result = %v, want Drop", res)
	}
}

func TestPrepDelayBounded(t *testing.T) {
	w := NewWorker(Config{
		Station:  domain.StationKitchen,
		MinDelay: 2 * time.Millisecond,
		MaxDelay: 5 * time.Millisecond,
	}, &capturePub{}, logger.New("test"))
	for i := 0; i < 100; i++ {
		d := w.prepDelay()
		if d < 2*time.Millisecond || d > 5*time.Millisecond {
			t.Fatalf("prep delay %v outside [2ms, 5ms]", d)
		}
	}
}

func TestWorkerSubscriptions(t *testing.T) {
	w := newTestWorker(domain.StationBar, &capturePub{})
	subs := w.Subscriptions()
	if len(subs) != 1 {
		t.Fatalf("subscriptions = %d, want 1", len(subs))
	}
	want := bus.Subscription{PubsubName: bus.Exchange, Topic: domain.TopicBarOrders, Route: "/bar-orders"}
	if subs[0] != want {
		t.Errorf("subscription = %+v, want %+v", subs[0], want)
	}
}
