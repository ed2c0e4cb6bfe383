// Package station is the fulfillment worker shared by the kitchen and the
// bar: consume the station's dispatch topic, simulate preparation for a
// bounded random time, publish exactly one completion event.
package station

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"burger-bar/internal/bus"
	"burger-bar/internal/common/logger"
	"burger-bar/internal/domain"
	"burger-bar/internal/metrics"
)

const publishTimeout = 5 * time.Second

type Config struct {
	Station  domain.Station
	MinDelay time.Duration
	MaxDelay time.Duration
	Prefetch int
}

type Worker struct {
	cfg Config
	pub bus.Publisher
	lg  *logger.Logger
}

func NewWorker(cfg Config, pub bus.Publisher, lg *logger.Logger) *Worker {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = time.Second
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Worker{cfg: cfg, pub: pub, lg: lg}
}

// Subscriptions declares the one topic this station consumes.
func (w *Worker) Subscriptions() []bus.Subscription {
	topic := domain.OrdersTopic(w.cfg.Station)
	return []bus.Subscription{
		{PubsubName: bus.Exchange, Topic: topic, Route: "/" + topic},
	}
}

// Run consumes dispatch events until ctx is canceled.
func (w *Worker) Run(ctx context.Context, subscriber *bus.Client) error {
	topic := domain.OrdersTopic(w.cfg.Station)
	w.lg.Info(ctx, "worker_started", map[string]any{
		"station": w.cfg.Station, "topic": topic,
	})
	return subscriber.Subscribe(ctx, w.Subscriptions(), map[string]bus.Handler{
		"/" + topic: w.HandleDispatch,
	}, w.cfg.Prefetch)
}

// HandleDispatch processes one order. Preparation always runs to the end
// and always attempts exactly one completion publish; there is no
// cancellation mid-prep. A failed publish is dropped after logging; the
// order stays pending, which is the accepted loss mode.
func (w *Worker) HandleDispatch(ctx context.Context, d bus.Delivery) bus.Result {
	var msg domain.DispatchMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.OrderID == "" {
		w.lg.Error(ctx, "dispatch_unparseable", err, map[string]any{"station": w.cfg.Station})
		return bus.Drop
	}
	w.lg.Info(ctx, "order_received", map[string]any{
		"order_id": msg.OrderID, "customer": msg.CustomerName, "items": len(msg.Items),
	})

	prep := w.prepDelay()
	start := time.Now()
	time.Sleep(prep)
	metrics.StationDuration.WithLabelValues(string(w.cfg.Station)).Observe(time.Since(start).Seconds())

	body, err := json.Marshal(domain.CompletionMessage{
		OrderID:     msg.OrderID,
		CompletedAt: time.Now().UTC().Unix(),
	})
	if err != nil {
		return bus.Drop
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := w.pub.Publish(pctx, domain.CompletedTopic(w.cfg.Station), body); err != nil {
		w.lg.Error(ctx, "completion_publish_failed", err, map[string]any{"order_id": msg.OrderID})
		return bus.Drop
	}
	w.lg.Info(ctx, "order_completed", map[string]any{
		"order_id": msg.OrderID, "prep_ms": prep.Milliseconds(),
	})
	return bus.Ack
}

func (w *Worker) prepDelay() time.Duration {
	span := w.cfg.MaxDelay - w.cfg.MinDelay
	if span <= 0 {
		return w.cfg.MinDelay
	}
	return w.cfg.MinDelay + time.Duration(rand.Int63n(int64(span)+1))
}
