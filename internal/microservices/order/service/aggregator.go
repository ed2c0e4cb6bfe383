package service

import (
	"context"
	"encoding/json"
	"errors"

	"burger-bar/internal/bus"
	"burger-bar/internal/common/logger"
	"burger-bar/internal/domain"
	"burger-bar/internal/metrics"
	"burger-bar/internal/microservices/order/repository"
	"burger-bar/internal/store"
)

// mergeRetries bounds the optimistic retry loop when the kitchen and bar
// completions race on the same record.
const mergeRetries = 5

// Notifier receives status changes after a successful merge. The websocket
// hub implements it; tests use a recorder.
type Notifier interface {
	OrderUpdated(orderID string, status domain.Status, label string)
}

// Aggregator folds per-station completion events back into the order
// record. Every failure resolves to Drop: redelivery is the broker's
// business and there is no dead-letter capture here.
type Aggregator struct {
	repo     repository.OrderRepository
	notifier Notifier
	lg       *logger.Logger
}

func NewAggregator(repo repository.OrderRepository, notifier Notifier, lg *logger.Logger) *Aggregator {
	return &Aggregator{repo: repo, notifier: notifier, lg: lg}
}

// Handler returns the bus handler for st's completion topic.
func (a *Aggregator) Handler(st domain.Station) bus.Handler {
	return func(ctx context.Context, d bus.Delivery) bus.Result {
		return a.apply(ctx, st, d.Body)
	}
}

// apply is the idempotent, field-scoped merge. Only st's status and
// timestamp are asserted; a version conflict means the sibling station
// wrote concurrently, so re-read and try again on the fresh record.
func (a *Aggregator) apply(ctx context.Context, st domain.Station, body []byte) bus.Result {
	var msg domain.CompletionMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.OrderID == "" {
		a.lg.Error(ctx, "completion_unparseable", err, map[string]any{"station": st})
		return bus.Drop
	}

	for attempt := 0; attempt < mergeRetries; attempt++ {
		order, version, err := a.repo.GetOrder(ctx, msg.OrderID)
		if errors.Is(err, store.ErrNotFound) {
			// Unknown ID: predates this deployment or is garbage.
			// Never fabricate a record for it.
			a.lg.Error(ctx, "completion_unknown_order", nil, map[string]any{
				"order_id": msg.OrderID, "station": st,
			})
			return bus.Drop
		}
		if err != nil {
			a.lg.Error(ctx, "completion_load_failed", err, map[string]any{"order_id": msg.OrderID})
			return bus.Drop
		}

		if _, applicable := order.StationState(st); !applicable {
			a.lg.Error(ctx, "completion_station_not_applicable", nil, map[string]any{
				"order_id": msg.OrderID, "station": st,
			})
			return bus.Drop
		}
		if !order.MarkReady(st, msg.CompletedAt) {
			// Duplicate delivery; the first application already set the
			// timestamp. Confirm and move on.
			return bus.Ack
		}

		err = a.repo.UpdateOrder(ctx, order, version)
		if err == nil {
			a.lg.Info(ctx, "completion_merged", map[string]any{
				"order_id": msg.OrderID, "station": st,
			})
			status, label := domain.Project(order)
			if a.notifier != nil {
				a.notifier.OrderUpdated(order.ID, status, label)
			}
			return bus.Ack
		}
		if !errors.Is(err, store.ErrVersionMismatch) {
			a.lg.Error(ctx, "completion_write_failed", err, map[string]any{"order_id": msg.OrderID})
			return bus.Drop
		}
		metrics.MergeConflicts.Inc()
	}

	a.lg.Error(ctx, "completion_merge_exhausted", nil, map[string]any{
		"order_id": msg.OrderID, "station": st, "attempts": mergeRetries,
	})
	return bus.Drop
}
