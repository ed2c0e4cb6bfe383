package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"burger-bar/internal/bus"
	"burger-bar/internal/common/logger"
	"burger-bar/internal/domain"
	"burger-bar/internal/metrics"
	"burger-bar/internal/microservices/order/repository"
	"burger-bar/internal/store"
)

// indexRetries bounds the read-modify-write loop on the recent-orders
// index under concurrent creations.
const indexRetries = 5

const publishTimeout = 5 * time.Second

type OrderService struct {
	repo repository.OrderRepository
	pub  bus.Publisher
	lg   *logger.Logger
}

func NewOrderService(repo repository.OrderRepository, pub bus.Publisher, lg *logger.Logger) *OrderService {
	return &OrderService{repo: repo, pub: pub, lg: lg}
}

// OrderView is what the listing endpoint returns: the record plus the
// status derived on read.
type OrderView struct {
	OrderID      string        `json:"order_id"`
	CustomerName string        `json:"customer_name"`
	Burgers      []string      `json:"burgers"`
	Beers        []string      `json:"beers"`
	CreatedAt    time.Time     `json:"created_at"`
	Status       domain.Status `json:"status"`
	StatusText   string        `json:"status_text"`
}

// CreateOrder validates and classifies the request, persists the record
// and the index, and only then dispatches one event per non-empty station
// group. The store write is committed before any publish, so a station
// consumer always finds the record; a publish failure comes back as a
// DispatchError with the record left in place.
func (s *OrderService) CreateOrder(ctx context.Context, customerName string, items []string) (domain.Order, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return domain.Order{}, &domain.ValidationError{Reason: "customer name is required"}
	}
	if len(items) == 0 {
		return domain.Order{}, &domain.ValidationError{Reason: "at least one item is required"}
	}
	burgers, beers, err := domain.Classify(items)
	if err != nil {
		return domain.Order{}, err
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	order := domain.NewOrder(id, customerName, burgers, beers)

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("persist order %s: %w", id, err)
	}
	if err := s.prependToIndex(ctx, id); err != nil {
		return domain.Order{}, err
	}
	s.lg.Info(ctx, "order_persisted", map[string]any{
		"order_id": id, "burgers": len(burgers), "beers": len(beers),
	})
	metrics.OrdersCreated.Inc()

	for _, st := range []domain.Station{domain.StationKitchen, domain.StationBar} {
		group := order.StationItems(st)
		if len(group) == 0 {
			continue
		}
		if err := s.dispatch(ctx, st, order, group); err != nil {
			// The record stays: partial dispatch is tolerable, rollback
			// is not. Hand the persisted order back with the error.
			return order, err
		}
	}
	return order, nil
}

func (s *OrderService) dispatch(ctx context.Context, st domain.Station, order domain.Order, items []string) error {
	topic := domain.OrdersTopic(st)
	body, err := json.Marshal(domain.DispatchMessage{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Items:        items,
	})
	if err != nil {
		return &domain.DispatchError{Topic: topic, Err: err}
	}
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.pub.Publish(pctx, topic, body); err != nil {
		s.lg.Error(ctx, "dispatch_failed", err, map[string]any{"order_id": order.ID, "topic": topic})
		return &domain.DispatchError{Topic: topic, Err: err}
	}
	s.lg.Debug(ctx, "order_dispatched", map[string]any{"order_id": order.ID, "topic": topic})
	return nil
}

// prependToIndex runs the versioned read-modify-write loop. Concurrent
// creations conflict on the version and retry with a fresh read, so the
// index never loses entries, never exceeds capacity, and never holds
// duplicates.
func (s *OrderService) prependToIndex(ctx context.Context, id string) error {
	for attempt := 0; attempt < indexRetries; attempt++ {
		ix, version, err := s.repo.GetIndex(ctx)
		if err != nil {
			return fmt.Errorf("read index: %w", err)
		}
		err = s.repo.PutIndex(ctx, ix.Prepend(id), version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionMismatch) {
			return fmt.Errorf("write index: %w", err)
		}
		metrics.MergeConflicts.Inc()
	}
	return fmt.Errorf("index update for %s: retries exhausted", id)
}

// ListOrders returns the recent orders, most recent first, with derived
// status. IDs whose records are missing are skipped rather than failing
// the whole listing.
func (s *OrderService) ListOrders(ctx context.Context) ([]OrderView, error) {
	ix, _, err := s.repo.GetIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	views := make([]OrderView, 0, len(ix))
	for _, id := range ix {
		o, _, err := s.repo.GetOrder(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		status, label := domain.Project(o)
		views = append(views, OrderView{
			OrderID:      o.ID,
			CustomerName: o.CustomerName,
			Burgers:      o.Burgers,
			Beers:        o.Beers,
			CreatedAt:    o.CreatedAt,
			Status:       status,
			StatusText:   label,
		})
	}
	return views, nil
}
