package order

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"burger-bar/internal/bus"
	"burger-bar/internal/common/httpx"
	"burger-bar/internal/common/logger"
	"burger-bar/internal/connections/rabbitmq"
	"burger-bar/internal/domain"
	"burger-bar/internal/microservices/order/handler"
	"burger-bar/internal/microservices/order/repository"
	"burger-bar/internal/microservices/order/service"
	"burger-bar/internal/notify"
	"burger-bar/internal/store"
)

// Subscriptions declares what the order service consumes: the two
// completion topics, one route each.
func Subscriptions() []bus.Subscription {
	return []bus.Subscription{
		{PubsubName: bus.Exchange, Topic: domain.TopicKitchenCompleted, Route: "/kitchen-completed"},
		{PubsubName: bus.Exchange, Topic: domain.TopicBarCompleted, Route: "/bar-completed"},
	}
}

// Run wires the order service and blocks until ctx is canceled: HTTP API,
// completion consumers, and the websocket hub.
func Run(ctx context.Context, port int, pool *pgxpool.Pool, rmq *rabbitmq.Client) error {
	lg := logger.New("order-service")

	kv := store.NewPG(pool)
	if err := kv.Init(ctx); err != nil {
		return err
	}
	repo := repository.New(kv)
	busClient := bus.New(rmq, lg)

	hub := notify.NewHub(lg)
	go hub.Run(ctx)

	svc := service.NewOrderService(repo, busClient, lg)
	agg := service.NewAggregator(repo, hub, lg)

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- busClient.Subscribe(ctx, Subscriptions(), map[string]bus.Handler{
			"/kitchen-completed": agg.Handler(domain.StationKitchen),
			"/bar-completed":     agg.Handler(domain.StationBar),
		}, 1)
	}()

	h := handler.New(svc, hub, lg)
	srv := httpx.New(":"+strconv.Itoa(port), h.Router())
	lg.Info(ctx, "service_started", map[string]any{"port": port})

	if err := srv.Run(ctx); err != nil {
		return err
	}
	return <-consumerErr
}
