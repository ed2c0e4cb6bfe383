package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"burger-bar/internal/bus"
	"burger-bar/internal/common/logger"
	"burger-bar/internal/config"
	"burger-bar/internal/connections/database"
	"burger-bar/internal/connections/rabbitmq"
	"burger-bar/internal/domain"
	"burger-bar/internal/microservices/order"
	"burger-bar/internal/microservices/station"
)

func main() {
	mode := flag.String("mode", "", "order-service | kitchen-worker | bar-worker")
	cfgPath := flag.String("config", "config.yaml", "path to YAML config")
	port := flag.Int("port", 0, "http port (order-service only)")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		lg.Error(ctx, "config_load_failed", err, nil)
		os.Exit(1)
	}

	rmq, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		lg.Error(ctx, "rabbitmq_connect_failed", err, nil)
		os.Exit(1)
	}
	defer rmq.Close()
	if err := rmq.Ping(); err != nil {
		lg.Error(ctx, "rabbitmq_ping_failed", err, nil)
		os.Exit(1)
	}

	switch *mode {
	case "order-service":
		if *port == 0 {
			*port = cfg.HTTP.Port
		}
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			lg.Error(ctx, "db_connect_failed", err, nil)
			os.Exit(1)
		}
		defer pool.Close()
		if err := order.Run(ctx, *port, pool, rmq); err != nil {
			lg.Error(ctx, "fatal", err, nil)
			os.Exit(1)
		}
	case "kitchen-worker":
		runStation(ctx, lg, rmq, domain.StationKitchen, cfg.Kitchen)
	case "bar-worker":
		runStation(ctx, lg, rmq, domain.StationBar, cfg.Bar)
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: order-service | kitchen-worker | bar-worker")
		os.Exit(2)
	}
}

func runStation(ctx context.Context, lg *logger.Logger, rmq *rabbitmq.Client, st domain.Station, sc config.StationConfig) {
	wlg := logger.New(string(st) + "-worker")
	busClient := bus.New(rmq, wlg)
	w := station.NewWorker(station.Config{
		Station:  st,
		MinDelay: time.Duration(sc.MinDelayMs) * time.Millisecond,
		MaxDelay: time.Duration(sc.MaxDelayMs) * time.Millisecond,
		Prefetch: sc.Prefetch,
	}, busClient, wlg)
	if err := w.Run(ctx, busClient); err != nil {
		lg.Error(ctx, "fatal", err, nil)
		os.Exit(1)
	}
}
