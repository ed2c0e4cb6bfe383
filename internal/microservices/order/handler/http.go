package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"burger-bar/internal/common/logger"
	"burger-bar/internal/domain"
	"burger-bar/internal/microservices/order/service"
	"burger-bar/internal/notify"
	"burger-bar/internal/trace"
)

type Handler struct {
	svc *service.OrderService
	hub *notify.Hub
	lg  *logger.Logger
}

func New(svc *service.OrderService, hub *notify.Hub, lg *logger.Logger) *Handler {
	return &Handler{svc: svc, hub: hub, lg: lg}
}

// Router mounts the order API. Every request gets a trace ID in its
// context, taken from the inbound traceparent header when present.
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", h.traced(h.CreateOrder))
	mux.HandleFunc("GET /api/orders", h.traced(h.ListOrders))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "service": "order-service"})
	})
	mux.HandleFunc("GET /ws", h.hub.ServeWS)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (h *Handler) traced(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(trace.Header)
		if id == "" {
			id = trace.NewID()
		}
		next(w, r.WithContext(trace.WithID(r.Context(), id)))
	}
}

// CreateOrder accepts the form the menu page posts: customer_name plus a
// repeated items field.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "unparseable form")
		return
	}
	customerName := r.PostForm.Get("customer_name")
	items := r.PostForm["items"]

	order, err := h.svc.CreateOrder(r.Context(), customerName, items)
	var vErr *domain.ValidationError
	var dErr *domain.DispatchError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	case errors.As(err, &dErr):
		// The record is already persisted; only the event is lost.
		h.lg.Error(r.Context(), "order_dispatch_failed", dErr, map[string]any{"order_id": order.ID})
		writeError(w, http.StatusBadGateway, "order stored but dispatch failed")
		return
	case err != nil:
		h.lg.Error(r.Context(), "order_create_failed", err, nil)
		writeError(w, http.StatusInternalServerError, "could not create order")
		return
	}

	status, label := domain.Project(order)
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":      order.ID,
		"customer_name": order.CustomerName,
		"burgers":       order.Burgers,
		"beers":         order.Beers,
		"status":        status,
		"status_text":   label,
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListOrders(r.Context())
	if err != nil {
		h.lg.Error(r.Context(), "order_list_failed", err, nil)
		writeError(w, http.StatusInternalServerError, "could not load orders")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
