package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"burger-bar/internal/common/logger"
	"burger-bar/internal/domain"
	"burger-bar/internal/microservices/order/service"
	"burger-bar/internal/notify"
	"burger-bar/internal/store"
)

type fakeRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	index  domain.RecentIndex
	indexV int64
}

func newFakeRepo() *fakeRepo { return &fakeRepo{orders: make(map[string]domain.Order)} }

func (r *fakeRepo) CreateOrder(_ context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *fakeRepo) GetOrder(_ context.Context, id string) (domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, 0, store.ErrNotFound
	}
	return o, 1, nil
}

func (r *fakeRepo) UpdateOrder(_ context.Context, o domain.Order, _ int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *fakeRepo) GetIndex(_ context.Context) (domain.RecentIndex, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(domain.RecentIndex(nil), r.index...), r.indexV, nil
}

func (r *fakeRepo) PutIndex(_ context.Context, ix domain.RecentIndex, _ int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = ix
	r.indexV++
	return nil
}

type noopPub struct{}

func (noopPub) Publish(context.Context, string, []byte) error { return nil }

func newTestHandler() (*Handler, *fakeRepo) {
	lg := logger.New("test")
	repo := newFakeRepo()
	svc := service.NewOrderService(repo, noopPub{}, lg)
	return New(svc, notify.NewHub(lg), lg), repo
}

func postOrder(t *testing.T, mux http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderEndpoint(t *testing.T) {
	h, repo := newTestHandler()
	mux := h.Router()

	rec := postOrder(t, mux, url.Values{
		"customer_name": {"Ann"},
		"items":         {"Cheeseburger", "IPA"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		OrderID    string        `json:"order_id"`
		Status     domain.Status `json:"status"`
		StatusText string        `json:"status_text"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response: %v", err)
	}
	if resp.Status != domain.StatusPending || resp.StatusText != "Pending" {
		t.Errorf("status = (%s, %s)", resp.Status, resp.StatusText)
	}
	if _, _, err := repo.GetOrder(context.Background(), resp.OrderID); err != nil {
		t.Errorf("order not persisted: %v", err)
	}
}

func TestCreateOrderEndpointValidation(t *testing.T) {
	h, _ := newTestHandler()
	mux := h.Router()

	tests := []struct {
		name string
		form url.Values
	}{
		{"no items", url.Values{"customer_name": {"Ann"}}},
		{"unknown item", url.Values{"customer_name": {"Ann"}, "items": {"Salad"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postOrder(t, mux, tt.form)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["error"] == "" {
				t.Errorf("error body = %s", rec.Body)
			}
		})
	}
}

func TestListOrdersEndpoint(t *testing.T) {
	h, _ := newTestHandler()
	mux := h.Router()

	postOrder(t, mux, url.Values{"customer_name": {"Ann"}, "items": {"IPA"}})
	postOrder(t, mux, url.Values{"customer_name": {"Bob"}, "items": {"Cheeseburger"}})

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var views []service.OrderView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("response: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2", len(views))
	}
	if views[0].CustomerName != "Bob" {
		t.Errorf("most recent first expected, got %s", views[0].CustomerName)
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
