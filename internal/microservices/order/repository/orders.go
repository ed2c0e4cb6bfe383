package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"burger-bar/internal/domain"
	"burger-bar/internal/store"
)

const (
	orderKeyPrefix = "order-"
	indexKey       = "order-list"
)

// OrderRepository is the persistence boundary of the order service. All
// writes are versioned so concurrent writers surface as
// store.ErrVersionMismatch instead of silently clobbering each other.
type OrderRepository interface {
	// CreateOrder inserts a fresh record; the ID must be unused.
	CreateOrder(ctx context.Context, o domain.Order) error
	// GetOrder returns the record and the version to pass to UpdateOrder.
	GetOrder(ctx context.Context, id string) (domain.Order, int64, error)
	// UpdateOrder writes o if the stored version still equals version.
	UpdateOrder(ctx context.Context, o domain.Order, version int64) error
	// GetIndex returns the recent-orders index; an index never written
	// yet comes back empty with version 0.
	GetIndex(ctx context.Context) (domain.RecentIndex, int64, error)
	// PutIndex writes ix if the stored version still equals version.
	PutIndex(ctx context.Context, ix domain.RecentIndex, version int64) error
}

type KVOrders struct {
	kv store.KV
}

func New(kv store.KV) *KVOrders { return &KVOrders{kv: kv} }

func orderKey(id string) string { return orderKeyPrefix + id }

func (r *KVOrders) CreateOrder(ctx context.Context, o domain.Order) error {
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", o.ID, err)
	}
	return r.kv.PutVersioned(ctx, orderKey(o.ID), body, 0)
}

func (r *KVOrders) GetOrder(ctx context.Context, id string) (domain.Order, int64, error) {
	body, version, err := r.kv.Get(ctx, orderKey(id))
	if err != nil {
		return domain.Order{}, 0, err
	}
	var o domain.Order
	if err := json.Unmarshal(body, &o); err != nil {
		return domain.Order{}, 0, fmt.Errorf("unmarshal order %s: %w", id, err)
	}
	return o, version, nil
}

func (r *KVOrders) UpdateOrder(ctx context.Context, o domain.Order, version int64) error {
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", o.ID, err)
	}
	return r.kv.PutVersioned(ctx, orderKey(o.ID), body, version)
}

func (r *KVOrders) GetIndex(ctx context.Context) (domain.RecentIndex, int64, error) {
	body, version, err := r.kv.Get(ctx, indexKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	var ix domain.RecentIndex
	if err := json.Unmarshal(body, &ix); err != nil {
		return nil, 0, fmt.Errorf("unmarshal index: %w", err)
	}
	return ix, version, nil
}

func (r *KVOrders) PutIndex(ctx context.Context, ix domain.RecentIndex, version int64) error {
	body, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	return r.kv.PutVersioned(ctx, indexKey, body, version)
}
