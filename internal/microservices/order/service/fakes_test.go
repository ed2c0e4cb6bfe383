package service

import (
	"context"
	"encoding/json"
	"sync"

	"burger-bar/internal/domain"
	"burger-bar/internal/store"
)

// memRepo is an in-memory OrderRepository with the same versioning
// semantics as the Postgres-backed one, plus hooks to inject conflicts.
type memRepo struct {
	mu      sync.Mutex
	orders  map[string]memRec
	index   domain.RecentIndex
	indexV  int64
	created []string

	// beforeUpdate runs with the lock held before an UpdateOrder version
	// check, to simulate a sibling writer sneaking in.
	beforeUpdate func(r *memRepo, id string)
	// indexConflicts fails that many PutIndex calls with a version
	// mismatch before letting one through.
	indexConflicts int
}

type memRec struct {
	order   domain.Order
	version int64
}

func newMemRepo() *memRepo {
	return &memRepo{orders: make(map[string]memRec)}
}

func (r *memRepo) CreateOrder(_ context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return store.ErrVersionMismatch
	}
	r.orders[o.ID] = memRec{order: clone(o), version: 1}
	r.created = append(r.created, o.ID)
	return nil
}

func (r *memRepo) GetOrder(_ context.Context, id string) (domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.orders[id]
	if !ok {
		return domain.Order{}, 0, store.ErrNotFound
	}
	return clone(rec.order), rec.version, nil
}

func (r *memRepo) UpdateOrder(_ context.Context, o domain.Order, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeUpdate != nil {
		hook := r.beforeUpdate
		r.beforeUpdate = nil
		hook(r, o.ID)
	}
	rec, ok := r.orders[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	if rec.version != version {
		return store.ErrVersionMismatch
	}
	r.orders[o.ID] = memRec{order: clone(o), version: version + 1}
	return nil
}

func (r *memRepo) GetIndex(_ context.Context) (domain.RecentIndex, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(domain.RecentIndex(nil), r.index...), r.indexV, nil
}

func (r *memRepo) PutIndex(_ context.Context, ix domain.RecentIndex, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexConflicts > 0 {
		r.indexConflicts--
		return store.ErrVersionMismatch
	}
	if r.indexV != version {
		return store.ErrVersionMismatch
	}
	r.index = append(domain.RecentIndex(nil), ix...)
	r.indexV++
	return nil
}

// applySibling merges a station directly, as a concurrent aggregator
// instance would. Callers must hold r.mu.
func (r *memRepo) applySibling(id string, st domain.Station, completedAt int64) {
	rec := r.orders[id]
	rec.order.MarkReady(st, completedAt)
	rec.version++
	r.orders[id] = rec
}

func clone(o domain.Order) domain.Order {
	o.Burgers = append([]string(nil), o.Burgers...)
	o.Beers = append([]string(nil), o.Beers...)
	return o
}

// fakePub records publishes and can fail selected topics.
type fakePub struct {
	mu        sync.Mutex
	published []publishedMsg
	failTopic string
	failErr   error
	onPublish func(topic string)
}

type publishedMsg struct {
	topic string
	body  []byte
}

func (p *fakePub) Publish(_ context.Context, topic string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onPublish != nil {
		p.onPublish(topic)
	}
	if p.failTopic == topic {
		return p.failErr
	}
	p.published = append(p.published, publishedMsg{topic: topic, body: append([]byte(nil), body...)})
	return nil
}

func (p *fakePub) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.published))
	for _, m := range p.published {
		out = append(out, m.topic)
	}
	return out
}

func (p *fakePub) decodeDispatch(i int) domain.DispatchMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var msg domain.DispatchMessage
	_ = json.Unmarshal(p.published[i].body, &msg)
	return msg
}

// recordingNotifier captures aggregator status broadcasts.
type recordingNotifier struct {
	mu      sync.Mutex
	updates []notified
}

type notified struct {
	orderID string
	status  domain.Status
	label   string
}

func (n *recordingNotifier) OrderUpdated(orderID string, status domain.Status, label string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, notified{orderID: orderID, status: status, label: label})
}
