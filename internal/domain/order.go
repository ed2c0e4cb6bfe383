package domain

import "time"

// Station is one of the two fulfillment stations an order fans out to.
type Station string

const (
	StationKitchen Station = "kitchen"
	StationBar     Station = "bar"
)

// StationState is the per-station progress of an order. A station with no
// items assigned has no state at all ("not applicable", distinct from pending).
type StationState string

const (
	StatePending StationState = "pending"
	StateReady   StationState = "ready"
)

// Order is the persisted record. Item groups are write-once; only the
// per-station status/completed_at pairs change after creation, and only
// forward (pending -> ready).
type Order struct {
	ID           string    `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	Burgers      []string  `json:"burgers"`
	Beers        []string  `json:"beers"`
	CreatedAt    time.Time `json:"created_at"`

	KitchenStatus      StationState `json:"kitchen_status,omitempty"`
	KitchenCompletedAt int64        `json:"kitchen_completed_at,omitempty"`
	BarStatus          StationState `json:"bar_status,omitempty"`
	BarCompletedAt     int64        `json:"bar_completed_at,omitempty"`
}

// NewOrder builds a fresh order with pending state for every station that
// actually has items.
func NewOrder(id, customerName string, burgers, beers []string) Order {
	o := Order{
		ID:           id,
		CustomerName: customerName,
		Burgers:      burgers,
		Beers:        beers,
		CreatedAt:    time.Now().UTC(),
	}
	if len(burgers) > 0 {
		o.KitchenStatus = StatePending
	}
	if len(beers) > 0 {
		o.BarStatus = StatePending
	}
	return o
}

// StationItems returns the item group assigned to st.
func (o Order) StationItems(st Station) []string {
	if st == StationKitchen {
		return o.Burgers
	}
	return o.Beers
}

// StationState reports st's state; ok is false when the station is not
// applicable to this order.
func (o Order) StationState(st Station) (StationState, bool) {
	var s StationState
	if st == StationKitchen {
		s = o.KitchenStatus
	} else {
		s = o.BarStatus
	}
	return s, s != ""
}

// MarkReady asserts st's fields only, leaving the sibling station untouched.
// It reports whether the record changed: a repeat completion is a no-op and
// keeps the timestamp set by the first one.
func (o *Order) MarkReady(st Station, completedAt int64) bool {
	state, ok := o.StationState(st)
	if !ok || state == StateReady {
		return false
	}
	if st == StationKitchen {
		o.KitchenStatus = StateReady
		o.KitchenCompletedAt = completedAt
	} else {
		o.BarStatus = StateReady
		o.BarCompletedAt = completedAt
	}
	return true
}
