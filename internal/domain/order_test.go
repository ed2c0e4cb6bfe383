package domain

import "testing"

func TestNewOrderStationStates(t *testing.T) {
	o := NewOrder("abc123", "Ann", []string{"Cheeseburger"}, nil)
	if st, ok := o.StationState(StationKitchen); !ok || st != StatePending {
		t.Errorf("kitchen state = (%s, %v), want (pending, true)", st, ok)
	}
	if _, ok := o.StationState(StationBar); ok {
		t.Error("bar should not be applicable for a burgers-only order")
	}
}

func TestMarkReady(t *testing.T) {
	o := NewOrder("abc123", "Ann", []string{"Cheeseburger"}, []string{"IPA"})

	if !o.MarkReady(StationKitchen, 100) {
		t.Fatal("first MarkReady should change the record")
	}
	if o.KitchenStatus != StateReady || o.KitchenCompletedAt != 100 {
		t.Errorf("kitchen = (%s, %d), want (ready, 100)", o.KitchenStatus, o.KitchenCompletedAt)
	}
	if o.BarStatus != StatePending || o.BarCompletedAt != 0 {
		t.Errorf("bar fields touched by a kitchen merge: (%s, %d)", o.BarStatus, o.BarCompletedAt)
	}

	// A duplicate completion with a later timestamp must not move the clock.
	if o.MarkReady(StationKitchen, 200) {
		t.Error("second MarkReady should be a no-op")
	}
	if o.KitchenCompletedAt != 100 {
		t.Errorf("duplicate overwrote timestamp: %d", o.KitchenCompletedAt)
	}
}

func TestMarkReadyNotApplicable(t *testing.T) {
	o := NewOrder("abc123", "Ann", []string{"Cheeseburger"}, nil)
	if o.MarkReady(StationBar, 100) {
		t.Error("MarkReady on a non-applicable station should be a no-op")
	}
	if o.BarStatus != "" {
		t.Errorf("bar state fabricated: %s", o.BarStatus)
	}
}
