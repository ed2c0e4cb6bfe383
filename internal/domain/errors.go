package domain

import "fmt"

// ValidationError is a synchronous rejection of a create request: no items,
// no customer name, or an item the menu does not know. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid order: " + e.Reason }

// DispatchError wraps a failed publish after the order record was already
// persisted. The record is not rolled back; the station that never got its
// event simply stays pending.
type DispatchError struct {
	Topic string
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s failed: %v", e.Topic, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
