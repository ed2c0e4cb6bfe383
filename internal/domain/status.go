package domain

// Status is the derived overall state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
)

// Project derives the overall status and its display label from the
// per-station states. Pure; called on read, never stored.
func Project(o Order) (Status, string) {
	kitchen, hasKitchen := o.StationState(StationKitchen)
	bar, hasBar := o.StationState(StationBar)

	switch {
	case hasKitchen && hasBar:
		switch {
		case kitchen == StateReady && bar == StateReady:
			return StatusReady, "Ready"
		case kitchen == StateReady || bar == StateReady:
			return StatusPreparing, "Preparing"
		default:
			return StatusPending, "Pending"
		}
	case hasKitchen:
		if kitchen == StateReady {
			return StatusReady, "Ready"
		}
		return StatusPending, "Cooking"
	default:
		if bar == StateReady {
			return StatusReady, "Ready"
		}
		return StatusPending, "Pouring"
	}
}
