package order

// Status is the fulfillment stage of an order, persisted as a string.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Descriptions holds the canned human-readable description appended to
// the status history when the caller supplies none.
var Descriptions = map[Status]string{
	StatusConfirmed: "Pagado - Listo para preparar",
	StatusPreparing: "En preparación",
	StatusReady:     "Listo para recoger",
	StatusDelivered: "Entregado",
	StatusCancelled: "Orden cancelada",
}

// Allowed documents the cashier workflow as a transition graph.
// UpdateOrderStatus does not enforce it; only the cashier's
// auto-advance consults it.
var Allowed = map[Status][]Status{
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

func (s Status) Valid() bool {
	_, ok := Descriptions[s]
	return ok
}

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	return len(Allowed[s]) == 0 && s.Valid()
}

// CanTransition reports whether from -> to follows the cashier flow.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range Allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
