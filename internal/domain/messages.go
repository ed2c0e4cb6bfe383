package domain

// Topic names on the orderpubsub exchange.
const (
	TopicKitchenOrders    = "kitchen-orders"
	TopicBarOrders        = "bar-orders"
	TopicKitchenCompleted = "kitchen-completed"
	TopicBarCompleted     = "bar-completed"
)

// OrdersTopic is the dispatch topic for st.
func OrdersTopic(st Station) string {
	if st == StationKitchen {
		return TopicKitchenOrders
	}
	return TopicBarOrders
}

// CompletedTopic is the completion topic for st.
func CompletedTopic(st Station) string {
	if st == StationKitchen {
		return TopicKitchenCompleted
	}
	return TopicBarCompleted
}

// DispatchMessage is published once per non-empty station group when an
// order is created.
type DispatchMessage struct {
	OrderID      string   `json:"order_id"`
	CustomerName string   `json:"customer_name"`
	Items        []string `json:"items"`
}

// CompletionMessage is published by a station when it finishes its part
// of an order. CompletedAt is epoch seconds.
type CompletionMessage struct {
	OrderID     string `json:"order_id"`
	CompletedAt int64  `json:"completed_at"`
}
