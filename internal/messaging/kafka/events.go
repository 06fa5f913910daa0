package kafka

import "time"

// EventType определяет тип события.
type EventType string

const (
	// События заказа.
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"

	// События остатков.
	EventTypeStockBatchApplied EventType = "stock.batch_applied"
)

// Topics для Kafka.
const (
	TopicOrderEvents = "shop.order.events"
	TopicStockEvents = "shop.stock.events"

	// TopicStockUpdates — входящий поток обновлений остатков из учётной
	// системы.
	TopicStockUpdates = "shop.stock.updates"
)

// OrderEvent представляет событие заказа.
type OrderEvent struct {
	EventType  EventType              `json:"event_type"`
	OrderID    string                 `json:"order_id"`
	CustomerID string                 `json:"customer_id"`
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// StockEvent представляет событие пакетного обновления остатков.
type StockEvent struct {
	EventType EventType `json:"event_type"`
	Applied   int       `json:"applied"`
	Errors    int       `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}

// StockUpdateMessage — одна позиция входящего потока остатков.
type StockUpdateMessage struct {
	SKU   string `json:"sku"`
	Stock int32  `json:"stock"`
}

// NewOrderEvent создаёт новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, customerID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:  eventType,
		OrderID:    orderID,
		CustomerID: customerID,
		Status:     status,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}
}

// NewStockEvent создаёт событие о применённом пакете остатков.
func NewStockEvent(applied, errors int) *StockEvent {
	return &StockEvent{
		EventType: EventTypeStockBatchApplied,
		Applied:   applied,
		Errors:    errors,
		Timestamp: time.Now(),
	}
}
