package models

import "time"

// Event types
const (
	EventTypeOrderCompleted = "ORDER_COMPLETED"
	EventTypeOrderDeleted   = "ORDER_DELETED"
	EventTypeStockDepleted  = "STOCK_DEPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderLineData represents a checked-out cart line in events
type OrderLineData struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	CardType    string  `json:"card_type"`
	Cards       int     `json:"cards"`
	Bottles     int     `json:"bottles"`
	LineTotal   float64 `json:"line_total"`
}

// OrderCompletedEvent published after a successful checkout
type OrderCompletedEvent struct {
	BaseEvent
	OrderID      string          `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	Total        float64         `json:"total"`
	Date         time.Time       `json:"date"`
	Items        []OrderLineData `json:"items"`
}

// OrderDeletedEvent published when an admin removes an order
type OrderDeletedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
}

// StockDepletedEvent published when a checkout drives a product's stock to zero
type StockDepletedEvent struct {
	BaseEvent
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
}
