package domain

import "time"

type OrderCreatedEvent struct {
	EventID    string      `json:"eventID"`
	OrderID    int64       `json:"orderID"`
	CustomerID int64       `json:"customerID"`
	Items      []OrderItem `json:"products"`
	TotalPrice int64       `json:"totalPrice"`
	Timestamp  time.Time   `json:"timestamp"`
}
