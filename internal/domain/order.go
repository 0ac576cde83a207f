package domain

import "time"

// OrderItem carries the price the client submitted at order time, in minor
// currency units. It is deliberately not re-validated against the catalog.
type OrderItem struct {
	ProductID int64 `json:"productID"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

type Order struct {
	ID         int64       `json:"orderID"`
	CustomerID int64       `json:"customerID"`
	OrderDate  time.Time   `json:"orderDate"`
	Items      []OrderItem `json:"products"`
	TotalPrice int64       `json:"totalPrice"`
	CreatedAt  time.Time   `json:"createdAt"`
}
