package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

type Payment struct {
	ID        int64         `json:"paymentID"`
	OrderID   int64         `json:"orderID"`
	Method    string        `json:"paymentMethod"`
	Amount    int64         `json:"amount"`
	Status    PaymentStatus `json:"paymentStatus"`
	CreatedAt time.Time     `json:"createdAt"`
}
