package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

const (
	PaymentMethodBalance = "balance"
	PaymentMethodCard    = "card"
	PaymentMethodCash    = "cash"
	PaymentMethodOnline  = "online"
)

var paymentTransitions = map[string][]string{
	PaymentStatusPending: {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded},
}

func PaymentCanTransition(from, to string) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Payment records money movement for a booking reservation or a session
// settlement. A failed payment is a collections flag: the session it belongs
// to still closed and the spot was freed.
type Payment struct {
	ID            string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	SessionID     string          `json:"session_id,omitempty" bson:"session_id,omitempty" validate:"omitempty,uuid4"`
	BookingID     string          `json:"booking_id,omitempty" bson:"booking_id,omitempty" validate:"omitempty,uuid4"`
	CustomerID    string          `json:"customer_id" bson:"customer_id" validate:"required,uuid4"`
	Amount        decimal.Decimal `json:"amount" bson:"amount"`
	Method        string          `json:"payment_method" bson:"payment_method" validate:"required,oneof=balance card cash online"`
	Status        string          `json:"status" bson:"status" validate:"required,oneof=pending completed failed refunded"`
	TransactionID string          `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}
