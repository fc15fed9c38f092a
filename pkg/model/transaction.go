package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeTopUp  = "topup"
	TransactionTypeDebit  = "debit"
	TransactionTypeCredit = "credit"
	TransactionTypeRefund = "refund"
)

// Transaction is an audit row for every balance mutation. BalanceBefore and
// BalanceAfter come from the atomically updated customer document.
type Transaction struct {
	ID            string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	CustomerID    string          `json:"customer_id" bson:"customer_id" validate:"required,uuid4"`
	Amount        decimal.Decimal `json:"amount" bson:"amount"`
	Type          string          `json:"type" bson:"type" validate:"required,oneof=topup debit credit refund"`
	Description   string          `json:"description,omitempty" bson:"description,omitempty"`
	BalanceBefore decimal.Decimal `json:"balance_before" bson:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" bson:"balance_after"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
}
