package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type classifies a transaction.
type Type string

const (
	TypeRevenue Type = "revenue"
	TypeExpense Type = "expense"
)

// PaymentSourceBusiness marks a transaction settled from the business cash
// box. Any other value is a member id: the member paid out of pocket.
const PaymentSourceBusiness = "business"

// Transaction is one revenue or expense fact.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	BusinessID      uuid.UUID       `json:"business_id"`
	Category        string          `json:"category,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Type            Type            `json:"type"`
	PaymentSource   string          `json:"payment_source"`
	Item            string          `json:"item,omitempty"`
	Quantity        int             `json:"quantity,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PaidByMember reports whether an expense was fronted from personal funds,
// returning the payer when so.
func (t Transaction) PaidByMember() (uuid.UUID, bool) {
	if t.Type != TypeExpense || t.PaymentSource == PaymentSourceBusiness {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(t.PaymentSource)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
