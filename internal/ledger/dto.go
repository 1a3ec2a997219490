package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordInput groups fields for recording a transaction.
type RecordInput struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Type          string          `json:"type" validate:"required,oneof=revenue expense"`
	Category      string          `json:"category" validate:"max=100"`
	PaymentSource string          `json:"payment_source" validate:"required"`
	Item          string          `json:"item" validate:"max=200"`
	Quantity      int             `json:"quantity" validate:"min=0"`
	Notes         string          `json:"notes" validate:"max=500"`
	Date          time.Time       `json:"date" validate:"required"`
}

// ListFilter narrows the transaction listing.
type ListFilter struct {
	From *time.Time
	To   *time.Time
	Type string
}
