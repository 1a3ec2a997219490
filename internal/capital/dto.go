package capital

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContributeInput groups fields for a direct member contribution.
type ContributeInput struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Type   string          `json:"type" validate:"required,oneof=initial additional"`
	Date   time.Time       `json:"date" validate:"required"`
	Notes  string          `json:"notes" validate:"max=500"`
}

// WithdrawInput groups fields for a capital withdrawal.
type WithdrawInput struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Date   time.Time       `json:"date" validate:"required"`
	Notes  string          `json:"notes" validate:"max=500"`
}
