package distribution

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistributeInput groups fields for recording a profit distribution.
type DistributeInput struct {
	From       time.Time       `json:"from" validate:"required"`
	To         time.Time       `json:"to" validate:"required"`
	Percentage decimal.Decimal `json:"percentage" validate:"required"`
}
