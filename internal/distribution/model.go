package distribution

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Distribution is one profit distribution event. Amounts are snapshots: later
// equity or ledger changes never rewrite them.
type Distribution struct {
	ID                     uuid.UUID       `json:"id"`
	BusinessID             uuid.UUID       `json:"business_id"`
	PeriodStart            time.Time       `json:"period_start"`
	PeriodEnd              time.Time       `json:"period_end"`
	TotalProfit            decimal.Decimal `json:"total_profit"`
	DistributionPercentage decimal.Decimal `json:"distribution_percentage"`
	DistributedAmount      decimal.Decimal `json:"distributed_amount"`
	RetainedAmount         decimal.Decimal `json:"retained_amount"`
	CreatedBy              uuid.UUID       `json:"created_by"`
	CreatedAt              time.Time       `json:"created_at"`
	Allocations            []Allocation    `json:"allocations,omitempty"`
}

// Allocation is one member's slice of a distribution, with the equity
// percentage frozen at distribution time.
type Allocation struct {
	ID               uuid.UUID       `json:"id"`
	DistributionID   uuid.UUID       `json:"distribution_id"`
	UserID           uuid.UUID       `json:"user_id"`
	UserName         string          `json:"user_name,omitempty"`
	EquityPercentage decimal.Decimal `json:"equity_percentage"`
	AllocatedAmount  decimal.Decimal `json:"allocated_amount"`
}

// MemberShare is a member's current equity stake, read inside the
// distribution transaction.
type MemberShare struct {
	UserID           uuid.UUID
	EquityPercentage decimal.Decimal
}
