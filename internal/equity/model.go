package equity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bukumitra/bukumitra/internal/shared"
)

// Method enumerates how a distribution was derived.
type Method string

const (
	// MethodEvenSplit divides 100% evenly across members.
	MethodEvenSplit Method = "EVEN_SPLIT"
	// MethodContributionBased derives shares from capital contribution ratios.
	MethodContributionBased Method = "CONTRIBUTION_BASED"
)

// Share is one member's equity percentage.
type Share struct {
	UserID     uuid.UUID       `json:"user_id"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Calculation is a derived equity distribution. Sum carries the rounded total
// so callers can surface rounding drift (e.g. 3 × 33.33 = 99.99).
type Calculation struct {
	Method Method          `json:"method"`
	Shares []Share         `json:"shares"`
	Sum    decimal.Decimal `json:"sum"`
}

// GuardError reports a computed distribution whose sum deviates from 100 by
// more than the tolerance. Nothing is persisted; the invalid calculation is
// attached for diagnostic display.
type GuardError struct {
	Calculation Calculation
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("equity: computed distribution sums to %s, not 100", e.Calculation.Sum)
}

func (e *GuardError) Unwrap() error {
	return shared.ErrValidation
}

var (
	oneHundred = decimal.NewFromInt(100)
	tolerance  = decimal.RequireFromString("0.01")
)

// round2 rounds to 2 decimal places, half away from zero.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// withinTolerance reports whether sum is within 0.01 of 100.
func withinTolerance(sum decimal.Decimal) bool {
	return sum.Sub(oneHundred).Abs().LessThanOrEqual(tolerance)
}
