package capital

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContributionType enumerates how capital entered the business.
type ContributionType string

const (
	ContributionInitial    ContributionType = "initial"
	ContributionAdditional ContributionType = "additional"
	// ContributionFromExpense marks auto-capitalized partner-paid expenses.
	ContributionFromExpense ContributionType = "from_expense"
)

// Contribution is an append-only capital contribution fact.
type Contribution struct {
	ID                  uuid.UUID        `json:"id"`
	BusinessID          uuid.UUID        `json:"business_id"`
	UserID              uuid.UUID        `json:"user_id"`
	Amount              decimal.Decimal  `json:"amount"`
	Type                ContributionType `json:"type"`
	ContributionDate    time.Time        `json:"contribution_date"`
	SourceTransactionID *uuid.UUID       `json:"source_transaction_id,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// Withdrawal is an append-only capital withdrawal fact.
type Withdrawal struct {
	ID             uuid.UUID       `json:"id"`
	BusinessID     uuid.UUID       `json:"business_id"`
	UserID         uuid.UUID       `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	WithdrawalDate time.Time       `json:"withdrawal_date"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Account is the read-side capital projection for one member:
// current_balance = contributions + profit_allocated − withdrawals.
type Account struct {
	UserID               uuid.UUID       `json:"user_id"`
	Name                 string          `json:"name"`
	EquityPercentage     decimal.Decimal `json:"equity_percentage"`
	TotalContributions   decimal.Decimal `json:"total_contributions"`
	TotalProfitAllocated decimal.Decimal `json:"total_profit_allocated"`
	TotalWithdrawals     decimal.Decimal `json:"total_withdrawals"`
	CurrentBalance       decimal.Decimal `json:"current_balance"`
}
