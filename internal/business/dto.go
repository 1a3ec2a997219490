package business

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInput groups fields required to create a business.
type CreateInput struct {
	Name             string    `json:"name" validate:"required,min=2,max=120"`
	StartDate        time.Time `json:"start_date" validate:"required"`
	AutoUpdateEquity *bool     `json:"auto_update_equity"`
}

// JoinInput carries the invite code for joining a business.
type JoinInput struct {
	InviteCode string `json:"invite_code" validate:"required,len=8"`
}

// MembersView lists members with the current equity sum. EquityConfigured is
// false in the transient state right after someone joins at 0%.
type MembersView struct {
	Members          []Member        `json:"members"`
	EquitySum        decimal.Decimal `json:"equity_sum"`
	EquityConfigured bool            `json:"equity_configured"`
}
