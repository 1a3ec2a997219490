package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bukumitra/bukumitra/internal/capital"
)

// Uncategorized is the bucket for transactions recorded without a category.
const Uncategorized = "uncategorized"

// Row is the slice of a transaction the report builders need.
type Row struct {
	Category      string
	Amount        decimal.Decimal
	Type          string
	PaymentSource string
	Date          time.Time
}

// CategoryTotal is one line of a profit & loss statement.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// ProfitLoss is the statement for one period. NetProfit may be negative.
type ProfitLoss struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Revenue      []CategoryTotal `json:"revenue"`
	Expense      []CategoryTotal `json:"expense"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}

// Opening carries the pre-period aggregates the cash flow opens with.
// Only business-paid transactions move business cash.
type Opening struct {
	BusinessRevenue decimal.Decimal
	BusinessExpense decimal.Decimal
	Contributions   decimal.Decimal
	Withdrawals     decimal.Decimal
}

// Balance folds the aggregates into the opening cash position.
func (o Opening) Balance() decimal.Decimal {
	return o.BusinessRevenue.Sub(o.BusinessExpense).Add(o.Contributions).Sub(o.Withdrawals)
}

// CashFlow is the cash statement for one period. Partner-paid expenses never
// reduce business cash: they became capital contributions instead, and are
// surfaced separately on request.
type CashFlow struct {
	From            time.Time        `json:"from"`
	To              time.Time        `json:"to"`
	OpeningBalance  decimal.Decimal  `json:"opening_balance"`
	CashIn          decimal.Decimal  `json:"cash_in"`
	CashOutBusiness decimal.Decimal  `json:"cash_out_business"`
	CashOutPartner  *decimal.Decimal `json:"cash_out_partner,omitempty"`
	ContributionsIn decimal.Decimal  `json:"contributions_in"`
	WithdrawalsOut  decimal.Decimal  `json:"withdrawals_out"`
	ClosingBalance  decimal.Decimal  `json:"closing_balance"`
}

// Dashboard bundles the figures the business dashboard renders.
type Dashboard struct {
	ProfitLoss ProfitLoss        `json:"profit_loss"`
	CashFlow   CashFlow          `json:"cash_flow"`
	Accounts   []capital.Account `json:"accounts"`
}
