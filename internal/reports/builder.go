package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BuildProfitLoss groups the rows per category per type. Deterministic: lines
// are sorted by category, with the uncategorized bucket last.
func BuildProfitLoss(from, to time.Time, rows []Row) ProfitLoss {
	revenue := map[string]decimal.Decimal{}
	expense := map[string]decimal.Decimal{}
	totalRevenue, totalExpense := decimal.Zero, decimal.Zero

	for _, row := range rows {
		category := row.Category
		if category == "" {
			category = Uncategorized
		}
		switch row.Type {
		case "revenue":
			revenue[category] = revenue[category].Add(row.Amount)
			totalRevenue = totalRevenue.Add(row.Amount)
		case "expense":
			expense[category] = expense[category].Add(row.Amount)
			totalExpense = totalExpense.Add(row.Amount)
		}
	}

	return ProfitLoss{
		From:         from,
		To:           to,
		Revenue:      sortedLines(revenue),
		Expense:      sortedLines(expense),
		TotalRevenue: totalRevenue,
		TotalExpense: totalExpense,
		NetProfit:    totalRevenue.Sub(totalExpense),
	}
}

// BuildCashFlow derives the period cash statement. The opening formula
// mirrors the closing recurrence, so closing(N) equals opening(N+1) exactly.
func BuildCashFlow(from, to time.Time, opening Opening, rows []Row, contributionsIn, withdrawalsOut decimal.Decimal, showAllExpenses bool) CashFlow {
	cashIn, cashOutBusiness, cashOutPartner := decimal.Zero, decimal.Zero, decimal.Zero
	for _, row := range rows {
		switch row.Type {
		case "revenue":
			cashIn = cashIn.Add(row.Amount)
		case "expense":
			if row.PaymentSource == "business" {
				cashOutBusiness = cashOutBusiness.Add(row.Amount)
			} else {
				cashOutPartner = cashOutPartner.Add(row.Amount)
			}
		}
	}

	openingBalance := opening.Balance()
	flow := CashFlow{
		From:            from,
		To:              to,
		OpeningBalance:  openingBalance,
		CashIn:          cashIn,
		CashOutBusiness: cashOutBusiness,
		ContributionsIn: contributionsIn,
		WithdrawalsOut:  withdrawalsOut,
		ClosingBalance: openingBalance.Add(cashIn).Sub(cashOutBusiness).
			Add(contributionsIn).Sub(withdrawalsOut),
	}
	if showAllExpenses {
		flow.CashOutPartner = &cashOutPartner
	}
	return flow
}

func sortedLines(totals map[string]decimal.Decimal) []CategoryTotal {
	lines := make([]CategoryTotal, 0, len(totals))
	for category, total := range totals {
		lines = append(lines, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Category == Uncategorized {
			return false
		}
		if lines[j].Category == Uncategorized {
			return true
		}
		return lines[i].Category < lines[j].Category
	})
	return lines
}
