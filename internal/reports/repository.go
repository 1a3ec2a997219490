package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository reads the raw figures the report builders work from.
type Repository interface {
	TransactionsInPeriod(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]Row, error)
	// OpeningAggregates sums everything strictly before the given date.
	OpeningAggregates(ctx context.Context, businessID uuid.UUID, before time.Time) (Opening, error)
	FinancingInPeriod(ctx context.Context, businessID uuid.UUID, from, to time.Time) (contributions, withdrawals decimal.Decimal, err error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) TransactionsInPeriod(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]Row, error) {
	rows, err := r.db.Query(ctx, `SELECT COALESCE(category, ''), amount, type, payment_source, transaction_date
FROM transactions
WHERE business_id=$1 AND transaction_date BETWEEN $2 AND $3
ORDER BY transaction_date ASC`, businessID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Category, &row.Amount, &row.Type, &row.PaymentSource, &row.Date); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) OpeningAggregates(ctx context.Context, businessID uuid.UUID, before time.Time) (Opening, error) {
	var opening Opening
	err := r.db.QueryRow(ctx, `SELECT
	COALESCE((SELECT SUM(amount) FROM transactions
		WHERE business_id=$1 AND type='revenue' AND payment_source='business' AND transaction_date < $2), 0),
	COALESCE((SELECT SUM(amount) FROM transactions
		WHERE business_id=$1 AND type='expense' AND payment_source='business' AND transaction_date < $2), 0),
	COALESCE((SELECT SUM(amount) FROM capital_contributions
		WHERE business_id=$1 AND contribution_date < $2), 0),
	COALESCE((SELECT SUM(amount) FROM withdrawals
		WHERE business_id=$1 AND withdrawal_date < $2), 0)`,
		businessID, before).Scan(&opening.BusinessRevenue, &opening.BusinessExpense, &opening.Contributions, &opening.Withdrawals)
	return opening, err
}

func (r *repository) FinancingInPeriod(ctx context.Context, businessID uuid.UUID, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var contributions, withdrawals decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT
	COALESCE((SELECT SUM(amount) FROM capital_contributions
		WHERE business_id=$1 AND contribution_date BETWEEN $2 AND $3), 0),
	COALESCE((SELECT SUM(amount) FROM withdrawals
		WHERE business_id=$1 AND withdrawal_date BETWEEN $2 AND $3), 0)`,
		businessID, from, to).Scan(&contributions, &withdrawals)
	return contributions, withdrawals, err
}
