package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// NewEquityDriftCheckHandler warn-logs every business whose member equity sum
// deviates from 100 by more than the tolerance. Transient drift is expected
// right after a member joins; persistent drift means nobody reapplied the
// split.
func NewEquityDriftCheckHandler(db *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	tolerance := decimal.RequireFromString("0.01")
	oneHundred := decimal.NewFromInt(100)
	return func(ctx context.Context, t *asynq.Task) error {
		rows, err := db.Query(ctx, `SELECT business_id, SUM(equity_percentage)
FROM business_members GROUP BY business_id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var businessID string
			var sum decimal.Decimal
			if err := rows.Scan(&businessID, &sum); err != nil {
				return err
			}
			if sum.Sub(oneHundred).Abs().GreaterThan(tolerance) {
				logger.Warn("equity sum drifted from 100",
					slog.String("business_id", businessID),
					slog.String("sum", sum.String()))
			}
		}
		return rows.Err()
	}
}
