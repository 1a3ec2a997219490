package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// NewAllocationReconcileHandler deletes orphaned profit allocations. A crash
// between the two delete phases of a distribution removal can leave
// allocation rows pointing at a distribution that is gone; the aggregators
// already exclude them, this job cleans them up for good.
func NewAllocationReconcileHandler(db *pgxpool.Pool, logger *slog.Logger, reconciled prometheus.Counter) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tag, err := db.Exec(ctx, `DELETE FROM profit_allocations pa
WHERE NOT EXISTS (SELECT 1 FROM profit_distributions pd WHERE pd.id = pa.distribution_id)`)
		if err != nil {
			return err
		}
		removed := tag.RowsAffected()
		if removed > 0 {
			if reconciled != nil {
				reconciled.Add(float64(removed))
			}
			logger.Info("orphaned allocations removed", slog.Int64("count", removed))
		}
		return nil
	}
}
