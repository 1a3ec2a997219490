package equity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bukumitra/bukumitra/internal/platform/db"
)

// Repository encapsulates DB operations for equity recalculation.
// It reads contribution totals itself so recomputation always sees fresh
// state rather than caller-supplied aggregates.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	MemberIDs(ctx context.Context, businessID uuid.UUID) ([]uuid.UUID, error)
	ContributionTotals(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	MemberIDsForUpdate(ctx context.Context, businessID uuid.UUID) ([]uuid.UUID, error)
	ContributionTotals(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	UpdateEquity(ctx context.Context, businessID uuid.UUID, shares []Share) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const memberIDsQuery = `SELECT user_id FROM business_members WHERE business_id=$1 ORDER BY joined_at ASC`

const contributionTotalsQuery = `SELECT user_id, COALESCE(SUM(amount), 0)
FROM capital_contributions WHERE business_id=$1 GROUP BY user_id`

func (r *repository) MemberIDs(ctx context.Context, businessID uuid.UUID) ([]uuid.UUID, error) {
	return scanMemberIDs(r.db.Query(ctx, memberIDsQuery, businessID))
}

func (r *repository) ContributionTotals(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	return scanTotals(r.db.Query(ctx, contributionTotalsQuery, businessID))
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) MemberIDsForUpdate(ctx context.Context, businessID uuid.UUID) ([]uuid.UUID, error) {
	return scanMemberIDs(r.tx.Query(ctx, memberIDsQuery+` FOR UPDATE`, businessID))
}

func (r *txRepository) ContributionTotals(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	return scanTotals(r.tx.Query(ctx, contributionTotalsQuery, businessID))
}

// UpdateEquity rewrites every member's percentage. Callers supply the full
// member set; partial rewrites never happen because this runs inside WithTx.
func (r *txRepository) UpdateEquity(ctx context.Context, businessID uuid.UUID, shares []Share) error {
	for _, share := range shares {
		if _, err := r.tx.Exec(ctx, `UPDATE business_members SET equity_percentage=$3 WHERE business_id=$1 AND user_id=$2`,
			businessID, share.UserID, share.Percentage); err != nil {
			return err
		}
	}
	return nil
}

func scanMemberIDs(rows pgx.Rows, err error) ([]uuid.UUID, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanTotals(rows pgx.Rows, err error) (map[uuid.UUID]decimal.Decimal, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	totals := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var id uuid.UUID
		var total decimal.Decimal
		if err := rows.Scan(&id, &total); err != nil {
			return nil, err
		}
		totals[id] = total
	}
	return totals, rows.Err()
}
