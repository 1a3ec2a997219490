package distribution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bukumitra/bukumitra/internal/platform/db"
	"github.com/bukumitra/bukumitra/internal/shared"
)

// Repository encapsulates DB operations for profit distributions.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, businessID uuid.UUID) ([]Distribution, error)
	Get(ctx context.Context, id uuid.UUID) (Distribution, error)
}

// TxRepository exposes methods available within a transaction. NetProfit and
// MemberShares read from the same snapshot the inserts commit against.
type TxRepository interface {
	NetProfit(ctx context.Context, businessID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	MemberShares(ctx context.Context, businessID uuid.UUID) ([]MemberShare, error)
	InsertDistribution(ctx context.Context, d Distribution) error
	InsertAllocation(ctx context.Context, a Allocation) error
	DeleteAllocations(ctx context.Context, distributionID uuid.UUID) error
	DeleteDistribution(ctx context.Context, distributionID uuid.UUID) error
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

const distributionColumns = `id, business_id, period_start, period_end, total_profit,
	distribution_percentage, distributed_amount, retained_amount, created_by, created_at`

func (r *repository) List(ctx context.Context, businessID uuid.UUID) ([]Distribution, error) {
	rows, err := r.db.Query(ctx, `SELECT `+distributionColumns+`
FROM profit_distributions WHERE business_id=$1 ORDER BY period_end DESC, created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Distribution
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Distribution, error) {
	row := r.db.QueryRow(ctx, `SELECT `+distributionColumns+` FROM profit_distributions WHERE id=$1`, id)
	d, err := scanDistribution(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Distribution{}, fmt.Errorf("distribution: %w", shared.ErrNotFound)
		}
		return Distribution{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, distribution_id, user_id, equity_percentage, allocated_amount
FROM profit_allocations WHERE distribution_id=$1 ORDER BY allocated_amount DESC`, id)
	if err != nil {
		return Distribution{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.ID, &a.DistributionID, &a.UserID, &a.EquityPercentage, &a.AllocatedAmount); err != nil {
			return Distribution{}, err
		}
		d.Allocations = append(d.Allocations, a)
	}
	return d, rows.Err()
}

func scanDistribution(row pgx.Row) (Distribution, error) {
	var d Distribution
	err := row.Scan(&d.ID, &d.BusinessID, &d.PeriodStart, &d.PeriodEnd, &d.TotalProfit,
		&d.DistributionPercentage, &d.DistributedAmount, &d.RetainedAmount, &d.CreatedBy, &d.CreatedAt)
	return d, err
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NetProfit(ctx context.Context, businessID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var net decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT
	COALESCE(SUM(CASE WHEN type='revenue' THEN amount ELSE -amount END), 0)
FROM transactions WHERE business_id=$1 AND transaction_date BETWEEN $2 AND $3`,
		businessID, from, to).Scan(&net)
	return net, err
}

func (r *txRepository) MemberShares(ctx context.Context, businessID uuid.UUID) ([]MemberShare, error) {
	rows, err := r.tx.Query(ctx, `SELECT user_id, equity_percentage
FROM business_members WHERE business_id=$1 ORDER BY joined_at ASC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MemberShare
	for rows.Next() {
		var share MemberShare
		if err := rows.Scan(&share.UserID, &share.EquityPercentage); err != nil {
			return nil, err
		}
		out = append(out, share)
	}
	return out, rows.Err()
}

func (r *txRepository) InsertDistribution(ctx context.Context, d Distribution) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO profit_distributions (id, business_id, period_start, period_end, total_profit, distribution_percentage, distributed_amount, retained_amount, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		d.ID, d.BusinessID, d.PeriodStart, d.PeriodEnd, d.TotalProfit,
		d.DistributionPercentage, d.DistributedAmount, d.RetainedAmount, d.CreatedBy)
	return err
}

func (r *txRepository) InsertAllocation(ctx context.Context, a Allocation) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO profit_allocations (id, distribution_id, user_id, equity_percentage, allocated_amount)
VALUES ($1,$2,$3,$4,$5)`, a.ID, a.DistributionID, a.UserID, a.EquityPercentage, a.AllocatedAmount)
	return err
}

func (r *txRepository) DeleteAllocations(ctx context.Context, distributionID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM profit_allocations WHERE distribution_id=$1`, distributionID)
	return err
}

func (r *txRepository) DeleteDistribution(ctx context.Context, distributionID uuid.UUID) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM profit_distributions WHERE id=$1`, distributionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("distribution: %w", shared.ErrNotFound)
	}
	return nil
}
