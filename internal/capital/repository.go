package capital

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bukumitra/bukumitra/internal/platform/db"
	"github.com/bukumitra/bukumitra/internal/shared"
)

// Repository encapsulates DB operations for the capital ledger.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	// Accounts reads all member sums in one statement so the projection is a
	// single consistent snapshot. Orphaned allocations are excluded by
	// joining to existing distributions.
	Accounts(ctx context.Context, businessID uuid.UUID) ([]Account, error)
	AutoUpdateEquity(ctx context.Context, businessID uuid.UUID) (bool, error)
	ListContributions(ctx context.Context, businessID uuid.UUID) ([]Contribution, error)
	ListWithdrawals(ctx context.Context, businessID uuid.UUID) ([]Withdrawal, error)
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	InsertContribution(ctx context.Context, c Contribution) error
	InsertWithdrawal(ctx context.Context, w Withdrawal) error
	// MemberBalance computes contributions + allocations − withdrawals for
	// one member inside the current transaction.
	MemberBalance(ctx context.Context, businessID, userID uuid.UUID) (decimal.Decimal, error)
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

func (r *repository) Accounts(ctx context.Context, businessID uuid.UUID) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT bm.user_id, u.name, bm.equity_percentage,
	COALESCE(c.total, 0) AS contributions,
	COALESCE(a.total, 0) AS allocated,
	COALESCE(w.total, 0) AS withdrawals
FROM business_members bm
JOIN users u ON u.id = bm.user_id
LEFT JOIN (
	SELECT user_id, SUM(amount) AS total FROM capital_contributions WHERE business_id=$1 GROUP BY user_id
) c ON c.user_id = bm.user_id
LEFT JOIN (
	SELECT pa.user_id, SUM(pa.allocated_amount) AS total
	FROM profit_allocations pa
	JOIN profit_distributions pd ON pd.id = pa.distribution_id
	WHERE pd.business_id=$1 GROUP BY pa.user_id
) a ON a.user_id = bm.user_id
LEFT JOIN (
	SELECT user_id, SUM(amount) AS total FROM withdrawals WHERE business_id=$1 GROUP BY user_id
) w ON w.user_id = bm.user_id
WHERE bm.business_id=$1
ORDER BY bm.joined_at ASC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.UserID, &acc.Name, &acc.EquityPercentage,
			&acc.TotalContributions, &acc.TotalProfitAllocated, &acc.TotalWithdrawals); err != nil {
			return nil, err
		}
		acc.CurrentBalance = acc.TotalContributions.Add(acc.TotalProfitAllocated).Sub(acc.TotalWithdrawals)
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *repository) AutoUpdateEquity(ctx context.Context, businessID uuid.UUID) (bool, error) {
	var enabled bool
	err := r.db.QueryRow(ctx, `SELECT auto_update_equity FROM businesses WHERE id=$1`, businessID).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("capital: business %w", shared.ErrNotFound)
		}
		return false, err
	}
	return enabled, nil
}

func (r *repository) ListContributions(ctx context.Context, businessID uuid.UUID) ([]Contribution, error) {
	rows, err := r.db.Query(ctx, `SELECT id, business_id, user_id, amount, type, contribution_date, source_transaction_id, COALESCE(notes, ''), created_at
FROM capital_contributions WHERE business_id=$1 ORDER BY contribution_date DESC, created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Contribution
	for rows.Next() {
		var c Contribution
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.UserID, &c.Amount, &c.Type, &c.ContributionDate, &c.SourceTransactionID, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) ListWithdrawals(ctx context.Context, businessID uuid.UUID) ([]Withdrawal, error) {
	rows, err := r.db.Query(ctx, `SELECT id, business_id, user_id, amount, withdrawal_date, COALESCE(notes, ''), created_at
FROM withdrawals WHERE business_id=$1 ORDER BY withdrawal_date DESC, created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Withdrawal
	for rows.Next() {
		var w Withdrawal
		if err := rows.Scan(&w.ID, &w.BusinessID, &w.UserID, &w.Amount, &w.WithdrawalDate, &w.Notes, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertContribution(ctx context.Context, c Contribution) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO capital_contributions (id, business_id, user_id, amount, type, contribution_date, source_transaction_id, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, c.ID, c.BusinessID, c.UserID, c.Amount, c.Type, c.ContributionDate, c.SourceTransactionID, nullString(c.Notes))
	return err
}

func (r *txRepository) InsertWithdrawal(ctx context.Context, w Withdrawal) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO withdrawals (id, business_id, user_id, amount, withdrawal_date, notes)
VALUES ($1,$2,$3,$4,$5,$6)`, w.ID, w.BusinessID, w.UserID, w.Amount, w.WithdrawalDate, nullString(w.Notes))
	return err
}

func (r *txRepository) MemberBalance(ctx context.Context, businessID, userID uuid.UUID) (decimal.Decimal, error) {
	// Lock the member row first. Two concurrent withdrawals would otherwise
	// both read the pre-insert balance and jointly overdraw it.
	if _, err := r.tx.Exec(ctx, `SELECT 1 FROM business_members WHERE business_id=$1 AND user_id=$2 FOR UPDATE`,
		businessID, userID); err != nil {
		return decimal.Decimal{}, err
	}
	var balance decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT
	COALESCE((SELECT SUM(amount) FROM capital_contributions WHERE business_id=$1 AND user_id=$2), 0)
	+ COALESCE((SELECT SUM(pa.allocated_amount) FROM profit_allocations pa
		JOIN profit_distributions pd ON pd.id = pa.distribution_id
		WHERE pd.business_id=$1 AND pa.user_id=$2), 0)
	- COALESCE((SELECT SUM(amount) FROM withdrawals WHERE business_id=$1 AND user_id=$2), 0)`,
		businessID, userID).Scan(&balance)
	return balance, err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
