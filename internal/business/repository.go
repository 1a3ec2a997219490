package business

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bukumitra/bukumitra/internal/platform/db"
	"github.com/bukumitra/bukumitra/internal/shared"
)

// Repository encapsulates DB operations for businesses and memberships.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBusiness(ctx context.Context, id uuid.UUID) (Business, error)
	GetBusinessByInviteCode(ctx context.Context, code string) (Business, error)
	GetMember(ctx context.Context, businessID, userID uuid.UUID) (Member, error)
	ListMembers(ctx context.Context, businessID uuid.UUID) ([]Member, error)
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	InsertBusiness(ctx context.Context, b Business) error
	InsertMember(ctx context.Context, m Member) error
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

const businessColumns = `id, name, invite_code, start_date, auto_update_equity, created_by, created_at`

func (r *repository) GetBusiness(ctx context.Context, id uuid.UUID) (Business, error) {
	return scanBusiness(r.db.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id=$1`, id))
}

func (r *repository) GetBusinessByInviteCode(ctx context.Context, code string) (Business, error) {
	return scanBusiness(r.db.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE invite_code=$1`, code))
}

func scanBusiness(row pgx.Row) (Business, error) {
	var b Business
	err := row.Scan(&b.ID, &b.Name, &b.InviteCode, &b.StartDate, &b.AutoUpdateEquity, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Business{}, fmt.Errorf("business: %w", shared.ErrNotFound)
		}
		return Business{}, err
	}
	return b, nil
}

func (r *repository) GetMember(ctx context.Context, businessID, userID uuid.UUID) (Member, error) {
	var m Member
	err := r.db.QueryRow(ctx, `SELECT bm.business_id, bm.user_id, u.name, bm.role, bm.equity_percentage, bm.joined_at
FROM business_members bm JOIN users u ON u.id = bm.user_id
WHERE bm.business_id=$1 AND bm.user_id=$2`, businessID, userID).
		Scan(&m.BusinessID, &m.UserID, &m.Name, &m.Role, &m.EquityPercentage, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, fmt.Errorf("business: member %w", shared.ErrNotFound)
		}
		return Member{}, err
	}
	return m, nil
}

func (r *repository) ListMembers(ctx context.Context, businessID uuid.UUID) ([]Member, error) {
	rows, err := r.db.Query(ctx, `SELECT bm.business_id, bm.user_id, u.name, bm.role, bm.equity_percentage, bm.joined_at
FROM business_members bm JOIN users u ON u.id = bm.user_id
WHERE bm.business_id=$1 ORDER BY bm.joined_at ASC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.BusinessID, &m.UserID, &m.Name, &m.Role, &m.EquityPercentage, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertBusiness(ctx context.Context, b Business) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO businesses (id, name, invite_code, start_date, auto_update_equity, created_by)
VALUES ($1,$2,$3,$4,$5,$6)`, b.ID, b.Name, b.InviteCode, b.StartDate, b.AutoUpdateEquity, b.CreatedBy)
	if isUniqueViolation(err) {
		return fmt.Errorf("business: invite code taken: %w", shared.ErrConflict)
	}
	return err
}

func (r *txRepository) InsertMember(ctx context.Context, m Member) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO business_members (business_id, user_id, role, equity_percentage, joined_at)
VALUES ($1,$2,$3,$4,NOW())`, m.BusinessID, m.UserID, m.Role, m.EquityPercentage)
	if isUniqueViolation(err) {
		return fmt.Errorf("business: already a member: %w", shared.ErrConflict)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
