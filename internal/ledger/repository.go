package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bukumitra/bukumitra/internal/shared"
)

// Repository encapsulates DB operations for the transaction ledger.
type Repository interface {
	Insert(ctx context.Context, t Transaction) error
	Get(ctx context.Context, id uuid.UUID) (Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, businessID uuid.UUID, filter ListFilter) ([]Transaction, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const transactionColumns = `id, business_id, COALESCE(category, ''), amount, type, payment_source,
	COALESCE(item, ''), COALESCE(quantity, 0), COALESCE(notes, ''), transaction_date, created_by, created_at`

func (r *repository) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.Exec(ctx, `INSERT INTO transactions (id, business_id, category, amount, type, payment_source, item, quantity, notes, transaction_date, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.BusinessID, nullString(t.Category), t.Amount, t.Type, t.PaymentSource,
		nullString(t.Item), nullInt(t.Quantity), nullString(t.Notes), t.TransactionDate, t.CreatedBy)
	return err
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id=$1`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, fmt.Errorf("ledger: transaction %w", shared.ErrNotFound)
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: transaction %w", shared.ErrNotFound)
	}
	return nil
}

func (r *repository) List(ctx context.Context, businessID uuid.UUID, filter ListFilter) ([]Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE business_id=$1`)
	args := []any{businessID}
	if filter.From != nil {
		args = append(args, *filter.From)
		sb.WriteString(` AND transaction_date >= $` + strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		sb.WriteString(` AND transaction_date <= $` + strconv.Itoa(len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		sb.WriteString(` AND type = $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY transaction_date DESC, created_at DESC`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.BusinessID, &t.Category, &t.Amount, &t.Type, &t.PaymentSource,
		&t.Item, &t.Quantity, &t.Notes, &t.TransactionDate, &t.CreatedBy, &t.CreatedAt)
	return t, err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
