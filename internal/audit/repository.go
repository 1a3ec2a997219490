package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository menyediakan akses baca ke activity_logs.
type Repository interface {
	TimelineWindow(ctx context.Context, businessID uuid.UUID, filters TimelineFilters, offset, limit int) ([]TimelineRow, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) TimelineWindow(ctx context.Context, businessID uuid.UUID, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT al.created_at, al.user_id, COALESCE(u.name, ''), al.action, al.details
FROM activity_logs al
LEFT JOIN users u ON u.id = al.user_id
WHERE al.business_id=$1`)
	args := []any{businessID}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		sb.WriteString(` AND al.created_at >= $` + strconv.Itoa(len(args)))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		sb.WriteString(` AND al.created_at <= $` + strconv.Itoa(len(args)))
	}
	if action := strings.TrimSpace(filters.Action); action != "" {
		args = append(args, action)
		sb.WriteString(` AND al.action = $` + strconv.Itoa(len(args)))
	}
	args = append(args, limit)
	sb.WriteString(` ORDER BY al.created_at DESC, al.id DESC LIMIT $` + strconv.Itoa(len(args)))
	args = append(args, offset)
	sb.WriteString(` OFFSET $` + strconv.Itoa(len(args)))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var details []byte
		if err := rows.Scan(&row.At, &row.ActorID, &row.ActorName, &row.Action, &details); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &row.Details)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
