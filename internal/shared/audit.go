package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit action vocabulary emitted by the core services.
const (
	ActionTransactionRevenue   = "transaction_revenue"
	ActionTransactionExpense   = "transaction_expense"
	ActionTransactionDeleted   = "transaction_deleted"
	ActionCapitalContribution  = "capital_contribution"
	ActionCapitalContribAuto   = "capital_contribution_auto"
	ActionCapitalWithdrawal    = "capital_withdrawal"
	ActionProfitDistributed    = "profit_distributed"
	ActionEquityUpdated        = "equity_updated"
	ActionEquityAutoCalculated = "equity_auto_calculated"
	ActionEquitySplitEvenly    = "equity_split_evenly"
	ActionBusinessCreated      = "business_created"
	ActionMemberJoined         = "member_joined"
)

// AuditLog represents a record stored in activity_logs.
type AuditLog struct {
	BusinessID uuid.UUID
	ActorID    uuid.UUID
	Action     string
	Details    map[string]any
	At         time.Time
}

// AuditLogger writes records into activity_logs. The core never reads them back.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.BusinessID == uuid.Nil || log.Action == "" {
		return errors.New("audit log requires business_id and action")
	}
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil {
		return err
	}
	at := log.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO activity_logs (business_id, user_id, action, details, created_at) VALUES ($1, $2, $3, $4, $5)`,
		log.BusinessID, actorValue(log.ActorID), log.Action, detailsJSON, at)
	return err
}

// actorValue maps the zero UUID to NULL. System-initiated entries (the
// contribution cascade) carry no actor, and storing the zero UUID would make
// the timeline join surface a phantom user.
func actorValue(actorID uuid.UUID) any {
	if actorID == uuid.Nil {
		return nil
	}
	return actorID
}
