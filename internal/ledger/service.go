package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/bukumitra/bukumitra/internal/shared"
)

// Memberships verifies roles at call time.
type Memberships interface {
	RequireMember(ctx context.Context, businessID, userID uuid.UUID) error
	RequireOwner(ctx context.Context, businessID, userID uuid.UUID) error
}

// AuditPort records activity log entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CapitalPort turns a partner-paid expense into a capital contribution.
type CapitalPort interface {
	AutoCapitalize(ctx context.Context, businessID, memberID, sourceTransactionID uuid.UUID, amount decimal.Decimal, date time.Time) error
}

// Service coordinates the transaction ledger.
type Service struct {
	repo          Repository
	memberships   Memberships
	audit         AuditPort
	capital       CapitalPort
	logger        *slog.Logger
	autoCapErrors prometheus.Counter
	now           func() time.Time
}

func NewService(repo Repository, memberships Memberships, audit AuditPort, capital CapitalPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, memberships: memberships, audit: audit, capital: capital, logger: logger, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithAutoCapitalizeCounter attaches the failure counter for the
// auto-capitalization side effect.
func (s *Service) WithAutoCapitalizeCounter(c prometheus.Counter) {
	s.autoCapErrors = c
}

// Record inserts a transaction. An expense paid from a member's personal
// funds is auto-capitalized after the insert; a failure there is logged and
// swallowed, the recorded transaction stands.
func (s *Service) Record(ctx context.Context, actor, businessID uuid.UUID, in RecordInput) (Transaction, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return Transaction{}, err
	}
	if !in.Amount.IsPositive() {
		return Transaction{}, fmt.Errorf("ledger: amount must be positive: %w", shared.ErrValidation)
	}
	ttype := Type(in.Type)
	if ttype != TypeRevenue && ttype != TypeExpense {
		return Transaction{}, fmt.Errorf("ledger: invalid transaction type %q: %w", in.Type, shared.ErrValidation)
	}
	if err := s.validatePaymentSource(ctx, businessID, ttype, in.PaymentSource); err != nil {
		return Transaction{}, err
	}

	transaction := Transaction{
		ID:              uuid.New(),
		BusinessID:      businessID,
		Category:        in.Category,
		Amount:          in.Amount,
		Type:            ttype,
		PaymentSource:   in.PaymentSource,
		Item:            in.Item,
		Quantity:        in.Quantity,
		Notes:           in.Notes,
		TransactionDate: in.Date,
		CreatedBy:       actor,
		CreatedAt:       s.now(),
	}
	if err := s.repo.Insert(ctx, transaction); err != nil {
		return Transaction{}, err
	}

	action := shared.ActionTransactionRevenue
	if ttype == TypeExpense {
		action = shared.ActionTransactionExpense
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: businessID,
			ActorID:    actor,
			Action:     action,
			Details: map[string]any{
				"transaction_id": transaction.ID.String(),
				"amount":         transaction.Amount.String(),
				"payment_source": transaction.PaymentSource,
			},
			At: s.now(),
		})
	}

	if payer, ok := transaction.PaidByMember(); ok {
		s.autoCapitalize(ctx, transaction, payer)
	}
	return transaction, nil
}

// Delete removes a transaction. Linked from_expense contributions stay in
// place; reversing them is a manual capital action.
func (s *Service) Delete(ctx context.Context, actor, businessID, transactionID uuid.UUID) error {
	transaction, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if transaction.BusinessID != businessID {
		return fmt.Errorf("ledger: transaction %w", shared.ErrNotFound)
	}
	if err := s.memberships.RequireOwner(ctx, businessID, actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, transactionID); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: businessID,
			ActorID:    actor,
			Action:     shared.ActionTransactionDeleted,
			Details: map[string]any{
				"transaction_id": transactionID.String(),
				"amount":         transaction.Amount.String(),
				"type":           string(transaction.Type),
			},
			At: s.now(),
		})
	}
	return nil
}

// List returns transactions matching the filter.
func (s *Service) List(ctx context.Context, actor, businessID uuid.UUID, filter ListFilter) ([]Transaction, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return nil, err
	}
	if filter.Type != "" && filter.Type != string(TypeRevenue) && filter.Type != string(TypeExpense) {
		return nil, fmt.Errorf("ledger: invalid type filter %q: %w", filter.Type, shared.ErrValidation)
	}
	return s.repo.List(ctx, businessID, filter)
}

func (s *Service) validatePaymentSource(ctx context.Context, businessID uuid.UUID, ttype Type, source string) error {
	if source == PaymentSourceBusiness {
		return nil
	}
	if ttype == TypeRevenue {
		return fmt.Errorf("ledger: revenue payment source must be %q: %w", PaymentSourceBusiness, shared.ErrValidation)
	}
	payer, err := uuid.Parse(source)
	if err != nil {
		return fmt.Errorf("ledger: payment source must be %q or a member id: %w", PaymentSourceBusiness, shared.ErrValidation)
	}
	// The payer must currently belong to the business.
	if err := s.memberships.RequireMember(ctx, businessID, payer); err != nil {
		return fmt.Errorf("ledger: payment source is not a member of this business: %w", shared.ErrValidation)
	}
	return nil
}

func (s *Service) autoCapitalize(ctx context.Context, transaction Transaction, payer uuid.UUID) {
	if s.capital == nil {
		return
	}
	err := s.capital.AutoCapitalize(ctx, transaction.BusinessID, payer, transaction.ID, transaction.Amount, transaction.TransactionDate)
	if err != nil {
		if s.autoCapErrors != nil {
			s.autoCapErrors.Inc()
		}
		s.logger.Warn("auto-capitalization failed",
			slog.String("transaction_id", transaction.ID.String()),
			slog.String("business_id", transaction.BusinessID.String()),
			slog.Any("error", err))
	}
}
