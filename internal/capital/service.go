package capital

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bukumitra/bukumitra/internal/shared"
)

// Memberships verifies roles at call time.
type Memberships interface {
	RequireMember(ctx context.Context, businessID, userID uuid.UUID) error
}

// AuditPort records activity log entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// EquityPort is the system-internal recalculation entry point. Invoked here
// on behalf of contribution events, so no owner gate applies.
type EquityPort interface {
	AutoRecalculate(ctx context.Context, businessID uuid.UUID) error
}

// Service coordinates the capital ledger.
type Service struct {
	repo        Repository
	memberships Memberships
	audit       AuditPort
	equity      EquityPort
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo Repository, memberships Memberships, audit AuditPort, equity EquityPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, memberships: memberships, audit: audit, equity: equity, logger: logger, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Accounts returns the capital projection for every current member.
func (s *Service) Accounts(ctx context.Context, actor, businessID uuid.UUID) ([]Account, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return nil, err
	}
	return s.repo.Accounts(ctx, businessID)
}

// Contributions lists the contribution facts for a business.
func (s *Service) Contributions(ctx context.Context, actor, businessID uuid.UUID) ([]Contribution, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return nil, err
	}
	return s.repo.ListContributions(ctx, businessID)
}

// Withdrawals lists the withdrawal facts for a business.
func (s *Service) Withdrawals(ctx context.Context, actor, businessID uuid.UUID) ([]Withdrawal, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return nil, err
	}
	return s.repo.ListWithdrawals(ctx, businessID)
}

// Contribute records a direct capital contribution by the acting member and
// cascades an equity recompute when the business opts in.
func (s *Service) Contribute(ctx context.Context, actor, businessID uuid.UUID, in ContributeInput) (Contribution, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return Contribution{}, err
	}
	if !in.Amount.IsPositive() {
		return Contribution{}, fmt.Errorf("capital: amount must be positive: %w", shared.ErrValidation)
	}
	ctype := ContributionType(in.Type)
	if ctype != ContributionInitial && ctype != ContributionAdditional {
		return Contribution{}, fmt.Errorf("capital: invalid contribution type %q: %w", in.Type, shared.ErrValidation)
	}

	contribution := Contribution{
		ID:               uuid.New(),
		BusinessID:       businessID,
		UserID:           actor,
		Amount:           in.Amount,
		Type:             ctype,
		ContributionDate: in.Date,
		Notes:            in.Notes,
		CreatedAt:        s.now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertContribution(ctx, contribution)
	})
	if err != nil {
		return Contribution{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: businessID,
			ActorID:    actor,
			Action:     shared.ActionCapitalContribution,
			Details: map[string]any{
				"contribution_id": contribution.ID.String(),
				"amount":          contribution.Amount.String(),
				"type":            string(contribution.Type),
			},
			At: s.now(),
		})
	}

	s.cascadeEquity(ctx, businessID)
	return contribution, nil
}

// AutoCapitalize records a from_expense contribution for a partner-paid
// expense. Called by the transaction ledger after its insert has committed;
// the caller logs and swallows any error (best-effort side effect).
func (s *Service) AutoCapitalize(ctx context.Context, businessID, memberID, sourceTransactionID uuid.UUID, amount decimal.Decimal, date time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("capital: amount must be positive: %w", shared.ErrValidation)
	}
	sourceID := sourceTransactionID
	contribution := Contribution{
		ID:                  uuid.New(),
		BusinessID:          businessID,
		UserID:              memberID,
		Amount:              amount,
		Type:                ContributionFromExpense,
		ContributionDate:    date,
		SourceTransactionID: &sourceID,
		Notes:               fmt.Sprintf("auto-capitalized from expense %s", sourceTransactionID),
		CreatedAt:           s.now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertContribution(ctx, contribution)
	})
	if err != nil {
		return err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: businessID,
			ActorID:    memberID,
			Action:     shared.ActionCapitalContribAuto,
			Details: map[string]any{
				"contribution_id":       contribution.ID.String(),
				"amount":                contribution.Amount.String(),
				"source_transaction_id": sourceTransactionID.String(),
			},
			At: s.now(),
		})
	}

	s.cascadeEquity(ctx, businessID)
	return nil
}

// Withdraw records a capital withdrawal. The amount must not exceed the
// member's current balance, checked inside the same transaction as the insert.
func (s *Service) Withdraw(ctx context.Context, actor, businessID uuid.UUID, in WithdrawInput) (Withdrawal, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return Withdrawal{}, err
	}
	if !in.Amount.IsPositive() {
		return Withdrawal{}, fmt.Errorf("capital: amount must be positive: %w", shared.ErrValidation)
	}

	withdrawal := Withdrawal{
		ID:             uuid.New(),
		BusinessID:     businessID,
		UserID:         actor,
		Amount:         in.Amount,
		WithdrawalDate: in.Date,
		Notes:          in.Notes,
		CreatedAt:      s.now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.MemberBalance(ctx, businessID, actor)
		if err != nil {
			return err
		}
		if in.Amount.GreaterThan(balance) {
			return fmt.Errorf("capital: withdrawal %s exceeds balance %s: %w", in.Amount, balance, shared.ErrValidation)
		}
		return tx.InsertWithdrawal(ctx, withdrawal)
	})
	if err != nil {
		return Withdrawal{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: businessID,
			ActorID:    actor,
			Action:     shared.ActionCapitalWithdrawal,
			Details: map[string]any{
				"withdrawal_id": withdrawal.ID.String(),
				"amount":        withdrawal.Amount.String(),
			},
			At: s.now(),
		})
	}
	return withdrawal, nil
}

// cascadeEquity triggers the recompute when the business opts in. Failures
// are logged, never surfaced: the contribution has already committed.
func (s *Service) cascadeEquity(ctx context.Context, businessID uuid.UUID) {
	if s.equity == nil {
		return
	}
	enabled, err := s.repo.AutoUpdateEquity(ctx, businessID)
	if err != nil {
		s.logger.Warn("read auto_update_equity flag", slog.String("business_id", businessID.String()), slog.Any("error", err))
		return
	}
	if !enabled {
		return
	}
	if err := s.equity.AutoRecalculate(ctx, businessID); err != nil {
		s.logger.Warn("equity auto recalculation failed", slog.String("business_id", businessID.String()), slog.Any("error", err))
	}
}
