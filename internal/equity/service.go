package equity

import (
	"context"
	"fmt"
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

// Locker serialises equity rewrites per business. Advisory only: recompute is
// convergent, so a failed acquire falls through to last-write-wins.
type Locker interface {
	Acquire(ctx context.Context, businessID uuid.UUID) (func(), bool)
}

// Triggers recorded in audit details and metrics.
const (
	TriggerManual       = "manual"
	TriggerContribution = "contribution"
)

// Service implements the equity recalculation engine.
type Service struct {
	repo        Repository
	memberships Memberships
	audit       AuditPort
	locker      Locker
	recalcs     *prometheus.CounterVec
	now         func() time.Time
}

func NewService(repo Repository, memberships Memberships, audit AuditPort) *Service {
	return &Service{repo: repo, memberships: memberships, audit: audit, now: time.Now}
}

func (s *Service) WithLocker(locker Locker) {
	s.locker = locker
}

func (s *Service) WithRecalcCounter(counter *prometheus.CounterVec) {
	s.recalcs = counter
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CalculateFromContributions derives a distribution from contribution ratios
// without persisting anything. Zero total contributions yields an even split.
func (s *Service) CalculateFromContributions(ctx context.Context, actor, businessID uuid.UUID) (Calculation, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return Calculation{}, err
	}
	memberIDs, err := s.repo.MemberIDs(ctx, businessID)
	if err != nil {
		return Calculation{}, err
	}
	totals, err := s.repo.ContributionTotals(ctx, businessID)
	if err != nil {
		return Calculation{}, err
	}
	return calculateShares(memberIDs, totals)
}

// calculateShares is the pure core of the engine. Rounding drift (e.g. three
// members at 33.33 summing to 99.99) is reported through Sum, not corrected.
func calculateShares(memberIDs []uuid.UUID, totals map[uuid.UUID]decimal.Decimal) (Calculation, error) {
	if len(memberIDs) == 0 {
		return Calculation{}, fmt.Errorf("equity: business has no members: %w", shared.ErrValidation)
	}

	grand := decimal.Zero
	for _, id := range memberIDs {
		grand = grand.Add(totals[id])
	}

	calc := Calculation{Shares: make([]Share, 0, len(memberIDs))}
	if grand.IsZero() {
		calc.Method = MethodEvenSplit
		even := round2(oneHundred.Div(decimal.NewFromInt(int64(len(memberIDs)))))
		for _, id := range memberIDs {
			calc.Shares = append(calc.Shares, Share{UserID: id, Percentage: even})
			calc.Sum = calc.Sum.Add(even)
		}
		return calc, nil
	}

	calc.Method = MethodContributionBased
	for _, id := range memberIDs {
		pct := round2(totals[id].Div(grand).Mul(oneHundred))
		calc.Shares = append(calc.Shares, Share{UserID: id, Percentage: pct})
		calc.Sum = calc.Sum.Add(pct)
	}
	return calc, nil
}

// ApplyFromContributions is the owner-gated entry point for persisting a
// contribution-based recalculation.
func (s *Service) ApplyFromContributions(ctx context.Context, actor, businessID uuid.UUID) (Calculation, error) {
	if err := s.memberships.RequireOwner(ctx, businessID, actor); err != nil {
		return Calculation{}, err
	}
	return s.recompute(ctx, actor, businessID, TriggerManual)
}

// AutoRecalculate is the system-internal path invoked by the capital cascade.
// It skips the owner check because the trigger is a contribution event, not a
// user-facing privilege escalation. Never mount this on a route.
func (s *Service) AutoRecalculate(ctx context.Context, businessID uuid.UUID) error {
	_, err := s.recompute(ctx, uuid.Nil, businessID, TriggerContribution)
	return err
}

// recompute reads fresh contribution state and rewrites every member's
// percentage in one transaction. A sum outside 100±0.01 aborts with a
// GuardError and persists nothing.
func (s *Service) recompute(ctx context.Context, actor, businessID uuid.UUID, trigger string) (Calculation, error) {
	if s.locker != nil {
		if release, ok := s.locker.Acquire(ctx, businessID); ok {
			defer release()
		}
	}

	var calc Calculation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		memberIDs, err := tx.MemberIDsForUpdate(ctx, businessID)
		if err != nil {
			return err
		}
		totals, err := tx.ContributionTotals(ctx, businessID)
		if err != nil {
			return err
		}
		calc, err = calculateShares(memberIDs, totals)
		if err != nil {
			return err
		}
		if !withinTolerance(calc.Sum) {
			return &GuardError{Calculation: calc}
		}
		return tx.UpdateEquity(ctx, businessID, calc.Shares)
	})
	if err != nil {
		return calc, err
	}

	if s.recalcs != nil {
		s.recalcs.WithLabelValues(trigger).Inc()
	}
	if s.audit != nil {
		action := shared.ActionEquityAutoCalculated
		if trigger == TriggerManual {
			action = shared.ActionEquityUpdated
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: businessID,
			ActorID:    actor,
			Action:     action,
			Details: map[string]any{
				"method":  string(calc.Method),
				"trigger": trigger,
				"shares":  shareDetails(calc.Shares),
			},
			At: s.now(),
		})
	}
	return calc, nil
}

// SplitEvenly assigns 100/N to each member and persists unconditionally.
// Barring rounding drift the result is ~100 by construction, so no sum guard.
func (s *Service) SplitEvenly(ctx context.Context, actor, businessID uuid.UUID) (Calculation, error) {
	if err := s.memberships.RequireOwner(ctx, businessID, actor); err != nil {
		return Calculation{}, err
	}

	if s.locker != nil {
		if release, ok := s.locker.Acquire(ctx, businessID); ok {
			defer release()
		}
	}

	var calc Calculation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		memberIDs, err := tx.MemberIDsForUpdate(ctx, businessID)
		if err != nil {
			return err
		}
		if len(memberIDs) == 0 {
			return fmt.Errorf("equity: business has no members: %w", shared.ErrValidation)
		}
		calc = Calculation{Method: MethodEvenSplit, Shares: make([]Share, 0, len(memberIDs))}
		even := round2(oneHundred.Div(decimal.NewFromInt(int64(len(memberIDs)))))
		for _, id := range memberIDs {
			calc.Shares = append(calc.Shares, Share{UserID: id, Percentage: even})
			calc.Sum = calc.Sum.Add(even)
		}
		return tx.UpdateEquity(ctx, businessID, calc.Shares)
	})
	if err != nil {
		return Calculation{}, err
	}

	if s.recalcs != nil {
		s.recalcs.WithLabelValues(TriggerManual).Inc()
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: businessID,
			ActorID:    actor,
			Action:     shared.ActionEquitySplitEvenly,
			Details: map[string]any{
				"shares": shareDetails(calc.Shares),
			},
			At: s.now(),
		})
	}
	return calc, nil
}

// UpdateDistribution is the owner-only manual override. Every current member
// must appear exactly once, each share in [0,100], sum within 0.01 of 100.
func (s *Service) UpdateDistribution(ctx context.Context, actor, businessID uuid.UUID, shares []Share) error {
	if err := s.memberships.RequireOwner(ctx, businessID, actor); err != nil {
		return err
	}

	if s.locker != nil {
		if release, ok := s.locker.Acquire(ctx, businessID); ok {
			defer release()
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		memberIDs, err := tx.MemberIDsForUpdate(ctx, businessID)
		if err != nil {
			return err
		}
		if err := validateManualShares(memberIDs, shares); err != nil {
			return err
		}
		return tx.UpdateEquity(ctx, businessID, shares)
	})
	if err != nil {
		return err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: businessID,
			ActorID:    actor,
			Action:     shared.ActionEquityUpdated,
			Details: map[string]any{
				"shares": shareDetails(shares),
			},
			At: s.now(),
		})
	}
	return nil
}

func validateManualShares(memberIDs []uuid.UUID, shares []Share) error {
	if len(shares) != len(memberIDs) {
		return fmt.Errorf("equity: distribution must cover every current member: %w", shared.ErrValidation)
	}
	seen := make(map[uuid.UUID]bool, len(shares))
	sum := decimal.Zero
	for _, share := range shares {
		if seen[share.UserID] {
			return fmt.Errorf("equity: member %s listed twice: %w", share.UserID, shared.ErrValidation)
		}
		seen[share.UserID] = true
		if share.Percentage.IsNegative() || share.Percentage.GreaterThan(oneHundred) {
			return fmt.Errorf("equity: percentage for %s out of range: %w", share.UserID, shared.ErrValidation)
		}
		sum = sum.Add(share.Percentage)
	}
	for _, id := range memberIDs {
		if !seen[id] {
			return fmt.Errorf("equity: member %s missing from distribution: %w", id, shared.ErrValidation)
		}
	}
	if !withinTolerance(sum) {
		return fmt.Errorf("equity: distribution sums to %s, not 100: %w", sum, shared.ErrValidation)
	}
	return nil
}

func shareDetails(shares []Share) []map[string]any {
	out := make([]map[string]any, 0, len(shares))
	for _, share := range shares {
		out = append(out, map[string]any{
			"user_id":    share.UserID.String(),
			"percentage": share.Percentage.String(),
		})
	}
	return out
}
