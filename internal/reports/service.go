package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bukumitra/bukumitra/internal/capital"
	"github.com/bukumitra/bukumitra/internal/shared"
)

// Memberships verifies roles at call time.
type Memberships interface {
	RequireMember(ctx context.Context, businessID, userID uuid.UUID) error
}

// CapitalPort feeds the dashboard's capital panel.
type CapitalPort interface {
	Accounts(ctx context.Context, actor, businessID uuid.UUID) ([]capital.Account, error)
}

// Service assembles the financial reports.
type Service struct {
	repo        Repository
	memberships Memberships
	capital     CapitalPort
}

func NewService(repo Repository, memberships Memberships, capital CapitalPort) *Service {
	return &Service{repo: repo, memberships: memberships, capital: capital}
}

// ProfitLoss builds the P&L statement for [from, to] inclusive.
func (s *Service) ProfitLoss(ctx context.Context, actor, businessID uuid.UUID, from, to time.Time) (ProfitLoss, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return ProfitLoss{}, err
	}
	if err := validatePeriod(from, to); err != nil {
		return ProfitLoss{}, err
	}
	rows, err := s.repo.TransactionsInPeriod(ctx, businessID, from, to)
	if err != nil {
		return ProfitLoss{}, err
	}
	return BuildProfitLoss(from, to, rows), nil
}

// CashFlow builds the cash statement for [from, to] inclusive.
func (s *Service) CashFlow(ctx context.Context, actor, businessID uuid.UUID, from, to time.Time, showAllExpenses bool) (CashFlow, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return CashFlow{}, err
	}
	if err := validatePeriod(from, to); err != nil {
		return CashFlow{}, err
	}
	opening, err := s.repo.OpeningAggregates(ctx, businessID, from)
	if err != nil {
		return CashFlow{}, err
	}
	rows, err := s.repo.TransactionsInPeriod(ctx, businessID, from, to)
	if err != nil {
		return CashFlow{}, err
	}
	contributions, withdrawals, err := s.repo.FinancingInPeriod(ctx, businessID, from, to)
	if err != nil {
		return CashFlow{}, err
	}
	return BuildCashFlow(from, to, opening, rows, contributions, withdrawals, showAllExpenses), nil
}

// Dashboard fans out to the P&L, cash flow and capital accounts.
func (s *Service) Dashboard(ctx context.Context, actor, businessID uuid.UUID, from, to time.Time) (Dashboard, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return Dashboard{}, err
	}
	if err := validatePeriod(from, to); err != nil {
		return Dashboard{}, err
	}

	var dashboard Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pl, err := s.ProfitLoss(gctx, actor, businessID, from, to)
		if err != nil {
			return err
		}
		dashboard.ProfitLoss = pl
		return nil
	})
	g.Go(func() error {
		cf, err := s.CashFlow(gctx, actor, businessID, from, to, false)
		if err != nil {
			return err
		}
		dashboard.CashFlow = cf
		return nil
	})
	g.Go(func() error {
		accounts, err := s.capital.Accounts(gctx, actor, businessID)
		if err != nil {
			return err
		}
		dashboard.Accounts = accounts
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dashboard, nil
}

func validatePeriod(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("reports: period bounds are required: %w", shared.ErrValidation)
	}
	if to.Before(from) {
		return fmt.Errorf("reports: period end precedes start: %w", shared.ErrValidation)
	}
	return nil
}
