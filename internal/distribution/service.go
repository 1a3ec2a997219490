package distribution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/bukumitra/bukumitra/internal/shared"
	"github.com/bukumitra/bukumitra/internal/users"
)

var oneHundred = decimal.NewFromInt(100)

// Memberships verifies roles at call time.
type Memberships interface {
	RequireMember(ctx context.Context, businessID, userID uuid.UUID) error
	RequireOwner(ctx context.Context, businessID, userID uuid.UUID) error
}

// AuditPort records activity log entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Directory resolves user ids to display names for the detail view.
type Directory interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]users.User, error)
}

// Service coordinates profit distributions.
type Service struct {
	repo        Repository
	memberships Memberships
	audit       AuditPort
	directory   Directory
	logger      *slog.Logger
	distributed prometheus.Counter
	now         func() time.Time
}

func NewService(repo Repository, memberships Memberships, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, memberships: memberships, audit: audit, logger: logger, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithDistributionCounter attaches the success counter.
func (s *Service) WithDistributionCounter(c prometheus.Counter) {
	s.distributed = c
}

func (s *Service) WithDirectory(directory Directory) {
	s.directory = directory
}

// Distribute computes the period's net profit and splits the distributed part
// across the current members by their equity percentages. Profit, shares and
// amounts are all read and written in one transaction, so the allocations are
// immune to later equity changes.
func (s *Service) Distribute(ctx context.Context, actor, businessID uuid.UUID, in DistributeInput) (Distribution, error) {
	if err := s.memberships.RequireOwner(ctx, businessID, actor); err != nil {
		return Distribution{}, err
	}
	if in.From.IsZero() || in.To.IsZero() || in.To.Before(in.From) {
		return Distribution{}, fmt.Errorf("distribution: invalid period: %w", shared.ErrValidation)
	}
	if !in.Percentage.IsPositive() || in.Percentage.GreaterThan(oneHundred) {
		return Distribution{}, fmt.Errorf("distribution: percentage must be in (0, 100]: %w", shared.ErrValidation)
	}

	var result Distribution
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		net, err := tx.NetProfit(ctx, businessID, in.From, in.To)
		if err != nil {
			return err
		}
		if !net.IsPositive() {
			return fmt.Errorf("distribution: nothing to distribute, net profit is %s: %w", net, shared.ErrValidation)
		}
		shares, err := tx.MemberShares(ctx, businessID)
		if err != nil {
			return err
		}

		distributed := net.Mul(in.Percentage).Div(oneHundred).Round(2)
		result = Distribution{
			ID:                     uuid.New(),
			BusinessID:             businessID,
			PeriodStart:            in.From,
			PeriodEnd:              in.To,
			TotalProfit:            net,
			DistributionPercentage: in.Percentage,
			DistributedAmount:      distributed,
			RetainedAmount:         net.Sub(distributed),
			CreatedBy:              actor,
			CreatedAt:              s.now(),
		}
		if err := tx.InsertDistribution(ctx, result); err != nil {
			return err
		}
		for _, share := range shares {
			allocation := Allocation{
				ID:               uuid.New(),
				DistributionID:   result.ID,
				UserID:           share.UserID,
				EquityPercentage: share.EquityPercentage,
				AllocatedAmount:  distributed.Mul(share.EquityPercentage).Div(oneHundred).Round(2),
			}
			if err := tx.InsertAllocation(ctx, allocation); err != nil {
				return err
			}
			result.Allocations = append(result.Allocations, allocation)
		}
		return nil
	})
	if err != nil {
		return Distribution{}, err
	}

	if s.distributed != nil {
		s.distributed.Inc()
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: businessID,
			ActorID:    actor,
			Action:     shared.ActionProfitDistributed,
			Details: map[string]any{
				"distribution_id":    result.ID.String(),
				"total_profit":       result.TotalProfit.String(),
				"distributed_amount": result.DistributedAmount.String(),
				"retained_amount":    result.RetainedAmount.String(),
			},
			At: s.now(),
		})
	}
	return result, nil
}

// Delete removes a distribution with its allocations, in one transaction.
func (s *Service) Delete(ctx context.Context, actor, businessID, distributionID uuid.UUID) error {
	d, err := s.repo.Get(ctx, distributionID)
	if err != nil {
		return err
	}
	if d.BusinessID != businessID {
		return fmt.Errorf("distribution: %w", shared.ErrNotFound)
	}
	if err := s.memberships.RequireOwner(ctx, businessID, actor); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteAllocations(ctx, distributionID); err != nil {
			return err
		}
		return tx.DeleteDistribution(ctx, distributionID)
	})
}

// List returns the distributions of a business, newest period first.
func (s *Service) List(ctx context.Context, actor, businessID uuid.UUID) ([]Distribution, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, businessID)
}

// Get returns one distribution with its allocations.
func (s *Service) Get(ctx context.Context, actor, businessID, distributionID uuid.UUID) (Distribution, error) {
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return Distribution{}, err
	}
	d, err := s.repo.Get(ctx, distributionID)
	if err != nil {
		return Distribution{}, err
	}
	if d.BusinessID != businessID {
		return Distribution{}, fmt.Errorf("distribution: %w", shared.ErrNotFound)
	}
	s.resolveNames(ctx, d.Allocations)
	return d, nil
}

// resolveNames fills allocation display names. Names are cosmetic, so a
// directory failure degrades the view instead of failing the request.
func (s *Service) resolveNames(ctx context.Context, allocations []Allocation) {
	if s.directory == nil || len(allocations) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(allocations))
	for _, a := range allocations {
		ids = append(ids, a.UserID)
	}
	resolved, err := s.directory.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("resolve allocation names", slog.Any("error", err))
		return
	}
	for i := range allocations {
		allocations[i].UserName = resolved[allocations[i].UserID].Name
	}
}
