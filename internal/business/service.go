package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bukumitra/bukumitra/internal/shared"
	"github.com/bukumitra/bukumitra/internal/users"
)

// AuditPort records activity log entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Directory resolves actor ids against the user table. The actor id arrives
// from the upstream gateway; checking it here turns a would-be foreign key
// violation into a clean not-found.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (users.User, error)
}

// inviteRetries bounds invite-code collision retries.
const inviteRetries = 5

var equityTolerance = decimal.RequireFromString("0.01")

var oneHundred = decimal.NewFromInt(100)

// Service coordinates business and membership operations.
type Service struct {
	repo      Repository
	audit     AuditPort
	directory Directory
	now       func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) WithDirectory(directory Directory) {
	s.directory = directory
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) verifyActor(ctx context.Context, actor uuid.UUID) error {
	if s.directory == nil {
		return nil
	}
	if _, err := s.directory.Get(ctx, actor); err != nil {
		return err
	}
	return nil
}

// Create inserts a new business with the acting user as owner at 100% equity.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (Business, error) {
	if actor == uuid.Nil {
		return Business{}, fmt.Errorf("business: missing actor: %w", shared.ErrForbidden)
	}
	if in.Name == "" {
		return Business{}, fmt.Errorf("business: name required: %w", shared.ErrValidation)
	}
	if err := s.verifyActor(ctx, actor); err != nil {
		return Business{}, err
	}
	autoUpdate := true
	if in.AutoUpdateEquity != nil {
		autoUpdate = *in.AutoUpdateEquity
	}

	var created Business
	var err error
	for attempt := 0; attempt < inviteRetries; attempt++ {
		code, codeErr := newInviteCode()
		if codeErr != nil {
			return Business{}, codeErr
		}
		created = Business{
			ID:               uuid.New(),
			Name:             in.Name,
			InviteCode:       code,
			StartDate:        in.StartDate,
			AutoUpdateEquity: autoUpdate,
			CreatedBy:        actor,
			CreatedAt:        s.now(),
		}
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			if err := tx.InsertBusiness(ctx, created); err != nil {
				return err
			}
			return tx.InsertMember(ctx, Member{
				BusinessID:       created.ID,
				UserID:           actor,
				Role:             RoleOwner,
				EquityPercentage: oneHundred,
			})
		})
		if err == nil || !errors.Is(err, shared.ErrConflict) {
			break
		}
	}
	if err != nil {
		return Business{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: created.ID,
			ActorID:    actor,
			Action:     shared.ActionBusinessCreated,
			Details: map[string]any{
				"name":               created.Name,
				"invite_code":        created.InviteCode,
				"auto_update_equity": created.AutoUpdateEquity,
			},
			At: s.now(),
		})
	}
	return created, nil
}

// Join adds the acting user as a member at 0% equity. The resulting non-100%
// equity sum is a tolerated transient state surfaced by Members.
func (s *Service) Join(ctx context.Context, actor uuid.UUID, in JoinInput) (Business, error) {
	if actor == uuid.Nil {
		return Business{}, fmt.Errorf("business: missing actor: %w", shared.ErrForbidden)
	}
	if err := s.verifyActor(ctx, actor); err != nil {
		return Business{}, err
	}
	biz, err := s.repo.GetBusinessByInviteCode(ctx, in.InviteCode)
	if err != nil {
		return Business{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertMember(ctx, Member{
			BusinessID:       biz.ID,
			UserID:           actor,
			Role:             RoleMember,
			EquityPercentage: decimal.Zero,
		})
	})
	if err != nil {
		return Business{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: biz.ID,
			ActorID:    actor,
			Action:     shared.ActionMemberJoined,
			Details:    map[string]any{"invite_code": in.InviteCode},
			At:         s.now(),
		})
	}
	return biz, nil
}

// Get returns a business visible to the acting member.
func (s *Service) Get(ctx context.Context, actor, businessID uuid.UUID) (Business, error) {
	if err := s.RequireMember(ctx, businessID, actor); err != nil {
		return Business{}, err
	}
	return s.repo.GetBusiness(ctx, businessID)
}

// Members lists members with the current equity sum and configured flag.
func (s *Service) Members(ctx context.Context, actor, businessID uuid.UUID) (MembersView, error) {
	if err := s.RequireMember(ctx, businessID, actor); err != nil {
		return MembersView{}, err
	}
	members, err := s.repo.ListMembers(ctx, businessID)
	if err != nil {
		return MembersView{}, err
	}
	sum := decimal.Zero
	for _, m := range members {
		sum = sum.Add(m.EquityPercentage)
	}
	return MembersView{
		Members:          members,
		EquitySum:        sum,
		EquityConfigured: sum.Sub(oneHundred).Abs().LessThanOrEqual(equityTolerance),
	}, nil
}

// RequireMember verifies membership at call time. Roles are never cached.
func (s *Service) RequireMember(ctx context.Context, businessID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("business: missing actor: %w", shared.ErrForbidden)
	}
	if _, err := s.repo.GetMember(ctx, businessID, userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("business: not a member: %w", shared.ErrForbidden)
		}
		return err
	}
	return nil
}

// RequireOwner verifies the owner role at call time.
func (s *Service) RequireOwner(ctx context.Context, businessID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("business: missing actor: %w", shared.ErrForbidden)
	}
	m, err := s.repo.GetMember(ctx, businessID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("business: not a member: %w", shared.ErrForbidden)
		}
		return err
	}
	if m.Role != RoleOwner {
		return fmt.Errorf("business: owner role required: %w", shared.ErrForbidden)
	}
	return nil
}
