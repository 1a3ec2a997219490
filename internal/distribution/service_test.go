package distribution

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bukumitra/bukumitra/internal/shared"
	_ "github.com/bukumitra/bukumitra/testing"
)

type memoryDistributionRepo struct {
	netProfit     decimal.Decimal
	shares        []MemberShare
	distributions map[uuid.UUID]Distribution
	allocations   map[uuid.UUID][]Allocation
}

func newMemoryDistributionRepo(netProfit decimal.Decimal, shares ...MemberShare) *memoryDistributionRepo {
	return &memoryDistributionRepo{
		netProfit:     netProfit,
		shares:        shares,
		distributions: make(map[uuid.UUID]Distribution),
		allocations:   make(map[uuid.UUID][]Allocation),
	}
}

func (r *memoryDistributionRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	staged := &memoryDistributionTx{repo: r}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	staged.commit()
	return nil
}

func (r *memoryDistributionRepo) List(ctx context.Context, businessID uuid.UUID) ([]Distribution, error) {
	var out []Distribution
	for _, d := range r.distributions {
		if d.BusinessID == businessID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memoryDistributionRepo) Get(ctx context.Context, id uuid.UUID) (Distribution, error) {
	d, ok := r.distributions[id]
	if !ok {
		return Distribution{}, fmt.Errorf("distribution: %w", shared.ErrNotFound)
	}
	d.Allocations = r.allocations[id]
	return d, nil
}

// memoryDistributionTx stages writes and applies them only on commit, so a
// mid-transaction failure leaves the repo untouched.
type memoryDistributionTx struct {
	repo         *memoryDistributionRepo
	stagedDist   []Distribution
	stagedAlloc  []Allocation
	deletedAlloc []uuid.UUID
	deletedDist  []uuid.UUID
}

func (t *memoryDistributionTx) NetProfit(ctx context.Context, businessID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	return t.repo.netProfit, nil
}

func (t *memoryDistributionTx) MemberShares(ctx context.Context, businessID uuid.UUID) ([]MemberShare, error) {
	return t.repo.shares, nil
}

func (t *memoryDistributionTx) InsertDistribution(ctx context.Context, d Distribution) error {
	d.Allocations = nil
	t.stagedDist = append(t.stagedDist, d)
	return nil
}

func (t *memoryDistributionTx) InsertAllocation(ctx context.Context, a Allocation) error {
	t.stagedAlloc = append(t.stagedAlloc, a)
	return nil
}

func (t *memoryDistributionTx) DeleteAllocations(ctx context.Context, distributionID uuid.UUID) error {
	t.deletedAlloc = append(t.deletedAlloc, distributionID)
	return nil
}

func (t *memoryDistributionTx) DeleteDistribution(ctx context.Context, distributionID uuid.UUID) error {
	t.deletedDist = append(t.deletedDist, distributionID)
	return nil
}

func (t *memoryDistributionTx) commit() {
	for _, d := range t.stagedDist {
		t.repo.distributions[d.ID] = d
	}
	for _, a := range t.stagedAlloc {
		t.repo.allocations[a.DistributionID] = append(t.repo.allocations[a.DistributionID], a)
	}
	for _, id := range t.deletedAlloc {
		delete(t.repo.allocations, id)
	}
	for _, id := range t.deletedDist {
		delete(t.repo.distributions, id)
	}
}

type staticMembers struct {
	members map[uuid.UUID]bool
	owners  map[uuid.UUID]bool
}

func (m staticMembers) RequireMember(ctx context.Context, businessID, userID uuid.UUID) error {
	if !m.members[userID] {
		return fmt.Errorf("business: not a member: %w", shared.ErrForbidden)
	}
	return nil
}

func (m staticMembers) RequireOwner(ctx context.Context, businessID, userID uuid.UUID) error {
	if !m.owners[userID] {
		return fmt.Errorf("business: owner role required: %w", shared.ErrForbidden)
	}
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func period() DistributeInput {
	return DistributeInput{From: date("2025-01-01"), To: date("2025-03-31"), Percentage: dec("80")}
}

func TestDistributeSplitsByEquity(t *testing.T) {
	owner, partner := uuid.New(), uuid.New()
	businessID := uuid.New()
	members := staticMembers{
		members: map[uuid.UUID]bool{owner: true, partner: true},
		owners:  map[uuid.UUID]bool{owner: true},
	}
	repo := newMemoryDistributionRepo(dec("1000000"),
		MemberShare{UserID: owner, EquityPercentage: dec("70")},
		MemberShare{UserID: partner, EquityPercentage: dec("30")},
	)
	audit := &recordingAudit{}
	svc := NewService(repo, members, audit, nil)

	d, err := svc.Distribute(context.Background(), owner, businessID, period())
	require.NoError(t, err)

	require.True(t, d.TotalProfit.Equal(dec("1000000")))
	require.True(t, d.DistributedAmount.Equal(dec("800000")))
	require.True(t, d.RetainedAmount.Equal(dec("200000")))

	require.Len(t, d.Allocations, 2)
	byUser := map[uuid.UUID]Allocation{}
	for _, a := range d.Allocations {
		byUser[a.UserID] = a
	}
	require.True(t, byUser[owner].AllocatedAmount.Equal(dec("560000")))
	require.True(t, byUser[partner].AllocatedAmount.Equal(dec("240000")))
	require.True(t, byUser[partner].EquityPercentage.Equal(dec("30")))

	require.Len(t, audit.logs, 1)
	require.Equal(t, shared.ActionProfitDistributed, audit.logs[0].Action)
}

func TestAllocationsSnapshotEquity(t *testing.T) {
	owner, partner := uuid.New(), uuid.New()
	businessID := uuid.New()
	members := staticMembers{
		members: map[uuid.UUID]bool{owner: true, partner: true},
		owners:  map[uuid.UUID]bool{owner: true},
	}
	repo := newMemoryDistributionRepo(dec("1000000"),
		MemberShare{UserID: owner, EquityPercentage: dec("70")},
		MemberShare{UserID: partner, EquityPercentage: dec("30")},
	)
	svc := NewService(repo, members, nil, nil)

	d, err := svc.Distribute(context.Background(), owner, businessID, period())
	require.NoError(t, err)

	// Equity changes after the distribution must not touch recorded amounts.
	repo.shares = []MemberShare{
		{UserID: owner, EquityPercentage: dec("50")},
		{UserID: partner, EquityPercentage: dec("50")},
	}
	stored, err := svc.Get(context.Background(), partner, businessID, d.ID)
	require.NoError(t, err)
	byUser := map[uuid.UUID]Allocation{}
	for _, a := range stored.Allocations {
		byUser[a.UserID] = a
	}
	require.True(t, byUser[partner].AllocatedAmount.Equal(dec("240000")))
	require.True(t, byUser[partner].EquityPercentage.Equal(dec("30")))
}

func TestDistributeRejectsNonPositiveProfit(t *testing.T) {
	owner := uuid.New()
	members := staticMembers{
		members: map[uuid.UUID]bool{owner: true},
		owners:  map[uuid.UUID]bool{owner: true},
	}
	repo := newMemoryDistributionRepo(dec("-50000"),
		MemberShare{UserID: owner, EquityPercentage: dec("100")},
	)
	svc := NewService(repo, members, nil, nil)

	_, err := svc.Distribute(context.Background(), owner, uuid.New(), period())
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.distributions)
}

func TestDistributeRequiresOwner(t *testing.T) {
	owner, partner := uuid.New(), uuid.New()
	members := staticMembers{
		members: map[uuid.UUID]bool{owner: true, partner: true},
		owners:  map[uuid.UUID]bool{owner: true},
	}
	repo := newMemoryDistributionRepo(dec("1000000"),
		MemberShare{UserID: owner, EquityPercentage: dec("100")},
	)
	svc := NewService(repo, members, nil, nil)

	_, err := svc.Distribute(context.Background(), partner, uuid.New(), period())
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestDistributeValidatesPercentage(t *testing.T) {
	owner := uuid.New()
	members := staticMembers{
		members: map[uuid.UUID]bool{owner: true},
		owners:  map[uuid.UUID]bool{owner: true},
	}
	repo := newMemoryDistributionRepo(dec("1000000"))
	svc := NewService(repo, members, nil, nil)
	ctx := context.Background()

	for _, pct := range []string{"0", "-10", "100.01"} {
		in := period()
		in.Percentage = dec(pct)
		_, err := svc.Distribute(ctx, owner, uuid.New(), in)
		require.ErrorIs(t, err, shared.ErrValidation, "percentage %s", pct)
	}
}

func TestDeleteRemovesAllocationsWithParent(t *testing.T) {
	owner, partner := uuid.New(), uuid.New()
	businessID := uuid.New()
	members := staticMembers{
		members: map[uuid.UUID]bool{owner: true, partner: true},
		owners:  map[uuid.UUID]bool{owner: true},
	}
	repo := newMemoryDistributionRepo(dec("1000000"),
		MemberShare{UserID: owner, EquityPercentage: dec("60")},
		MemberShare{UserID: partner, EquityPercentage: dec("40")},
	)
	svc := NewService(repo, members, nil, nil)
	ctx := context.Background()

	d, err := svc.Distribute(ctx, owner, businessID, period())
	require.NoError(t, err)

	err = svc.Delete(ctx, partner, businessID, d.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.Delete(ctx, owner, businessID, d.ID)
	require.NoError(t, err)
	require.Empty(t, repo.distributions)
	require.Empty(t, repo.allocations)

	err = svc.Delete(ctx, owner, businessID, d.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
