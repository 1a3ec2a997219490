package capital

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bukumitra/bukumitra/internal/shared"
	_ "github.com/bukumitra/bukumitra/testing"
)

type memoryCapitalRepo struct {
	// mu serialises transactions the way the member-row lock does in the
	// real repository.
	mu            sync.Mutex
	memberIDs     []uuid.UUID
	contributions []Contribution
	withdrawals   []Withdrawal
	allocations   map[uuid.UUID]decimal.Decimal
	autoUpdate    bool
}

func newMemoryCapitalRepo(autoUpdate bool, memberIDs ...uuid.UUID) *memoryCapitalRepo {
	return &memoryCapitalRepo{
		memberIDs:   memberIDs,
		allocations: make(map[uuid.UUID]decimal.Decimal),
		autoUpdate:  autoUpdate,
	}
}

func (r *memoryCapitalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &memoryCapitalTx{repo: r})
}

func (r *memoryCapitalRepo) Accounts(ctx context.Context, businessID uuid.UUID) ([]Account, error) {
	var accounts []Account
	for _, id := range r.memberIDs {
		acc := Account{
			UserID:               id,
			TotalContributions:   decimal.Zero,
			TotalProfitAllocated: decimal.Zero,
			TotalWithdrawals:     decimal.Zero,
		}
		for _, c := range r.contributions {
			if c.UserID == id {
				acc.TotalContributions = acc.TotalContributions.Add(c.Amount)
			}
		}
		if alloc, ok := r.allocations[id]; ok {
			acc.TotalProfitAllocated = alloc
		}
		for _, w := range r.withdrawals {
			if w.UserID == id {
				acc.TotalWithdrawals = acc.TotalWithdrawals.Add(w.Amount)
			}
		}
		acc.CurrentBalance = acc.TotalContributions.Add(acc.TotalProfitAllocated).Sub(acc.TotalWithdrawals)
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

func (r *memoryCapitalRepo) AutoUpdateEquity(ctx context.Context, businessID uuid.UUID) (bool, error) {
	return r.autoUpdate, nil
}

func (r *memoryCapitalRepo) ListContributions(ctx context.Context, businessID uuid.UUID) ([]Contribution, error) {
	return r.contributions, nil
}

func (r *memoryCapitalRepo) ListWithdrawals(ctx context.Context, businessID uuid.UUID) ([]Withdrawal, error) {
	return r.withdrawals, nil
}

type memoryCapitalTx struct {
	repo *memoryCapitalRepo
}

func (t *memoryCapitalTx) InsertContribution(ctx context.Context, c Contribution) error {
	t.repo.contributions = append(t.repo.contributions, c)
	return nil
}

func (t *memoryCapitalTx) InsertWithdrawal(ctx context.Context, w Withdrawal) error {
	t.repo.withdrawals = append(t.repo.withdrawals, w)
	return nil
}

func (t *memoryCapitalTx) MemberBalance(ctx context.Context, businessID, userID uuid.UUID) (decimal.Decimal, error) {
	balance := decimal.Zero
	for _, c := range t.repo.contributions {
		if c.UserID == userID {
			balance = balance.Add(c.Amount)
		}
	}
	if alloc, ok := t.repo.allocations[userID]; ok {
		balance = balance.Add(alloc)
	}
	for _, w := range t.repo.withdrawals {
		if w.UserID == userID {
			balance = balance.Sub(w.Amount)
		}
	}
	return balance, nil
}

type allowAllMembers struct{}

func (allowAllMembers) RequireMember(ctx context.Context, businessID, userID uuid.UUID) error {
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type recordingEquity struct {
	calls int
	err   error
}

func (e *recordingEquity) AutoRecalculate(ctx context.Context, businessID uuid.UUID) error {
	e.calls++
	return e.err
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

func TestBalanceIdentityAcrossLedgerEvents(t *testing.T) {
	member := uuid.New()
	businessID := uuid.New()
	repo := newMemoryCapitalRepo(false, member)
	svc := NewService(repo, allowAllMembers{}, nil, nil, nil)
	ctx := context.Background()

	checkIdentity := func() Account {
		accounts, err := svc.Accounts(ctx, member, businessID)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		acc := accounts[0]
		expected := acc.TotalContributions.Add(acc.TotalProfitAllocated).Sub(acc.TotalWithdrawals)
		require.True(t, acc.CurrentBalance.Equal(expected), "balance identity violated")
		return acc
	}

	acc := checkIdentity()
	require.True(t, acc.CurrentBalance.IsZero(), "zero-activity member must appear zero-valued")

	_, err := svc.Contribute(ctx, member, businessID, ContributeInput{
		Amount: dec("1000000"), Type: "initial", Date: date("2025-01-10"),
	})
	require.NoError(t, err)
	acc = checkIdentity()
	require.True(t, acc.CurrentBalance.Equal(dec("1000000")))

	repo.allocations[member] = dec("240000")
	acc = checkIdentity()
	require.True(t, acc.CurrentBalance.Equal(dec("1240000")))

	_, err = svc.Withdraw(ctx, member, businessID, WithdrawInput{
		Amount: dec("300000"), Date: date("2025-02-01"),
	})
	require.NoError(t, err)
	acc = checkIdentity()
	require.True(t, acc.CurrentBalance.Equal(dec("940000")))
}

func TestWithdrawalCapEnforced(t *testing.T) {
	member := uuid.New()
	businessID := uuid.New()
	repo := newMemoryCapitalRepo(false, member)
	svc := NewService(repo, allowAllMembers{}, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Contribute(ctx, member, businessID, ContributeInput{
		Amount: dec("500000"), Type: "initial", Date: date("2025-01-01"),
	})
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, member, businessID, WithdrawInput{
		Amount: dec("500001"), Date: date("2025-01-02"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.withdrawals)

	_, err = svc.Withdraw(ctx, member, businessID, WithdrawInput{
		Amount: dec("500000"), Date: date("2025-01-02"),
	})
	require.NoError(t, err)

	accounts, err := svc.Accounts(ctx, member, businessID)
	require.NoError(t, err)
	require.True(t, accounts[0].CurrentBalance.IsZero())
}

func TestConcurrentWithdrawalsCannotOverdraw(t *testing.T) {
	member := uuid.New()
	businessID := uuid.New()
	repo := newMemoryCapitalRepo(false, member)
	svc := NewService(repo, allowAllMembers{}, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Contribute(ctx, member, businessID, ContributeInput{
		Amount: dec("500000"), Type: "initial", Date: date("2025-01-01"),
	})
	require.NoError(t, err)

	// Two simultaneous withdrawals of 300,000 against a 500,000 balance:
	// the balance check serialises on the member row, so whichever runs
	// second must see the first insert and fail the cap.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Withdraw(ctx, member, businessID, WithdrawInput{
				Amount: dec("300000"), Date: date("2025-01-02"),
			})
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, shared.ErrValidation)
			failures++
		}
	}
	require.Equal(t, 1, failures)
	require.Len(t, repo.withdrawals, 1)
}

func TestContributeRejectsInvalidInput(t *testing.T) {
	member := uuid.New()
	repo := newMemoryCapitalRepo(false, member)
	svc := NewService(repo, allowAllMembers{}, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Contribute(ctx, member, uuid.New(), ContributeInput{
		Amount: dec("-5"), Type: "initial", Date: date("2025-01-01"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	// from_expense is reserved for the auto-capitalization path.
	_, err = svc.Contribute(ctx, member, uuid.New(), ContributeInput{
		Amount: dec("5"), Type: "from_expense", Date: date("2025-01-01"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestContributeCascadesEquityWhenEnabled(t *testing.T) {
	member := uuid.New()
	repo := newMemoryCapitalRepo(true, member)
	equityPort := &recordingEquity{}
	svc := NewService(repo, allowAllMembers{}, nil, equityPort, nil)

	_, err := svc.Contribute(context.Background(), member, uuid.New(), ContributeInput{
		Amount: dec("100000"), Type: "additional", Date: date("2025-03-01"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, equityPort.calls)
}

func TestContributeSkipsCascadeWhenDisabled(t *testing.T) {
	member := uuid.New()
	repo := newMemoryCapitalRepo(false, member)
	equityPort := &recordingEquity{}
	svc := NewService(repo, allowAllMembers{}, nil, equityPort, nil)

	_, err := svc.Contribute(context.Background(), member, uuid.New(), ContributeInput{
		Amount: dec("100000"), Type: "additional", Date: date("2025-03-01"),
	})
	require.NoError(t, err)
	require.Zero(t, equityPort.calls)
}

func TestCascadeFailureDoesNotFailContribution(t *testing.T) {
	member := uuid.New()
	repo := newMemoryCapitalRepo(true, member)
	equityPort := &recordingEquity{err: errors.New("recompute unavailable")}
	svc := NewService(repo, allowAllMembers{}, nil, equityPort, nil)

	_, err := svc.Contribute(context.Background(), member, uuid.New(), ContributeInput{
		Amount: dec("100000"), Type: "additional", Date: date("2025-03-01"),
	})
	require.NoError(t, err)
	require.Len(t, repo.contributions, 1)
}

func TestAutoCapitalizeRecordsSingleContribution(t *testing.T) {
	member := uuid.New()
	businessID := uuid.New()
	txID := uuid.New()
	repo := newMemoryCapitalRepo(true, member)
	audit := &recordingAudit{}
	equityPort := &recordingEquity{}
	svc := NewService(repo, allowAllMembers{}, audit, equityPort, nil)

	err := svc.AutoCapitalize(context.Background(), businessID, member, txID, dec("50000"), date("2025-04-15"))
	require.NoError(t, err)

	require.Len(t, repo.contributions, 1)
	c := repo.contributions[0]
	require.Equal(t, ContributionFromExpense, c.Type)
	require.True(t, c.Amount.Equal(dec("50000")))
	require.NotNil(t, c.SourceTransactionID)
	require.Equal(t, txID, *c.SourceTransactionID)

	require.Equal(t, 1, equityPort.calls)
	require.Len(t, audit.logs, 1)
	require.Equal(t, shared.ActionCapitalContribAuto, audit.logs[0].Action)
}
