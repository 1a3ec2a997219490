package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bukumitra/bukumitra/internal/shared"
	_ "github.com/bukumitra/bukumitra/testing"
)

type memoryLedgerRepo struct {
	transactions map[uuid.UUID]Transaction
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{transactions: make(map[uuid.UUID]Transaction)}
}

func (r *memoryLedgerRepo) Insert(ctx context.Context, t Transaction) error {
	r.transactions[t.ID] = t
	return nil
}

func (r *memoryLedgerRepo) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	t, ok := r.transactions[id]
	if !ok {
		return Transaction{}, fmt.Errorf("ledger: transaction %w", shared.ErrNotFound)
	}
	return t, nil
}

func (r *memoryLedgerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.transactions[id]; !ok {
		return fmt.Errorf("ledger: transaction %w", shared.ErrNotFound)
	}
	delete(r.transactions, id)
	return nil
}

func (r *memoryLedgerRepo) List(ctx context.Context, businessID uuid.UUID, filter ListFilter) ([]Transaction, error) {
	var out []Transaction
	for _, t := range r.transactions {
		if t.BusinessID != businessID {
			continue
		}
		if filter.From != nil && t.TransactionDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.TransactionDate.After(*filter.To) {
			continue
		}
		if filter.Type != "" && string(t.Type) != filter.Type {
			continue
		}
		out = append(out, t)
	}
	return out, nil
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

type capitalCall struct {
	businessID uuid.UUID
	memberID   uuid.UUID
	sourceID   uuid.UUID
	amount     decimal.Decimal
	date       time.Time
}

type recordingCapital struct {
	calls []capitalCall
	err   error
}

func (c *recordingCapital) AutoCapitalize(ctx context.Context, businessID, memberID, sourceTransactionID uuid.UUID, amount decimal.Decimal, date time.Time) error {
	c.calls = append(c.calls, capitalCall{businessID, memberID, sourceTransactionID, amount, date})
	return c.err
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

func fixture() (owner, member, businessID uuid.UUID, members staticMembers) {
	owner = uuid.New()
	member = uuid.New()
	businessID = uuid.New()
	members = staticMembers{
		members: map[uuid.UUID]bool{owner: true, member: true},
		owners:  map[uuid.UUID]bool{owner: true},
	}
	return
}

func TestRecordRevenue(t *testing.T) {
	_, member, businessID, members := fixture()
	repo := newMemoryLedgerRepo()
	audit := &recordingAudit{}
	capital := &recordingCapital{}
	svc := NewService(repo, members, audit, capital, nil)

	tx, err := svc.Record(context.Background(), member, businessID, RecordInput{
		Amount: dec("750000"), Type: "revenue", Category: "sales",
		PaymentSource: PaymentSourceBusiness, Date: date("2025-05-01"),
	})
	require.NoError(t, err)
	require.Equal(t, TypeRevenue, tx.Type)
	require.Len(t, repo.transactions, 1)
	require.Empty(t, capital.calls)

	require.Len(t, audit.logs, 1)
	require.Equal(t, shared.ActionTransactionRevenue, audit.logs[0].Action)
}

func TestRecordPartnerPaidExpenseAutoCapitalizes(t *testing.T) {
	_, member, businessID, members := fixture()
	repo := newMemoryLedgerRepo()
	capital := &recordingCapital{}
	svc := NewService(repo, members, nil, capital, nil)

	tx, err := svc.Record(context.Background(), member, businessID, RecordInput{
		Amount: dec("50000"), Type: "expense", Category: "supplies",
		PaymentSource: member.String(), Date: date("2025-05-02"),
	})
	require.NoError(t, err)

	require.Len(t, capital.calls, 1)
	call := capital.calls[0]
	require.Equal(t, businessID, call.businessID)
	require.Equal(t, member, call.memberID)
	require.Equal(t, tx.ID, call.sourceID)
	require.True(t, call.amount.Equal(dec("50000")))
	require.True(t, call.date.Equal(date("2025-05-02")))
}

func TestRecordBusinessPaidExpenseSkipsCapitalization(t *testing.T) {
	_, member, businessID, members := fixture()
	repo := newMemoryLedgerRepo()
	capital := &recordingCapital{}
	svc := NewService(repo, members, nil, capital, nil)

	_, err := svc.Record(context.Background(), member, businessID, RecordInput{
		Amount: dec("120000"), Type: "expense",
		PaymentSource: PaymentSourceBusiness, Date: date("2025-05-03"),
	})
	require.NoError(t, err)
	require.Empty(t, capital.calls)
}

func TestRecordSurvivesCapitalizationFailure(t *testing.T) {
	_, member, businessID, members := fixture()
	repo := newMemoryLedgerRepo()
	capital := &recordingCapital{err: errors.New("capital ledger unavailable")}
	svc := NewService(repo, members, nil, capital, nil)

	tx, err := svc.Record(context.Background(), member, businessID, RecordInput{
		Amount: dec("50000"), Type: "expense",
		PaymentSource: member.String(), Date: date("2025-05-02"),
	})
	require.NoError(t, err)
	_, found := repo.transactions[tx.ID]
	require.True(t, found, "transaction must stand despite side effect failure")
}

func TestRecordRejectsBadPaymentSource(t *testing.T) {
	_, member, businessID, members := fixture()
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, members, nil, nil, nil)
	ctx := context.Background()

	// Revenue may only flow into the business cash box.
	_, err := svc.Record(ctx, member, businessID, RecordInput{
		Amount: dec("10000"), Type: "revenue",
		PaymentSource: member.String(), Date: date("2025-05-01"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Record(ctx, member, businessID, RecordInput{
		Amount: dec("10000"), Type: "expense",
		PaymentSource: "petty-cash", Date: date("2025-05-01"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	outsider := uuid.New()
	_, err = svc.Record(ctx, member, businessID, RecordInput{
		Amount: dec("10000"), Type: "expense",
		PaymentSource: outsider.String(), Date: date("2025-05-01"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.transactions)
}

func TestDeleteRequiresOwner(t *testing.T) {
	owner, member, businessID, members := fixture()
	repo := newMemoryLedgerRepo()
	audit := &recordingAudit{}
	svc := NewService(repo, members, audit, nil, nil)
	ctx := context.Background()

	tx, err := svc.Record(ctx, member, businessID, RecordInput{
		Amount: dec("10000"), Type: "revenue",
		PaymentSource: PaymentSourceBusiness, Date: date("2025-05-01"),
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, member, businessID, tx.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Len(t, repo.transactions, 1)

	err = svc.Delete(ctx, owner, businessID, tx.ID)
	require.NoError(t, err)
	require.Empty(t, repo.transactions)

	last := audit.logs[len(audit.logs)-1]
	require.Equal(t, shared.ActionTransactionDeleted, last.Action)
}

func TestDeleteAutoCapitalizedExpenseLeavesContribution(t *testing.T) {
	owner, member, businessID, members := fixture()
	repo := newMemoryLedgerRepo()
	capital := &recordingCapital{}
	svc := NewService(repo, members, nil, capital, nil)
	ctx := context.Background()

	tx, err := svc.Record(ctx, member, businessID, RecordInput{
		Amount: dec("50000"), Type: "expense",
		PaymentSource: member.String(), Date: date("2025-05-02"),
	})
	require.NoError(t, err)
	require.Len(t, capital.calls, 1)

	// Deleting the source transaction succeeds; the from_expense contribution
	// is a fact of the capital ledger and stays behind (the schema detaches
	// the source reference with ON DELETE SET NULL rather than blocking).
	require.NoError(t, svc.Delete(ctx, owner, businessID, tx.ID))
	require.Empty(t, repo.transactions)
	require.Len(t, capital.calls, 1, "the capitalized contribution is not reversed")
}

func TestDeleteScopedToBusiness(t *testing.T) {
	owner, member, businessID, members := fixture()
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, members, nil, nil, nil)
	ctx := context.Background()

	tx, err := svc.Record(ctx, member, businessID, RecordInput{
		Amount: dec("10000"), Type: "revenue",
		PaymentSource: PaymentSourceBusiness, Date: date("2025-05-01"),
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, owner, uuid.New(), tx.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Len(t, repo.transactions, 1)
}

func TestListFilters(t *testing.T) {
	_, member, businessID, members := fixture()
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, members, nil, nil, nil)
	ctx := context.Background()

	for _, tc := range []struct {
		day    string
		ttype  string
		amount string
	}{
		{"2025-05-01", "revenue", "100"},
		{"2025-05-10", "expense", "40"},
		{"2025-06-01", "revenue", "200"},
	} {
		_, err := svc.Record(ctx, member, businessID, RecordInput{
			Amount: dec(tc.amount), Type: tc.ttype,
			PaymentSource: PaymentSourceBusiness, Date: date(tc.day),
		})
		require.NoError(t, err)
	}

	from, to := date("2025-05-01"), date("2025-05-31")
	may, err := svc.List(ctx, member, businessID, ListFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, may, 2)

	revenue, err := svc.List(ctx, member, businessID, ListFilter{Type: "revenue"})
	require.NoError(t, err)
	require.Len(t, revenue, 2)

	_, err = svc.List(ctx, member, businessID, ListFilter{Type: "transfer"})
	require.ErrorIs(t, err, shared.ErrValidation)
}
