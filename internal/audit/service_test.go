package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	_ "github.com/bukumitra/bukumitra/testing"
)

type memoryTimelineRepo struct {
	rows []TimelineRow
}

func (r *memoryTimelineRepo) TimelineWindow(ctx context.Context, businessID uuid.UUID, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	if offset >= len(r.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.rows) {
		end = len(r.rows)
	}
	return r.rows[offset:end], nil
}

type allowAllMembers struct{}

func (allowAllMembers) RequireMember(ctx context.Context, businessID, userID uuid.UUID) error {
	return nil
}

func timelineRows(n int) []TimelineRow {
	rows := make([]TimelineRow, 0, n)
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		rows = append(rows, TimelineRow{
			At:     base.Add(-time.Duration(i) * time.Hour),
			Action: "capital_contribution",
		})
	}
	return rows
}

func TestTimelinePaging(t *testing.T) {
	repo := &memoryTimelineRepo{rows: timelineRows(45)}
	svc := NewService(repo, allowAllMembers{})
	ctx := context.Background()

	first, err := svc.Timeline(ctx, uuid.New(), uuid.New(), TimelineFilters{})
	require.NoError(t, err)
	require.Len(t, first.Rows, 20)
	require.True(t, first.Paging.HasNext)
	require.Equal(t, 2, first.Paging.NextPage)
	require.Zero(t, first.Paging.PrevPage)

	last, err := svc.Timeline(ctx, uuid.New(), uuid.New(), TimelineFilters{Page: 3})
	require.NoError(t, err)
	require.Len(t, last.Rows, 5)
	require.False(t, last.Paging.HasNext)
	require.Equal(t, 2, last.Paging.PrevPage)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &memoryTimelineRepo{rows: timelineRows(120)}
	svc := NewService(repo, allowAllMembers{})

	result, err := svc.Timeline(context.Background(), uuid.New(), uuid.New(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	require.Len(t, result.Rows, 50)
	require.Equal(t, 50, result.Paging.PageSize)
}
