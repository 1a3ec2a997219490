package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	_ "github.com/bukumitra/bukumitra/testing"
)

func newTestLocker(t *testing.T) *EquityLocker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEquityLocker(client, time.Second)
}

func TestEquityLockerMutualExclusion(t *testing.T) {
	locker := newTestLocker(t)
	businessID := uuid.New()
	ctx := context.Background()

	release, ok := locker.Acquire(ctx, businessID)
	require.True(t, ok)

	_, second := locker.Acquire(ctx, businessID)
	require.False(t, second)

	release()

	release2, ok := locker.Acquire(ctx, businessID)
	require.True(t, ok)
	release2()
}

func TestEquityLockerIndependentBusinesses(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()

	releaseA, ok := locker.Acquire(ctx, uuid.New())
	require.True(t, ok)
	defer releaseA()

	releaseB, ok := locker.Acquire(ctx, uuid.New())
	require.True(t, ok)
	defer releaseB()
}

func TestEquityLockerNilClient(t *testing.T) {
	var locker *EquityLocker
	release, ok := locker.Acquire(context.Background(), uuid.New())
	require.False(t, ok)
	release()
}
