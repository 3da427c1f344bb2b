package application

import (
	"context"
	"testing"
	"time"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotLocker_AcquireAndRelease(t *testing.T) {
	locks := NewLotLocker()
	lotID := uuid.New()

	release, err := locks.Acquire(context.Background(), lotID)
	require.NoError(t, err)
	release()

	// released lock is immediately acquirable again
	release, err = locks.Acquire(context.Background(), lotID)
	require.NoError(t, err)
	release()
}

func TestLotLocker_BoundedWaitOnContention(t *testing.T) {
	locks := NewLotLocker()
	locks.waitFor = 20 * time.Millisecond
	lotID := uuid.New()

	release, err := locks.Acquire(context.Background(), lotID)
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = locks.Acquire(context.Background(), lotID)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.Less(t, time.Since(start), time.Second, "contended acquire must give up at the bound, not block")
}

func TestLotLocker_IndependentLots(t *testing.T) {
	locks := NewLotLocker()
	locks.waitFor = 20 * time.Millisecond

	releaseA, err := locks.Acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	defer releaseA()

	// a different lot is not serialized behind the first
	releaseB, err := locks.Acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	releaseB()
}

func TestLotLocker_EvictsIdleEntries(t *testing.T) {
	locks := NewLotLocker()
	locks.waitFor = 20 * time.Millisecond
	lotID := uuid.New()

	release, err := locks.Acquire(context.Background(), lotID)
	require.NoError(t, err)

	locks.mu.Lock()
	assert.Len(t, locks.locks, 1)
	locks.mu.Unlock()

	// a timed-out waiter must not pin the entry either
	_, err = locks.Acquire(context.Background(), lotID)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	release()

	locks.mu.Lock()
	assert.Empty(t, locks.locks, "a free lock leaves no entry behind")
	locks.mu.Unlock()

	// and the lot stays acquirable afterwards
	release, err = locks.Acquire(context.Background(), lotID)
	require.NoError(t, err)
	release()
}

func TestLotLocker_CanceledContext(t *testing.T) {
	locks := NewLotLocker()
	lotID := uuid.New()

	release, err := locks.Acquire(context.Background(), lotID)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.Acquire(ctx, lotID)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}
