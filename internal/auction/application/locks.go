package application

import (
	"context"
	"sync"
	"time"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
)

// defaultLockWait bounds how long a submission may wait on the per-lot
// critical section before it is surfaced as a retryable conflict instead of
// blocking indefinitely
const defaultLockWait = 2 * time.Second

// LotLocker serializes commits per lot: only one arbitration commit may be in
// flight for a given lot at a time, submissions against different lots run
// fully in parallel. Nobody holds a lock across a request, every acquisition
// is a short bounded section around read-validate-write. Entries are
// reference-counted and dropped once the last holder or waiter releases, so
// the map does not accumulate one entry per lot ever touched.
type LotLocker struct {
	mu      sync.Mutex
	waitFor time.Duration
	locks   map[uuid.UUID]*lotLock
}

type lotLock struct {
	sem  chan struct{}
	refs int
}

func NewLotLocker() *LotLocker {
	return &LotLocker{
		waitFor: defaultLockWait,
		locks:   make(map[uuid.UUID]*lotLock),
	}
}

func (l *LotLocker) ref(lotID uuid.UUID) *lotLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.locks[lotID]
	if !ok {
		entry = &lotLock{sem: make(chan struct{}, 1)}
		l.locks[lotID] = entry
	}
	entry.refs++
	return entry
}

func (l *LotLocker) unref(lotID uuid.UUID, entry *lotLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, lotID)
	}
}

// Acquire takes the per-lot lock, waiting at most the configured bound. On
// timeout or context cancellation it returns ErrConcurrencyConflict so the
// caller can refetch and retry. The returned release function must be called
// exactly once.
func (l *LotLocker) Acquire(ctx context.Context, lotID uuid.UUID) (func(), error) {
	entry := l.ref(lotID)
	timer := time.NewTimer(l.waitFor)
	defer timer.Stop()

	select {
	case entry.sem <- struct{}{}:
		return func() {
			<-entry.sem
			l.unref(lotID, entry)
		}, nil
	case <-timer.C:
		l.unref(lotID, entry)
		return nil, domain.ErrConcurrencyConflict
	case <-ctx.Done():
		l.unref(lotID, entry)
		return nil, domain.ErrConcurrencyConflict
	}
}
