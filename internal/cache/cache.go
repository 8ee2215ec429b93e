package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/segyhp/emi-ledger/internal/domain"
)

// ScheduleCache keeps read copies of purchase schedules. The database stays authoritative.
//
// Readers take Version before loading a schedule from the database and hand it back to
// SetSchedule. Invalidate bumps the version, so a snapshot loaded before a payment
// committed is never written over the invalidation.
type ScheduleCache interface {
	// GetSchedule reports ok=false on a miss
	GetSchedule(ctx context.Context, purchaseID uuid.UUID) (schedule []*domain.Installment, ok bool, err error)
	Version(ctx context.Context, purchaseID uuid.UUID) (int64, error)
	// SetSchedule stores the schedule only while the version is still the given one
	SetSchedule(ctx context.Context, purchaseID uuid.UUID, version int64, schedule []*domain.Installment) error
	Invalidate(ctx context.Context, purchaseID uuid.UUID) error
}

// Locker serialises payments per purchase
type Locker interface {
	// Acquire returns ErrPaymentInProgress when another holder owns the key
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// NoopCache is used when redis is disabled; every read misses
type NoopCache struct{}

func (NoopCache) GetSchedule(context.Context, uuid.UUID) ([]*domain.Installment, bool, error) {
	return nil, false, nil
}

func (NoopCache) Version(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (NoopCache) SetSchedule(context.Context, uuid.UUID, int64, []*domain.Installment) error {
	return nil
}

func (NoopCache) Invalidate(context.Context, uuid.UUID) error { return nil }

// MemoryLocker is an in-process Locker for single instance deployments
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, errLockHeld(key)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
