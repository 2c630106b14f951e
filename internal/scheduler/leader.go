package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/OrderBridge/internal/repo"
	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// Elector сообщает, может ли этот экземпляр выполнять публикацию.
type Elector interface {
	IsLeader(ctx context.Context) (bool, error)
}

// heldLock — взятый lock лидера.
type heldLock interface {
	Alive(ctx context.Context) error
	Release(ctx context.Context) error
}

// PGElector — лидерство через session-level advisory lock Postgres.
// Взятый lock удерживается до Release или до потери его соединения.
type PGElector struct {
	tryLock func(ctx context.Context) (heldLock, error)
	logger  *slog.Logger

	mu   sync.Mutex
	lock heldLock
}

// NewPGElector создаёт PGElector.
func NewPGElector(pool *pgxpool.Pool, key int64, logger *slog.Logger) *PGElector {
	return &PGElector{
		tryLock: func(ctx context.Context) (heldLock, error) {
			lock, err := repo.TryAdvisoryLock(ctx, pool, key)
			if err != nil || lock == nil {
				return nil, err
			}
			return lock, nil
		},
		logger: telemetry.OrDiscard(logger),
	}
}

// IsLeader подтверждает взятый lock или пытается взять его.
//
// Lock с потерянным соединением отбрасывается: Postgres снял его
// вместе с сессией, и его мог взять другой экземпляр.
func (e *PGElector) IsLeader(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lock != nil {
		err := e.lock.Alive(ctx)
		if err == nil {
			return true, nil
		}
		e.logger.Warn("leader lock connection lost, re-acquiring", "error", err)
		_ = e.lock.Release(ctx)
		e.lock = nil
	}

	lock, err := e.tryLock(ctx)
	if err != nil {
		return false, err
	}
	e.lock = lock
	return lock != nil, nil
}

// Release освобождает lock, если он был взят.
func (e *PGElector) Release(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lock == nil {
		return nil
	}
	err := e.lock.Release(ctx)
	e.lock = nil
	return err
}

// AlwaysLeader — Elector для единственного экземпляра.
type AlwaysLeader struct{}

// IsLeader реализует Elector.
func (AlwaysLeader) IsLeader(context.Context) (bool, error) { return true, nil }
