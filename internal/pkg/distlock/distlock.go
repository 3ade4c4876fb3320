// Package distlock guards a cleaning run so that two runs never write the same
// output location at once.
package distlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/lead-cleaner/internal/pkg/logger"
)

// ErrLockHeld is returned by Guard when another run owns the lock.
var ErrLockHeld = errors.New("lock held by another run")

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// NewLock creates a lock using the best available backend: Redis when
// redisClient is non-nil, a PostgreSQL advisory lock when only db is set, and
// a no-op lock otherwise.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	switch {
	case redisClient != nil:
		return NewRedisLock(redisClient, key, ttl)
	case db != nil:
		return NewPGAdvisoryLock(db, key)
	default:
		return NoopLock{}
	}
}

// RunKey derives the lock key for runs writing to output.
func RunKey(prefix, output string) string {
	return prefix + ":" + output
}

// Expiring is implemented by locks that lapse unless renewed. Guard keeps
// such locks alive for as long as the run holds them.
type Expiring interface {
	TTL() time.Duration
	Extend(ctx context.Context, ttl time.Duration) error
}

// Guard acquires l and returns a context for the guarded work plus a release
// func. It returns ErrLockHeld when another run owns the lock.
//
// For an Expiring lock Guard renews the TTL every TTL/2 until release. If a
// renewal finds the lock gone, the returned context is cancelled with cause
// ErrLockHeld so the run stops before writing outputs it no longer owns.
func Guard(ctx context.Context, l DistLock) (context.Context, func(context.Context) error, error) {
	ok, err := l.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrLockHeld
	}

	exp, ok := l.(Expiring)
	if !ok || exp.TTL() <= 0 {
		return ctx, l.Release, nil
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(runCtx, exp, cancel)
	}()

	release := func(rctx context.Context) error {
		cancel(nil)
		<-done
		return l.Release(rctx)
	}
	return runCtx, release, nil
}

func keepAlive(ctx context.Context, l Expiring, lost context.CancelCauseFunc) {
	ttl := l.TTL()
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := l.Extend(ctx, ttl)
			switch {
			case err == nil:
			case errors.Is(err, ErrLockHeld):
				logger.Warn("distlock: run lock lost", "ttl", ttl)
				lost(ErrLockHeld)
				return
			case ctx.Err() == nil:
				// Transient: the next tick retries before the TTL runs out.
				logger.Warn("distlock: failed to extend run lock", "error", err)
			}
		}
	}
}

// NoopLock always succeeds. It is used when no lock backend is configured.
type NoopLock struct{}

func (NoopLock) Acquire(context.Context) (bool, error) { return true, nil }
func (NoopLock) Release(context.Context) error         { return nil }

// =============================================================================
// PostgreSQL Advisory Lock (fallback when Redis is unavailable)
// =============================================================================
// pg_try_advisory_lock is session-scoped, so the lock pins one connection from
// the pool until Release. The lock is dropped if that connection dies.

// PGAdvisoryLock implements DistLock using PostgreSQL advisory locks.
type PGAdvisoryLock struct {
	db     *sql.DB
	conn   *sql.Conn
	lockID int64
}

// NewPGAdvisoryLock creates a PG advisory lock with a deterministic lock ID
// derived from the given key string.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

// Acquire tries to acquire the advisory lock without blocking.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("advisory lock connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("advisory lock %d: %w", l.lockID, err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

// Release releases the advisory lock and returns its connection to the pool.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
	}()
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}
