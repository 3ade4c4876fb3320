package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

// =============================================================================
// Redis
// =============================================================================

func TestRedisLock_ExclusiveUntilReleased(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()
	key := RunKey("leadclean:run", "s3://leads/clean")

	first := NewRedisLock(rdb, key, time.Minute)
	second := NewRedisLock(rdb, key, time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// A non-owner release must not free the lock.
	require.NoError(t, second.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_TTLExpiry(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()

	l := NewRedisLock(rdb, "job", 10*time.Second)
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("lock:job"))

	mr.FastForward(11 * time.Second)
	assert.False(t, mr.Exists("lock:job"))
}

func TestRedisLock_Extend(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()

	l := NewRedisLock(rdb, "job", 10*time.Second)
	_, err := l.Acquire(ctx)
	require.NoError(t, err)

	require.NoError(t, l.Extend(ctx, time.Minute))
	mr.FastForward(30 * time.Second)
	assert.True(t, mr.Exists("lock:job"))

	other := NewRedisLock(rdb, "job", time.Minute)
	assert.ErrorIs(t, other.Extend(ctx, time.Minute), ErrLockHeld)
}

func TestGuard(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()

	_, release, err := Guard(ctx, NewLock(rdb, nil, "out", time.Minute))
	require.NoError(t, err)

	_, _, err = Guard(ctx, NewLock(rdb, nil, "out", time.Minute))
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, release(ctx))
	_, release, err = Guard(ctx, NewLock(rdb, nil, "out", time.Minute))
	require.NoError(t, err)
	assert.NoError(t, release(ctx))
}

func TestGuard_KeepsLockPastTTL(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()
	ttl := 200 * time.Millisecond

	runCtx, release, err := Guard(ctx, NewRedisLock(rdb, "job", ttl))
	require.NoError(t, err)

	// miniredis only ages keys on FastForward; renewals every ttl/2 must keep
	// the key alive across several TTLs of simulated time.
	for i := 0; i < 5; i++ {
		time.Sleep(150 * time.Millisecond)
		mr.FastForward(150 * time.Millisecond)
		require.True(t, mr.Exists("lock:job"), "lock expired after %d steps", i+1)
	}
	assert.NoError(t, runCtx.Err())

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("lock:job"))
	assert.ErrorIs(t, runCtx.Err(), context.Canceled)
}

func TestGuard_CancelsRunWhenLockLost(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()

	runCtx, release, err := Guard(ctx, NewRedisLock(rdb, "job", 100*time.Millisecond))
	require.NoError(t, err)

	mr.FastForward(time.Second)
	require.NoError(t, mr.Set("lock:job", "another-run"))

	require.Eventually(t, func() bool { return runCtx.Err() != nil }, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, context.Cause(runCtx), ErrLockHeld)

	require.NoError(t, release(ctx))
	got, err := mr.Get("lock:job")
	require.NoError(t, err)
	assert.Equal(t, "another-run", got, "release must not drop another run's lock")
}

func TestNewLock_Backends(t *testing.T) {
	_, rdb := setupRedis(t)
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.IsType(t, &RedisLock{}, NewLock(rdb, db, "k", time.Minute))
	assert.IsType(t, &PGAdvisoryLock{}, NewLock(nil, db, "k", time.Minute))
	assert.IsType(t, NoopLock{}, NewLock(nil, nil, "k", time.Minute))

	runCtx, release, err := Guard(context.Background(), NoopLock{})
	require.NoError(t, err)
	assert.Equal(t, context.Background(), runCtx)
	assert.NoError(t, release(context.Background()))
}

// =============================================================================
// PostgreSQL
// =============================================================================

func TestPGAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	l := NewPGAdvisoryLock(db, "leadclean:run:out")

	mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
		WithArgs(l.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).
		WithArgs(l.lockID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(ctx))
	assert.NoError(t, l.Release(ctx), "second release is a no-op")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLock_Held(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "busy")
	mock.ExpectQuery(`SELECT pg_try_advisory_lock`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	_, _, err = Guard(context.Background(), l)
	assert.ErrorIs(t, err, ErrLockHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLock_DeterministicID(t *testing.T) {
	assert.Equal(t, NewPGAdvisoryLock(nil, "a").lockID, NewPGAdvisoryLock(nil, "a").lockID)
	assert.NotEqual(t, NewPGAdvisoryLock(nil, "a").lockID, NewPGAdvisoryLock(nil, "b").lockID)
}
