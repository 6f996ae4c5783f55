package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/ESG-Materiality/pkg/errors"
)

func TestMutex_TryLockAndUnlock(t *testing.T) {
	t.Parallel()
	client, mock := newMockClient(t)
	m := newMutex(client, "esgm:lock:export:7:2024", "owner-1", defaultLockConfig(), logging.NewNopLogger())
	ctx := context.Background()

	mock.ExpectSetNX("esgm:lock:export:7:2024", "owner-1", 30*time.Second).SetVal(true)
	mock.ExpectEvalSha(unlockScript.Hash(), []string{"esgm:lock:export:7:2024"}, "owner-1").SetVal(int64(1))

	ok, err := m.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, m.Unlock(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutex_TryLockHeldElsewhere(t *testing.T) {
	t.Parallel()
	client, mock := newMockClient(t)
	m := newMutex(client, "k", "owner-1", defaultLockConfig(), logging.NewNopLogger())

	mock.ExpectSetNX("k", "owner-1", 30*time.Second).SetVal(false)

	ok, err := m.TryLock(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutex_TryLockRedisError(t *testing.T) {
	t.Parallel()
	client, mock := newMockClient(t)
	m := newMutex(client, "k", "owner-1", defaultLockConfig(), logging.NewNopLogger())

	mock.ExpectSetNX("k", "owner-1", 30*time.Second).SetErr(errors.New("timeout"))

	_, err := m.TryLock(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func TestMutex_LockGivesUpAfterRetries(t *testing.T) {
	t.Parallel()
	client, mock := newMockClient(t)
	cfg := lockConfig{ttl: time.Second, retryDelay: time.Millisecond, retryCount: 2}
	m := newMutex(client, "k", "owner-1", cfg, logging.NewNopLogger())

	mock.ExpectSetNX("k", "owner-1", time.Second).SetVal(false)
	mock.ExpectSetNX("k", "owner-1", time.Second).SetVal(false)

	err := m.Lock(context.Background())
	assert.True(t, pkgerrors.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutex_LockSecondAttempt(t *testing.T) {
	t.Parallel()
	client, mock := newMockClient(t)
	cfg := lockConfig{ttl: time.Second, retryDelay: time.Millisecond, retryCount: 3}
	m := newMutex(client, "k", "owner-1", cfg, logging.NewNopLogger())

	mock.ExpectSetNX("k", "owner-1", time.Second).SetVal(false)
	mock.ExpectSetNX("k", "owner-1", time.Second).SetVal(true)

	require.NoError(t, m.Lock(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutex_UnlockNotHeld(t *testing.T) {
	t.Parallel()
	client, mock := newMockClient(t)
	m := newMutex(client, "k", "owner-1", defaultLockConfig(), logging.NewNopLogger())

	mock.ExpectEvalSha(unlockScript.Hash(), []string{"k"}, "owner-1").SetVal(int64(0))

	err := m.Unlock(context.Background())
	assert.ErrorContains(t, err, "lock not held")
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestMutex_Extend(t *testing.T) {
	t.Parallel()
	client, mock := newMockClient(t)
	m := newMutex(client, "k", "owner-1", defaultLockConfig(), logging.NewNopLogger())

	mock.ExpectEvalSha(extendScript.Hash(), []string{"k"}, "owner-1", int64(5000)).SetVal(int64(1))

	ok, err := m.Extend(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockFactory_KeyLayout(t *testing.T) {
	t.Parallel()
	client, _ := newMockClient(t)
	f := NewLockFactory(client, "esgm:", logging.NewNopLogger())

	m := f.NewMutex("export:7:2024", WithLockTTL(time.Minute), WithRetryCount(1), WithRetryDelay(time.Millisecond)).(*redisMutex)
	assert.Equal(t, "esgm:lock:export:7:2024", m.key)
	assert.NotEmpty(t, m.value)
	assert.Equal(t, time.Minute, m.config.ttl)
	assert.Equal(t, 1, m.config.retryCount)
}
