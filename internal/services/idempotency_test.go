package services

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/loyalty-engine/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) redis.RedisAdapter {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	// unique connection name per test, the adapter caches by name
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return adapter
}

func TestIdempotencyGuard_DuplicateSubmission(t *testing.T) {
	guard := NewIdempotencyGuard(setupTestRedis(t), DefaultIdempotencyConfig())

	require.NoError(t, guard.Begin("evt-1"))
	require.NoError(t, guard.Commit("evt-1"))

	err := guard.Begin("evt-1")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	processed, err := guard.IsProcessed("evt-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestIdempotencyGuard_ConcurrentSubmission(t *testing.T) {
	guard := NewIdempotencyGuard(setupTestRedis(t), DefaultIdempotencyConfig())

	require.NoError(t, guard.Begin("evt-2"))

	// second submission while the first is still in flight
	err := guard.Begin("evt-2")
	assert.ErrorIs(t, err, ErrLockAcquireFailed)
}

func TestIdempotencyGuard_RollbackAllowsRetry(t *testing.T) {
	guard := NewIdempotencyGuard(setupTestRedis(t), DefaultIdempotencyConfig())

	require.NoError(t, guard.Begin("evt-3"))
	guard.Rollback("evt-3")

	// the failed submission never marked the key processed, retry goes through
	assert.NoError(t, guard.Begin("evt-3"))

	processed, err := guard.IsProcessed("evt-3")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestIdempotencyGuard_DistinctKeys(t *testing.T) {
	guard := NewIdempotencyGuard(setupTestRedis(t), DefaultIdempotencyConfig())

	require.NoError(t, guard.Begin("evt-a"))
	assert.NoError(t, guard.Begin("evt-b"))
}
