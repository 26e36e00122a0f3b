package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/loyalty-engine/pkg/logger"
	"github.com/nimasrn/loyalty-engine/pkg/redis"
)

var (
	ErrAlreadySubmitted  = errors.New("purchase already submitted")
	ErrLockAcquireFailed = errors.New("failed to acquire submission lock")
)

// IdempotencyConfig tunes the purchase submission guard.
type IdempotencyConfig struct {
	// LockTTL bounds how long a submission may be in flight before a retry is
	// allowed through again.
	LockTTL time.Duration

	// ProcessedTTL is how long a completed submission key keeps rejecting
	// duplicates.
	ProcessedTTL time.Duration

	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		LockKeyPrefix:      "lock:",
		ProcessedKeyPrefix: "processed:",
	}
}

// IdempotencyGuard makes purchase submission retry-safe. POS clients resend on
// network failure, the guard ensures a resent Idempotency-Key does not accrue
// points twice. With no redis configured the guard is simply not constructed
// and submissions are unprotected, matching the bare flat-file deployment.
type IdempotencyGuard struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyGuard(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyGuard {
	return &IdempotencyGuard{
		redis:  redisAdapter,
		config: config,
	}
}

// Begin claims the submission key. It fails with ErrAlreadySubmitted when the
// key completed before, and ErrLockAcquireFailed when another submission with
// the same key is currently in flight.
func (g *IdempotencyGuard) Begin(key string) error {
	processedKey := g.config.ProcessedKeyPrefix + key
	exists, err := g.redis.Exist(processedKey)
	if err != nil {
		// better to risk a duplicate than to block purchases on a redis error
		logger.Warn("idempotency check failed, allowing submission", "key", key, "error", err)
	} else if exists > 0 {
		return ErrAlreadySubmitted
	}

	lockKey := g.config.LockKeyPrefix + key
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
	acquired, err := g.redis.SetNX(lockKey, lockValue, g.config.LockTTL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return ErrLockAcquireFailed
	}
	return nil
}

// Commit marks the key as completed and releases the in-flight lock.
func (g *IdempotencyGuard) Commit(key string) error {
	processedKey := g.config.ProcessedKeyPrefix + key
	if err := g.redis.Set(processedKey, []byte("1"), g.config.ProcessedTTL); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	g.release(key)
	return nil
}

// Rollback releases the lock without marking the key processed so the client
// may retry.
func (g *IdempotencyGuard) Rollback(key string) {
	g.release(key)
}

func (g *IdempotencyGuard) release(key string) {
	lockKey := g.config.LockKeyPrefix + key
	if err := g.redis.Del(lockKey); err != nil {
		logger.Warn("failed to release submission lock", "key", key, "error", err)
	}
}

// IsProcessed reports whether the key already completed.
func (g *IdempotencyGuard) IsProcessed(key string) (bool, error) {
	exists, err := g.redis.Exist(g.config.ProcessedKeyPrefix + key)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
