package zauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// mfaLimiter throttles second-factor guessing per account. A counter with a
// rolling cooldown window backs it; the window starts at the first failure.
type mfaLimiter struct {
	redis  redis.UniversalClient
	config MFAConfig
}

func newMFALimiter(redisClient redis.UniversalClient, cfg MFAConfig) *mfaLimiter {
	return &mfaLimiter{redis: redisClient, config: cfg}
}

func (l *mfaLimiter) key(accountID string) string {
	return "zmfa:" + accountID
}

func (l *mfaLimiter) Check(ctx context.Context, accountID string) error {
	count, err := l.redis.Get(ctx, l.key(accountID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrMFARateLimited
	}
	return nil
}

func (l *mfaLimiter) RecordFailure(ctx context.Context, accountID string) error {
	count, err := l.redis.Incr(ctx, l.key(accountID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(accountID), l.config.AttemptCooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrMFARateLimited
	}
	return nil
}

func (l *mfaLimiter) Reset(ctx context.Context, accountID string) error {
	if err := l.redis.Del(ctx, l.key(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
