package zauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestMFALimiter(t *testing.T, cfg MFAConfig) (*mfaLimiter, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return newMFALimiter(rdb, cfg), mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestMFALimiterTripsAtMaxAttempts(t *testing.T) {
	cfg := DefaultConfig().MFA
	cfg.MaxAttempts = 3
	limiter, _, done := newTestMFALimiter(t, cfg)
	defer done()
	ctx := context.Background()

	if err := limiter.Check(ctx, "acct-1"); err != nil {
		t.Fatalf("fresh account should pass: %v", err)
	}

	for i := 0; i < cfg.MaxAttempts-1; i++ {
		if err := limiter.RecordFailure(ctx, "acct-1"); err != nil {
			t.Fatalf("failure %d should not trip yet: %v", i+1, err)
		}
	}
	if err := limiter.RecordFailure(ctx, "acct-1"); !errors.Is(err, ErrMFARateLimited) {
		t.Fatalf("expected ErrMFARateLimited at attempt %d, got %v", cfg.MaxAttempts, err)
	}
	if err := limiter.Check(ctx, "acct-1"); !errors.Is(err, ErrMFARateLimited) {
		t.Fatalf("check should stay tripped, got %v", err)
	}
}

func TestMFALimiterIsolatedPerAccount(t *testing.T) {
	cfg := DefaultConfig().MFA
	cfg.MaxAttempts = 1
	limiter, _, done := newTestMFALimiter(t, cfg)
	defer done()
	ctx := context.Background()

	if err := limiter.RecordFailure(ctx, "acct-1"); !errors.Is(err, ErrMFARateLimited) {
		t.Fatalf("expected trip, got %v", err)
	}
	if err := limiter.Check(ctx, "acct-2"); err != nil {
		t.Fatalf("other account should be unaffected: %v", err)
	}
}

func TestMFALimiterResetClearsCounter(t *testing.T) {
	cfg := DefaultConfig().MFA
	cfg.MaxAttempts = 1
	limiter, _, done := newTestMFALimiter(t, cfg)
	defer done()
	ctx := context.Background()

	if err := limiter.RecordFailure(ctx, "acct-1"); !errors.Is(err, ErrMFARateLimited) {
		t.Fatalf("expected trip, got %v", err)
	}
	if err := limiter.Reset(ctx, "acct-1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if err := limiter.Check(ctx, "acct-1"); err != nil {
		t.Fatalf("reset should clear the trip, got %v", err)
	}
}

func TestMFALimiterCooldownExpires(t *testing.T) {
	cfg := DefaultConfig().MFA
	cfg.MaxAttempts = 1
	cfg.AttemptCooldown = time.Minute
	limiter, mr, done := newTestMFALimiter(t, cfg)
	defer done()
	ctx := context.Background()

	if err := limiter.RecordFailure(ctx, "acct-1"); !errors.Is(err, ErrMFARateLimited) {
		t.Fatalf("expected trip, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := limiter.Check(ctx, "acct-1"); err != nil {
		t.Fatalf("cooldown lapse should clear the trip, got %v", err)
	}
}
