package zauth

import (
	"context"
	"time"
)

// The lockout policy is pure state transition over [LockoutState]; the
// engine persists the result through the provider. Reads and writes are not
// transactional, so two racing failures may count as one. That loses at
// most one increment and never unlocks early.

func lockDurationMinutes(cfg LockoutConfig, lockoutCount int) int {
	if lockoutCount <= 0 {
		return 0
	}
	minutes := cfg.BaseLockMinutes
	for i := 1; i < lockoutCount; i++ {
		minutes *= 2
		if minutes >= cfg.MaxLockMinutes {
			return cfg.MaxLockMinutes
		}
	}
	if minutes > cfg.MaxLockMinutes {
		return cfg.MaxLockMinutes
	}
	return minutes
}

func lockoutIsLocked(state LockoutState, now time.Time) bool {
	return state.LockUntil > 0 && now.Unix() < state.LockUntil
}

// lockoutRecordFailure returns the state after one failed password attempt.
// A failure while the lock window is open changes nothing: locked attempts
// never extend the lock.
func lockoutRecordFailure(cfg LockoutConfig, state LockoutState, now time.Time) LockoutState {
	if lockoutIsLocked(state, now) {
		return state
	}

	// An expired lock window means the previous escalation ran its course;
	// the attempt counter starts fresh but the escalation count is kept.
	if state.LockUntil > 0 && now.Unix() >= state.LockUntil {
		state.LockUntil = 0
		state.LoginAttempts = 0
	}

	state.LoginAttempts++
	if state.LoginAttempts >= cfg.Threshold {
		state.LockoutCount++
		minutes := lockDurationMinutes(cfg, state.LockoutCount)
		state.LockUntil = now.Add(time.Duration(minutes) * time.Minute).Unix()
		state.LoginAttempts = 0
	}
	return state
}

// lockoutRecordSuccess clears all failure history after a fully successful
// authentication.
func lockoutRecordSuccess() LockoutState {
	return LockoutState{}
}

func (e *Engine) persistLockout(ctx context.Context, accountID string, state LockoutState) error {
	if err := e.provider.UpdateLockoutState(ctx, accountID, state); err != nil {
		return wrapBackend(err)
	}
	return nil
}
