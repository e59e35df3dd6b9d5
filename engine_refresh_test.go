package zauth

import (
	"context"
	"errors"
	"testing"
)

func loginForTokens(t *testing.T, engine *Engine) *LoginResult {
	t.Helper()
	res, err := engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return res
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)
	res := loginForTokens(t, engine)

	ctx := context.Background()
	pair, err := engine.Refresh(ctx, res.RefreshToken, "")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected rotated pair")
	}
	if pair.RefreshToken == res.RefreshToken {
		t.Fatal("rotation must mint a new refresh token")
	}

	// The consumed token is now a replay.
	_, err = engine.Refresh(ctx, res.RefreshToken, "")
	if !errors.Is(err, ErrReplayOrUnknown) {
		t.Fatalf("expected ErrReplayOrUnknown for replayed token, got %v", err)
	}
}

func TestRefreshReplayRevokesAllSessions(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)
	res := loginForTokens(t, engine)

	ctx := context.Background()
	pair, err := engine.Refresh(ctx, res.RefreshToken, "")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// Replaying the consumed token burns the whole family.
	if _, err := engine.Refresh(ctx, res.RefreshToken, ""); !errors.Is(err, ErrReplayOrUnknown) {
		t.Fatalf("expected ErrReplayOrUnknown, got %v", err)
	}

	// The legitimate successor must be dead too.
	if _, err := engine.Refresh(ctx, pair.RefreshToken, ""); err == nil {
		t.Fatal("expected successor token to be revoked after replay")
	}
}

func TestRefreshUnknownTokenRejected(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)
	res := loginForTokens(t, engine)

	// A structurally valid refresh token the store never saw: mint one
	// directly without persisting a record.
	orphan, err := engine.issuer.Issue("refresh", "acct-1", string(RoleTeacher), 0)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	_ = res

	_, err = engine.Refresh(context.Background(), orphan, "")
	if !errors.Is(err, ErrReplayOrUnknown) {
		t.Fatalf("expected ErrReplayOrUnknown for unknown token, got %v", err)
	}
}

func TestRefreshAfterEpochBumpSuperseded(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)
	res := loginForTokens(t, engine)

	ctx := context.Background()
	if err := engine.LogoutEverywhere(ctx, "acct-1"); err != nil {
		t.Fatalf("LogoutEverywhere failed: %v", err)
	}

	_, err := engine.Refresh(ctx, res.RefreshToken, "")
	if !errors.Is(err, ErrSessionSuperseded) {
		t.Fatalf("expected ErrSessionSuperseded, got %v", err)
	}
}

func TestRefreshDeviceFallbackMintsNewPair(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)
	res := loginForTokens(t, engine)

	ctx := context.Background()
	// Consume the refresh token, then present the dead one plus the device
	// credential. The fallback should re-establish the session.
	if _, err := engine.Refresh(ctx, res.RefreshToken, ""); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	pair, err := engine.Refresh(ctx, res.RefreshToken, res.DeviceToken)
	if err != nil {
		t.Fatalf("device fallback failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected fresh pair from device fallback")
	}
}

func TestRefreshDeviceFallbackRespectsEpoch(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)
	res := loginForTokens(t, engine)

	ctx := context.Background()
	if err := engine.LogoutEverywhere(ctx, "acct-1"); err != nil {
		t.Fatalf("LogoutEverywhere failed: %v", err)
	}

	_, err := engine.Refresh(ctx, res.RefreshToken, res.DeviceToken)
	if !errors.Is(err, ErrSessionSuperseded) {
		t.Fatalf("expected ErrSessionSuperseded via device fallback, got %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)
	res := loginForTokens(t, engine)

	ctx := context.Background()
	if err := engine.Logout(ctx, res.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, res.RefreshToken, ""); !errors.Is(err, ErrReplayOrUnknown) {
		t.Fatalf("expected revoked token to be unusable, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)
	res := loginForTokens(t, engine)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := engine.Logout(ctx, res.RefreshToken); err != nil {
			t.Fatalf("Logout call %d failed: %v", i+1, err)
		}
	}
	if err := engine.Logout(ctx, "never-a-token"); err != nil {
		t.Fatalf("Logout of garbage token must be a no-op, got %v", err)
	}
}

func TestActiveSessionCount(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)

	ctx := context.Background()
	first := loginForTokens(t, engine)
	second := loginForTokens(t, engine)
	_ = first
	_ = second

	count, err := engine.ActiveSessionCount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("ActiveSessionCount failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 active sessions, got %d", count)
	}

	if err := engine.LogoutEverywhere(ctx, "acct-1"); err != nil {
		t.Fatalf("LogoutEverywhere failed: %v", err)
	}
	count, err = engine.ActiveSessionCount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("ActiveSessionCount failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 active sessions after logout-all, got %d", count)
	}
}

func TestAuthenticateRoundTrip(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RolePrincipal)
	res := loginForTokens(t, engine)

	principal, err := engine.Authenticate(res.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if principal.AccountID != "acct-1" || principal.Role != RolePrincipal {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	engine, provider, done := newTestEngine(t, engineTestConfig(t))
	defer done()

	seedAccount(t, engine, provider, "acct-1", "alice@example.com", "correct-horse", RoleTeacher)
	res := loginForTokens(t, engine)

	if _, err := engine.Authenticate(res.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong kind, got %v", err)
	}
}
