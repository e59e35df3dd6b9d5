package zauth

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAutoLoginReturnsTokens(t *testing.T) {
	cfg := engineTestConfig(t)
	engine, provider, done := newTestEngine(t, cfg)
	defer done()
	ctx := context.Background()

	result, err := engine.Register(ctx, RegisterRequest{
		Email:    "New.Student@Example.com",
		Name:     "  New Student  ",
		Password: "a-long-enough-password",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.AccountID == "" {
		t.Fatal("expected an account id")
	}
	if result.Role != RoleStudent {
		t.Fatalf("expected default role student, got %q", result.Role)
	}
	if result.AccessToken == "" || result.RefreshToken == "" || result.DeviceToken == "" {
		t.Fatal("auto-login should return a full token set")
	}

	account := provider.get(result.AccountID)
	if account.Email != "new.student@example.com" {
		t.Fatalf("email should be normalized, got %q", account.Email)
	}
	if account.Name != "New Student" {
		t.Fatalf("name should be trimmed, got %q", account.Name)
	}

	principal, err := engine.Authenticate(result.AccessToken)
	if err != nil {
		t.Fatalf("authenticate after register failed: %v", err)
	}
	if principal.AccountID != result.AccountID {
		t.Fatalf("principal mismatch: %q", principal.AccountID)
	}

	if got := engine.metrics.Value(MetricRegisterSuccess); got != 1 {
		t.Fatalf("expected register success counter 1, got %d", got)
	}
}

func TestRegisterWithoutAutoLogin(t *testing.T) {
	cfg := engineTestConfig(t)
	cfg.Register.AutoLogin = false
	engine, _, done := newTestEngine(t, cfg)
	defer done()

	result, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "quiet@example.com",
		Password: "a-long-enough-password",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.AccessToken != "" || result.RefreshToken != "" || result.DeviceToken != "" {
		t.Fatal("auto-login disabled should return no tokens")
	}
}

func TestRegisterDisabled(t *testing.T) {
	cfg := engineTestConfig(t)
	cfg.Register.Enabled = false
	engine, _, done := newTestEngine(t, cfg)
	defer done()

	_, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "nobody@example.com",
		Password: "a-long-enough-password",
	})
	if !errors.Is(err, ErrRegistrationDisabled) {
		t.Fatalf("expected ErrRegistrationDisabled, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	cfg := engineTestConfig(t)
	engine, provider, done := newTestEngine(t, cfg)
	defer done()
	ctx := context.Background()

	seedAccount(t, engine, provider, "acct-1", "taken@example.com", "original-password", RoleTeacher)

	_, err := engine.Register(ctx, RegisterRequest{
		Email:    "Taken@Example.com",
		Password: "a-long-enough-password",
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if got := engine.metrics.Value(MetricRegisterDuplicate); got != 1 {
		t.Fatalf("expected duplicate counter 1, got %d", got)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	cfg := engineTestConfig(t)
	engine, _, done := newTestEngine(t, cfg)
	defer done()
	ctx := context.Background()

	cases := []RegisterRequest{
		{Email: "", Password: "a-long-enough-password"},
		{Email: "not-an-email", Password: "a-long-enough-password"},
		{Email: "short@example.com", Password: "short"},
	}
	for i, req := range cases {
		_, err := engine.Register(ctx, req)
		if !errors.Is(err, ErrPasswordPolicy) {
			t.Fatalf("case %d: expected ErrPasswordPolicy, got %v", i, err)
		}
		if KindOf(err) != KindInput {
			t.Fatalf("case %d: expected KindInput classification", i)
		}
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	cfg := engineTestConfig(t)
	engine, _, done := newTestEngine(t, cfg)
	defer done()

	_, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "role@example.com",
		Password: "a-long-enough-password",
		Role:     Role("superuser"),
	})
	if !errors.Is(err, ErrRoleInvalid) {
		t.Fatalf("expected ErrRoleInvalid, got %v", err)
	}
}

func TestRegisterHonorsExplicitRole(t *testing.T) {
	cfg := engineTestConfig(t)
	engine, _, done := newTestEngine(t, cfg)
	defer done()

	result, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "teacher@example.com",
		Password: "a-long-enough-password",
		Role:     RoleTeacher,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.Role != RoleTeacher {
		t.Fatalf("expected teacher role, got %q", result.Role)
	}
}
