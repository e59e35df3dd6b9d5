package zauth

import (
	"context"
	"errors"
	"strings"
)

// Register creates an account through the provider and, when auto-login is
// enabled, returns a full credential set for it.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Register.Enabled {
		return nil, ErrRegistrationDisabled
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrPasswordPolicy
	}
	if len(req.Password) < e.config.Password.MinLength {
		return nil, ErrPasswordPolicy
	}

	role := req.Role
	if role == "" {
		role = e.config.Register.DefaultRole
	}
	role, err := ParseRole(string(role))
	if err != nil {
		return nil, err
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		return nil, ErrPasswordPolicy
	}

	account, err := e.provider.Create(ctx, CreateAccountInput{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricRegisterDuplicate)
			return nil, ErrAccountExists
		}
		return nil, wrapBackend(err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, AuditRegister, account.AccountID, true, nil, map[string]string{"role": role.String()})

	result := &RegisterResult{
		AccountID: account.AccountID,
		Role:      account.Role,
	}
	if !e.config.Register.AutoLogin {
		return result, nil
	}

	access, refreshToken, device, err := e.issueTokenSet(ctx, account, true)
	if err != nil {
		return nil, err
	}
	result.AccessToken = access
	result.RefreshToken = refreshToken
	result.DeviceToken = device
	e.presence.LoggedIn(ctx, account.AccountID)

	return result, nil
}
