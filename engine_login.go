package zauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chukwuma7703/zauth/internal"
	"github.com/chukwuma7703/zauth/token"
)

// Login authenticates email and password and returns the full credential
// set, or a pending MFA challenge when the account has a confirmed second
// factor.
//
// Unknown email and wrong password both return ErrInvalidCredentials.
// Accounts inside a lock window are rejected before password verification
// and the rejected attempt does not advance the failure counter.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.TrimSpace(strings.ToLower(email))
	account, err := e.provider.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Burn a verify against a throwaway hash so unknown emails cost
			// the same as wrong passwords.
			_, _ = e.passwordHash.Verify(pass, e.dummyHash)
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, AuditLoginFailure, "", false, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, wrapBackend(err)
	}

	now := time.Now()
	state := LockoutState{
		LoginAttempts: account.LoginAttempts,
		LockUntil:     account.LockUntil,
		LockoutCount:  account.LockoutCount,
	}

	if lockoutIsLocked(state, now) {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, AuditLoginLocked, account.AccountID, false, ErrAccountLocked, nil)
		return nil, ErrAccountLocked
	}

	ok, err := e.passwordHash.Verify(pass, account.PasswordHash)
	if err != nil || !ok {
		next := lockoutRecordFailure(e.config.Lockout, state, now)
		if persistErr := e.persistLockout(ctx, account.AccountID, next); persistErr != nil {
			return nil, persistErr
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, account.AccountID, false, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if !account.Active {
		e.emitAudit(ctx, AuditLoginFailure, account.AccountID, false, ErrAccountInactive, nil)
		return nil, ErrAccountInactive
	}

	if state != (LockoutState{}) {
		if err := e.persistLockout(ctx, account.AccountID, lockoutRecordSuccess()); err != nil {
			return nil, err
		}
	}

	e.maybeUpgradeHash(ctx, account, pass)

	if account.MFAEnabled {
		challenge, err := e.issuer.Issue(
			token.KindMFAPending, account.AccountID, account.Role.String(), account.TokenVersion,
		)
		if err != nil {
			return nil, wrapBackend(err)
		}
		e.metricInc(MetricLoginMFARequired)
		e.emitAudit(ctx, AuditLoginMFARequired, account.AccountID, true, nil, nil)
		return &LoginResult{
			AccountID:    account.AccountID,
			Role:         account.Role,
			MFARequired:  true,
			MFAChallenge: challenge,
		}, nil
	}

	return e.completeLogin(ctx, account, AuditLoginSuccess, MetricLoginSuccess)
}

// LoginWithVerifiedEmail finishes a login for an identity whose email was
// verified by an external provider. Password and lockout checks do not
// apply; the account-active check still does.
func (e *Engine) LoginWithVerifiedEmail(ctx context.Context, email string) (*LoginResult, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.TrimSpace(strings.ToLower(email))
	account, err := e.provider.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, wrapBackend(err)
	}
	if !account.Active {
		return nil, ErrAccountInactive
	}

	return e.completeLogin(ctx, account, AuditOAuthLogin, MetricOAuthLogin)
}

// ConfirmMFALogin completes a login paused on a second factor. Six-digit
// numeric submissions validate as TOTP codes; anything else is consumed as
// a recovery code.
func (e *Engine) ConfirmMFALogin(ctx context.Context, challenge, code string) (*LoginResult, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.issuer.Verify(challenge, token.KindMFAPending)
	if err != nil {
		e.metricInc(MetricMFALoginFailure)
		return nil, ErrMFAChallengeInvalid
	}

	account, err := e.loadActiveAccount(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrMFAChallengeInvalid
		}
		return nil, err
	}
	if claims.TokenVersion != account.TokenVersion {
		return nil, ErrMFAChallengeInvalid
	}
	if !account.MFAEnabled {
		return nil, ErrMFAChallengeInvalid
	}

	if err := e.mfaLimiter.Check(ctx, account.AccountID); err != nil {
		e.metricInc(MetricMFARateLimited)
		return nil, err
	}

	if internal.LooksLikeTOTP(code) {
		if !e.totp.Validate(code, account.MFASecret) {
			return nil, e.mfaLoginFailed(ctx, account.AccountID)
		}
	} else {
		hash := internal.HashRecoveryCode(account.AccountID, code)
		consumed, err := e.provider.ConsumeRecoveryCode(ctx, account.AccountID, hash)
		if err != nil {
			return nil, wrapBackend(err)
		}
		if !consumed {
			e.metricInc(MetricRecoveryCodeFailed)
			return nil, e.mfaLoginFailed(ctx, account.AccountID)
		}
		e.metricInc(MetricRecoveryCodeUsed)
		e.emitAudit(ctx, AuditRecoveryCodeUsed, account.AccountID, true, nil, nil)
	}

	if err := e.mfaLimiter.Reset(ctx, account.AccountID); err != nil {
		return nil, err
	}

	return e.completeLogin(ctx, account, AuditMFALoginSuccess, MetricMFALoginSuccess)
}

func (e *Engine) mfaLoginFailed(ctx context.Context, accountID string) error {
	e.metricInc(MetricMFALoginFailure)
	e.emitAudit(ctx, AuditMFALoginFailure, accountID, false, ErrMFACodeInvalid, nil)
	if err := e.mfaLimiter.RecordFailure(ctx, accountID); err != nil {
		if errors.Is(err, ErrMFARateLimited) {
			e.metricInc(MetricMFARateLimited)
			return err
		}
		return err
	}
	return ErrMFACodeInvalid
}

func (e *Engine) completeLogin(
	ctx context.Context,
	account *Account,
	auditEvent string,
	metric MetricID,
) (*LoginResult, error) {
	access, refreshToken, device, err := e.issueTokenSet(ctx, account, true)
	if err != nil {
		return nil, err
	}

	e.metricInc(metric)
	e.emitAudit(ctx, auditEvent, account.AccountID, true, nil, nil)
	e.presence.LoggedIn(ctx, account.AccountID)

	return &LoginResult{
		AccountID:    account.AccountID,
		Role:         account.Role,
		AccessToken:  access,
		RefreshToken: refreshToken,
		DeviceToken:  device,
	}, nil
}

// maybeUpgradeHash rehashes on login when parameters drifted. Failure here
// never fails the login.
func (e *Engine) maybeUpgradeHash(ctx context.Context, account *Account, pass string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}
	upgrade, err := e.passwordHash.NeedsUpgrade(account.PasswordHash)
	if err != nil || !upgrade {
		return
	}
	newHash, err := e.passwordHash.Hash(pass)
	if err != nil {
		return
	}
	_ = e.provider.UpdatePasswordHash(ctx, account.AccountID, newHash)
}
