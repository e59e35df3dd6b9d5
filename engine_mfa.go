package zauth

import (
	"context"

	"github.com/chukwuma7703/zauth/internal"
)

// StartMFASetup generates a TOTP secret for the account and parks it in the
// pending state. The account keeps logging in with password only until
// [Engine.ConfirmMFASetup] proves possession of the authenticator.
func (e *Engine) StartMFASetup(ctx context.Context, accountID string) (*MFASetup, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.MFA.Enabled {
		return nil, ErrMFANotEnabled
	}

	account, err := e.loadActiveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.MFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}

	setup, err := e.totp.Generate(account.Email)
	if err != nil {
		return nil, wrapBackend(err)
	}

	if err := e.provider.SetMFAPending(ctx, accountID, setup.SecretBase32); err != nil {
		return nil, wrapBackend(err)
	}

	e.emitAudit(ctx, AuditMFASetupStarted, accountID, true, nil, nil)
	return setup, nil
}

// ConfirmMFASetup verifies a live TOTP code against the pending secret,
// enables MFA, and returns the recovery codes. The plaintext codes appear
// exactly once, here; only salted hashes persist.
func (e *Engine) ConfirmMFASetup(ctx context.Context, accountID, code string) ([]string, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}

	account, err := e.loadActiveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.MFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}
	if !account.MFAPending || account.MFASecret == "" {
		return nil, ErrMFASetupNotPending
	}

	if err := e.mfaLimiter.Check(ctx, accountID); err != nil {
		return nil, err
	}
	if !e.totp.Validate(code, account.MFASecret) {
		if err := e.mfaLimiter.RecordFailure(ctx, accountID); err != nil {
			return nil, err
		}
		return nil, ErrMFACodeInvalid
	}
	if err := e.mfaLimiter.Reset(ctx, accountID); err != nil {
		return nil, err
	}

	codes, records, err := e.newRecoveryCodes(accountID)
	if err != nil {
		return nil, wrapBackend(err)
	}
	if err := e.provider.ReplaceRecoveryCodes(ctx, accountID, records); err != nil {
		return nil, wrapBackend(err)
	}
	if err := e.provider.EnableMFA(ctx, accountID); err != nil {
		return nil, wrapBackend(err)
	}

	e.metricInc(MetricMFAEnabled)
	e.emitAudit(ctx, AuditMFAEnabled, accountID, true, nil, nil)
	return codes, nil
}

// DisableMFA removes the second factor after a live TOTP code confirms the
// owner still holds the authenticator. Recovery codes are wiped with it.
func (e *Engine) DisableMFA(ctx context.Context, accountID, code string) error {
	if e == nil || e.provider == nil {
		return ErrEngineNotReady
	}

	account, err := e.loadActiveAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.MFAEnabled {
		return ErrMFANotEnabled
	}

	if err := e.mfaLimiter.Check(ctx, accountID); err != nil {
		return err
	}
	if !e.totp.Validate(code, account.MFASecret) {
		if err := e.mfaLimiter.RecordFailure(ctx, accountID); err != nil {
			return err
		}
		return ErrMFACodeInvalid
	}
	if err := e.mfaLimiter.Reset(ctx, accountID); err != nil {
		return err
	}

	if err := e.provider.ReplaceRecoveryCodes(ctx, accountID, nil); err != nil {
		return wrapBackend(err)
	}
	if err := e.provider.DisableMFA(ctx, accountID); err != nil {
		return wrapBackend(err)
	}

	e.metricInc(MetricMFADisabled)
	e.emitAudit(ctx, AuditMFADisabled, accountID, true, nil, nil)
	return nil
}

// RegenerateRecoveryCodes atomically replaces the account's recovery set.
// It demands both the password and a live TOTP code, since fresh codes are
// a full second-factor bypass. Unused old codes die with the swap.
func (e *Engine) RegenerateRecoveryCodes(ctx context.Context, accountID, pass, code string) ([]string, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}

	account, err := e.loadActiveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.MFAEnabled {
		return nil, ErrMFANotEnabled
	}

	ok, verr := e.passwordHash.Verify(pass, account.PasswordHash)
	if verr != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if err := e.mfaLimiter.Check(ctx, accountID); err != nil {
		return nil, err
	}
	if !e.totp.Validate(code, account.MFASecret) {
		if err := e.mfaLimiter.RecordFailure(ctx, accountID); err != nil {
			return nil, err
		}
		return nil, ErrMFACodeInvalid
	}
	if err := e.mfaLimiter.Reset(ctx, accountID); err != nil {
		return nil, err
	}

	codes, records, err := e.newRecoveryCodes(accountID)
	if err != nil {
		return nil, wrapBackend(err)
	}
	if err := e.provider.ReplaceRecoveryCodes(ctx, accountID, records); err != nil {
		return nil, wrapBackend(err)
	}

	e.metricInc(MetricRecoveryCodesRegenerated)
	e.emitAudit(ctx, AuditRecoveryRegenerated, accountID, true, nil, nil)
	return codes, nil
}

func (e *Engine) newRecoveryCodes(accountID string) ([]string, []RecoveryCodeRecord, error) {
	count := e.config.MFA.RecoveryCodeCount
	codes := make([]string, 0, count)
	records := make([]RecoveryCodeRecord, 0, count)
	for i := 0; i < count; i++ {
		code, err := internal.NewRecoveryCode()
		if err != nil {
			return nil, nil, err
		}
		codes = append(codes, code)
		records = append(records, RecoveryCodeRecord{
			Hash: internal.HashRecoveryCode(accountID, code),
		})
	}
	return codes, records, nil
}
